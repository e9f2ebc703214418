package memory

import (
	"context"
	"sort"
	"sync"

	domainuser "staywise/internal/domain/user"
)

// UserRepository stores accounts in memory with a unique email index.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[domainuser.ID]*domainuser.User
	byEmail map[string]domainuser.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[domainuser.ID]*domainuser.User),
		byEmail: make(map[string]domainuser.ID),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return u.Clone(), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[domainuser.NormalizeEmail(email)]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	if u, ok := r.byID[id]; ok {
		return u.Clone(), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || user.ID == "" {
		return domainuser.ErrIDRequired
	}
	email := domainuser.NormalizeEmail(user.Email)
	if email == "" {
		return domainuser.ErrEmailRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.byEmail[email]; taken && owner != user.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	if previous, ok := r.byID[user.ID]; ok && previous.Email != email {
		delete(r.byEmail, previous.Email)
	}
	stored := user.Clone()
	stored.Email = email
	r.byID[user.ID] = stored
	r.byEmail[email] = user.ID
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	r.mu.RLock()
	out := make([]*domainuser.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u.Clone())
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ domainuser.Repository = (*UserRepository)(nil)
