package properties

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/uow"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

const attachImageKey = "properties.attach_image"

var (
	ErrImageStorageUnavailable = errors.New("properties: image storage is not configured")
	ErrUnsupportedImage        = errors.New("properties: only image uploads are accepted")
)

// ImageStore persists an uploaded file and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type AttachImageCommand struct {
	PropertyID  string `validate:"required"`
	FileName    string `validate:"required"`
	ContentType string `validate:"required"`
	Size        int64  `validate:"gt=0"`
	Body        io.Reader
}

func (c AttachImageCommand) Key() string { return attachImageKey }

func (c AttachImageCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

type AttachImageHandler struct {
	UoWFactory uow.UoWFactory
	Images     ImageStore
	Cache      CatalogCache
	Logger     *slog.Logger
}

func (h *AttachImageHandler) Handle(ctx context.Context, cmd AttachImageCommand) (*dto.PropertyView, error) {
	if h.Images == nil {
		return nil, ErrImageStorageUnavailable
	}
	if !strings.HasPrefix(strings.ToLower(cmd.ContentType), "image/") {
		return nil, ErrUnsupportedImage
	}
	if cmd.Body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrUnsupportedImage)
	}
	unit, ctx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Abort(ctx)

	property, err := unit.Properties().ByID(ctx, domainproperties.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	key := imageKey(property.ID, cmd.FileName)
	url, err := h.Images.Upload(ctx, key, cmd.Body, cmd.Size, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload property image: %w", err)
	}
	if err := property.AddImage(url, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := unit.Properties().Save(ctx, property); err != nil {
		return nil, err
	}
	views := []dto.PropertyView{dto.MapProperty(property)}
	if err := attachOwners(ctx, handlersupport.NewRelations(unit), views, true); err != nil {
		return nil, err
	}
	if err := unit.Finish(ctx); err != nil {
		return nil, err
	}
	invalidateCatalog(ctx, h.Cache, h.Logger)
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "property image attached", "property_id", property.ID, "key", key)
	}
	return &views[0], nil
}

func imageKey(id domainproperties.ID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("properties/%s/%s%s", id, uuid.NewString(), ext)
}

var _ commands.Handler[AttachImageCommand, *dto.PropertyView] = (*AttachImageHandler)(nil)
