package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	userapp "staywise/internal/app/handlers/users"
	"staywise/internal/app/queries"
)

type UsersHTTP interface {
	List(c *gin.Context)
	Update(c *gin.Context)
}

// UsersHandler serves the admin user directory.
type UsersHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type updateUserRequest struct {
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"isActive"`
}

func (h UsersHandler) List(c *gin.Context) {
	result, err := queries.Ask[userapp.ListUsersQuery, *dto.UserList](c.Request.Context(), h.Queries, userapp.ListUsersQuery{})
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching users")
		return
	}
	respondData(c, http.StatusOK, "", result)
}

func (h UsersHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := userapp.UpdateUserCommand{UserID: c.Param("id"), Role: req.Role, Active: req.IsActive}
	result, err := commands.Dispatch[userapp.UpdateUserCommand, *dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err, "Error updating user")
		return
	}
	respondData(c, http.StatusOK, "User updated successfully", gin.H{"user": result})
}

var _ UsersHTTP = UsersHandler{}
