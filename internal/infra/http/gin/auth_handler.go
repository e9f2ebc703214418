package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staywise/internal/app/dto"
	authsvc "staywise/internal/app/services/auth"
)

type AuthHTTP interface {
	Signup(c *gin.Context)
	Login(c *gin.Context)
	Me(c *gin.Context)
}

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

type signupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h AuthHandler) Signup(c *gin.Context) {
	if h.Service == nil {
		respondMessage(c, http.StatusServiceUnavailable, "Auth service unavailable")
		return
	}
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.Service.Signup(c.Request.Context(), authsvc.SignupParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		respondError(c, h.Logger, err, "Server error during signup")
		return
	}
	respondData(c, http.StatusCreated, "User created successfully", dto.NewAuthResponse(result.User, result.Credential.Token))
}

func (h AuthHandler) Login(c *gin.Context) {
	if h.Service == nil {
		respondMessage(c, http.StatusServiceUnavailable, "Auth service unavailable")
		return
	}
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err, "Server error during login")
		return
	}
	respondData(c, http.StatusOK, "Login successful", dto.NewAuthResponse(result.User, result.Credential.Token))
}

func (h AuthHandler) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		respondMessage(c, http.StatusUnauthorized, "Access token required")
		return
	}
	user, err := h.Service.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching profile")
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"user": dto.MapUserProfile(user)})
}

var _ AuthHTTP = AuthHandler{}
