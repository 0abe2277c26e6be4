package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/response"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	StreamToken(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	authService auth.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService auth.AuthService, logger *slog.Logger) AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Login implements AuthHandler.
func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.LoginRequest

	// 1. Decode JSON
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		a.logger.Error("Login decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// 2. Call service (validates the DTO)
	tokenResponse, err := a.authService.Login(r.Context(), loginReq)
	if err != nil {
		a.logger.Warn("Login failed", "username", loginReq.Username, "remote_addr", r.RemoteAddr, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Login successful", tokenResponse)
}

// StreamToken implements AuthHandler.
func (a *AuthHandlerImpl) StreamToken(w http.ResponseWriter, r *http.Request) {
	tokenResponse, err := a.authService.StreamToken(r.Context(), middleware.Subject(r))
	if err != nil {
		a.logger.Error("StreamToken service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, tokenResponse)
}
