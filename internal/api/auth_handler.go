package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/lab-booking-backend/internal/auth"
	"github.com/nekogravitycat/lab-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/lab-booking-backend/internal/session"
	"github.com/nekogravitycat/lab-booking-backend/internal/user"
)

// ActiveSessionLookup resolves a user's active equipment session so its
// id can be embedded in freshly issued access tokens. Satisfied by
// session.Repository.
type ActiveSessionLookup interface {
	GetActiveByUser(ctx context.Context, userID string) (*session.Session, error)
}

type AuthHandler struct {
	userService user.Service
	sessions    ActiveSessionLookup
	jwtManager  *auth.JWTManager
}

func NewAuthHandler(
	userService user.Service,
	sessions ActiveSessionLookup,
	jwtManager *auth.JWTManager,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		jwtManager:  jwtManager,
	}
}

// activeSessionID returns the id of the user's active session, or nil.
// A lookup failure is treated as no active session; token issuance must
// not depend on it.
func (h *AuthHandler) activeSessionID(ctx context.Context, userID string) *string {
	s, err := h.sessions.GetActiveByUser(ctx, userID)
	if err != nil || s == nil {
		return nil
	}
	return &s.ID
}

//
// POST /api/auth/register
//

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
		return
	}

	u, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, NewUserResponse(u))
}

//
// POST /api/auth/login
//

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()

	u, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	sessionID := h.activeSessionID(ctx, u.ID)

	accessToken, err := h.jwtManager.GenerateAccessToken(u.ID, u.Role, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(u.ID, u.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.jwtManager.AccessTTL().Seconds()),
		User:         NewUserResponse(u),
	})
}

//
// POST /api/auth/refresh
//

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Envelope{Success: false, Error: "invalid request body"})
		return
	}

	p, err := h.jwtManager.ParseAndValidate(req.RefreshToken)
	if err != nil {
		msg := "invalid refresh token"
		if err == auth.ErrTokenExpired {
			msg = "refresh token expired"
		}
		c.JSON(http.StatusUnauthorized, response.Envelope{Success: false, Error: msg})
		return
	}

	ctx := c.Request.Context()

	// The user may have been removed since the refresh token was issued.
	u, err := h.userService.GetByID(ctx, p.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Envelope{Success: false, Error: "invalid refresh token"})
		return
	}

	sessionID := h.activeSessionID(ctx, u.ID)

	accessToken, err := h.jwtManager.GenerateAccessToken(u.ID, u.Role, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, RefreshResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(h.jwtManager.AccessTTL().Seconds()),
	})
}

//
// POST /api/auth/logout
//

// Logout is stateless: tokens are not tracked server side, so the
// client discards its pair. The endpoint exists so clients have a
// uniform call to end a login.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Message(c, "logged out")
}

//
// GET /api/me
//

func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Envelope{Success: false, Error: "unauthorized"})
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, NewUserResponse(u))
}
