package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/http/api"
	"github.com/Nusantara-Apps/rutina/internal/http/api/auth/packets"
	"github.com/Nusantara-Apps/rutina/internal/http/middleware"
	"github.com/Nusantara-Apps/rutina/internal/model"
)

// AuthPublicModule mounts public auth endpoints (/auth/register, /auth/login)
func AuthPublicModule(jwtSecret, adminSecretCode string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, adminSecretCode, store, nil)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/register", ctl.register)
		c.PUBLIC_POST("/auth/login", ctl.login)
	})
}

// AuthSessionModule mounts session endpoints behind JWT (/user, /logout)
func AuthSessionModule(jwtSecret string, store db.Store, denylist middleware.TokenDenylist) api.Module {
	ctl := newAccountManager(jwtSecret, "", store, denylist)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/user", ctl.currentUser)
		c.POST("/logout", ctl.logout)
	})
}

type AccountManager struct {
	jwtSecret       string
	adminSecretCode string
	store           db.Store
	denylist        middleware.TokenDenylist
}

func newAccountManager(secret, adminSecretCode string, store db.Store, denylist middleware.TokenDenylist) *AccountManager {
	return &AccountManager{jwtSecret: secret, adminSecretCode: adminSecretCode, store: store, denylist: denylist}
}

// POST /api/auth/register
func (a *AccountManager) register(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	role := request.Role
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin && request.SecretCode != a.adminSecretCode {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "invalid secret code for admin"}
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not hash password"}
	}

	user, err := a.store.CreateUser(request.Name, request.Email, hashed, role)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			log.Warn().Str("email", request.Email).Msg("register email already in use")
			return nil, &api.APIError{Code: http.StatusConflict, Message: "email already registered"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create user"}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "user registered successfully",
		"user":    packets.NewUserResponse(user),
	})
	return nil, nil
}

// POST /api/auth/login
func (a *AccountManager) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}

	foundUser, err := a.store.GetUserByEmail(request.Email)
	if err != nil || foundUser == nil || !middleware.CheckPassword(foundUser.HashedPassword, request.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(foundUser.ID, a.jwtSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate token"}
	}

	return packets.LoginResponse{
		Message: "login success",
		Token:   token,
		User:    packets.NewUserResponse(foundUser),
	}, nil
}

// GET /api/user
func (a *AccountManager) currentUser(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return packets.NewUserResponse(user), nil
}

// POST /api/logout
func (a *AccountManager) logout(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	claims, ok := middleware.GetTokenClaims(ctx)
	if !ok {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	}

	if err := a.denylist.Deny(ctx.Request.Context(), claims.TokenID, claims.Expires); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to logout"}
	}

	return gin.H{"message": "successfully logged out"}, nil
}
