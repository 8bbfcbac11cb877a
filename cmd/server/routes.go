package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/http/api"
	authapi "github.com/Nusantara-Apps/rutina/internal/http/api/auth/endpoints"
	checklistapi "github.com/Nusantara-Apps/rutina/internal/http/api/checklists/endpoints"
	"github.com/Nusantara-Apps/rutina/internal/http/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, denylist middleware.TokenDenylist) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, env.AdminSecretCode, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
		Denylist:  denylist,
	},
		authapi.AuthSessionModule(env.SecretKey, store, denylist),
		checklistapi.ChecklistModule(store),
	)
}
