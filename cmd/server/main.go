package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Nusantara-Apps/rutina/internal/db"
	"github.com/Nusantara-Apps/rutina/internal/http/middleware"
	"github.com/Nusantara-Apps/rutina/internal/redis"
)

func main() {
	// .env is optional; real deployments set vars directly
	_ = godotenv.Load()
	env := LoadEnvironment()

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	var denylist middleware.TokenDenylist
	if env.RedisAddress != "" {
		redis.Init(env.RedisAddress, env.RedisUsername, env.RedisPassword)
		denylist = redis.NewDenylist(redis.Rdb)
	} else {
		log.Warn().Msg("redis not configured, token revocations are kept in process memory")
		denylist = middleware.NewMemoryDenylist()
	}

	r := gin.Default()
	store := db.NewStore(db.DB)
	RegisterRoutes(r, env, store, denylist)

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
