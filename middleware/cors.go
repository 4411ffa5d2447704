package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/arconis2020/smb-to-kodi/config"
)

// CORS returns a configured CORS middleware.
func CORS() gin.HandlerFunc {
	corsOrigins := config.Env["CORS_ORIGINS"]
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000,http://localhost:5173"
	}

	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = strings.Split(corsOrigins, ",")
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	return cors.New(cfg)
}
