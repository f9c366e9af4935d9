// Package http holds the composition types shared by the router and the
// domain modules.
package http

import (
	"context"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the authenticated route groups.
type RouterContext struct {
	// Protected requires a valid access token; role checks are the
	// module's business.
	Protected *gin.RouterGroup
	// Admin lives under /api/v1/admin and only admits the admin role.
	Admin *gin.RouterGroup
}

// App is assembled by cmd/api and consumed by the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
