package http

import (
	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/logging"
	"github.com/mrlokans/bookclub/internal/storage"
	"github.com/mrlokans/bookclub/internal/telemetry"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	DB       *gorm.DB
	Database Pinger

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController

	// Cover uploads; nil disables PATCH /book/upload-image/:id
	Storage storage.Client

	// Friend notifications for new reviews; nil disables them
	ReviewNotifier ReviewNotifier

	// Observability
	Metrics        *telemetry.HTTPMetrics
	TracingEnabled bool
	ServiceName    string

	CORSAllowOrigins []string
	Logger           *logging.Logger

	// Read-only deployment: every write outside /api/auth/ is refused
	DemoMode bool

	// Application info
	Version string
}
