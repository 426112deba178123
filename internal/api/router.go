package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/lab-booking-backend/internal/auth"
	"github.com/nekogravitycat/lab-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/lab-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/lab-booking-backend/internal/capture"
	captureHttp "github.com/nekogravitycat/lab-booking-backend/internal/capture/http"
	"github.com/nekogravitycat/lab-booking-backend/internal/session"
	sessionHttp "github.com/nekogravitycat/lab-booking-backend/internal/session/http"
	"github.com/nekogravitycat/lab-booking-backend/internal/user"
)

// Config carries everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	UserService    user.Service
	BookingService booking.Service
	SessionService session.Service
	CaptureService capture.Service
	SessionLookup  ActiveSessionLookup
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	authHandler := NewAuthHandler(cfg.UserService, cfg.SessionLookup, cfg.JWTManager)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	sessionHandler := sessionHttp.NewHandler(cfg.SessionService)
	captureHandler := captureHttp.NewHandler(cfg.CaptureService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register API routes under /api
	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		api.GET("/me", authMiddleware, authHandler.Me)

		bookingHttp.RegisterRoutes(api, bookingHandler, authMiddleware)
		sessionHttp.RegisterRoutes(api, sessionHandler, authMiddleware)
		captureHttp.RegisterRoutes(api, captureHandler, authMiddleware)
	}

	return r
}
