package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/config"
	"github.com/Jce-C/megregalo/internal/middleware"
	"github.com/Jce-C/megregalo/internal/security"
	"github.com/Jce-C/megregalo/internal/service"
)

// Dependency is an optional collaborator reported by the health endpoint.
// A nil Ping means the dependency is not configured.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	photos  *service.PhotoService
	backend string
	deps    []Dependency
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, photos *service.PhotoService, backend string, deps ...Dependency) HandlerSet {
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		photos:  photos,
		backend: backend,
		deps:    deps,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.GET("/getPhotos", h.GetPhotos)
	router.POST("/uploadPhoto", h.UploadPhoto)

	admin := router.Group("/photos")
	admin.Use(middleware.RequireAdmin(h.cfg.Security.AdminSecret, security.ScopePhotosDelete))
	admin.DELETE("/:id", h.DeletePhoto)
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
}

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "method not allowed"})
}
