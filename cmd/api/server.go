package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gallery/internal/config"
	"gallery/internal/domain/auth"
	"gallery/internal/domain/gallery"
	"gallery/internal/domain/upload"
	"gallery/internal/middleware"
	jwtsvc "gallery/internal/pkg/jwt"
	"gallery/internal/pkg/response"
	"gallery/internal/repository"
)

type server struct {
	router  *gin.Engine
	sweeper *upload.Sweeper
}

func newServer(cfg *config.Config, db *gorm.DB) (*server, error) {
	layout := upload.NewLayout(cfg.Upload.Dir)
	if err := layout.Ensure(); err != nil {
		return nil, err
	}
	store := upload.NewStore(layout, cfg.Upload.AllowedFileTypes, cfg.Upload.MaxFileSize)
	thumbnailer := upload.NewThumbnailer(layout, cfg.Upload.ThumbnailSize)

	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	authHandler := auth.NewHandler(auth.NewService(userRepo, j, store, cfg.BcryptCost), cfg.Upload.MaxFileSize)
	galleryHandler := gallery.NewHandler(gallery.NewService(imageRepo, store, thumbnailer), cfg.Upload.MaxFileSize)

	srv := &server{
		sweeper: upload.NewSweeper(store, cfg.SweepGrace, imageRepo, userRepo),
	}

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSOrigins))

	r.Static(upload.PublicPrefix, layout.Root)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{"status": "ok"})
		})
		authHandler.RegisterPublicRoutes(api)

		protected := api.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			galleryHandler.RegisterRoutes(protected)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.POST("/sweep", srv.runSweep)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.CustomError(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	srv.router = r
	return srv, nil
}

func (s *server) runSweep(c *gin.Context) {
	report, err := s.sweeper.Sweep(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Asset sweep failed")
		return
	}
	response.Success(c, http.StatusOK, report)
}
