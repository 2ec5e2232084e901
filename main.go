package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/atelier-dev/storefrontbackend/config"
	"github.com/atelier-dev/storefrontbackend/database"
	"github.com/atelier-dev/storefrontbackend/handlers"
	"github.com/atelier-dev/storefrontbackend/media"
	"github.com/atelier-dev/storefrontbackend/repository"
	"github.com/atelier-dev/storefrontbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	var mediaStore media.Store
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		mediaStore, err = media.NewMinioStore(media.MinioOptions{
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			UseSSL:        cfg.S3UseSSL,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		mediaStore, err = media.NewLocalStore(cfg.MediaStoragePath, cfg.PublicMediaPrefix)
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}

	policy := media.NewPolicy(media.PolicySettings{
		LargeBoxSize:    cfg.LargeBoxSize,
		MediumShortSide: cfg.MediumShortSide,
		ThumbBoxSize:    cfg.ThumbBoxSize,
		LargeQuality:    cfg.LargeQuality,
		MediumQuality:   cfg.MediumQuality,
		ThumbQuality:    cfg.ThumbQuality,
	})
	builder := media.NewBuilder(mediaStore, policy)
	locator := media.NewLocator(cfg.LegacySearchDirs, cfg.LegacyURLPrefixes)

	mediaRepo := repository.NewMediaRepository(db)
	contentRepo := repository.NewContentRepository(db)

	migrator := &workers.Migrator{
		MediaRepo:   mediaRepo,
		ContentRepo: contentRepo,
		Builder:     builder,
		Locator:     locator,
		Store:       mediaStore,
		SQLDB:       sqlDB,
		Workers:     cfg.BackfillWorkers,
	}

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storage driver: %s", cfg.StorageDriver)
	log.Printf("Max upload size: %d bytes", cfg.MaxUploadBytes)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute)) // batch jobs run within the request
	r.Use(corsHandler.Handler)

	mediaHandler := &handlers.MediaHandler{Repo: mediaRepo, Builder: builder, MaxUploadBytes: cfg.MaxUploadBytes}
	jobsHandler := &handlers.JobsHandler{Migrator: migrator}

	r.Route("/api", func(r chi.Router) {
		r.Route("/media", func(r chi.Router) {
			r.Post("/", mediaHandler.UploadImage)
			r.Get("/", mediaHandler.ListMedia)
			r.Route("/{media_id}", func(r chi.Router) {
				r.Get("/", mediaHandler.GetMedia)
				r.Delete("/", mediaHandler.DeleteMedia)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/backfill/{table}", jobsHandler.RunBackfill)
				r.Post("/fix-dimensions", jobsHandler.RunFixDimensions)
				r.Post("/cleanup", jobsHandler.RunCleanup)
				r.Post("/reprocess", jobsHandler.RunReprocess)
			})

			if cfg.StorageDriver == config.StorageDriverLocal {
				browser := &handlers.StorageBrowserHandler{BasePath: cfg.MediaStoragePath, Store: mediaStore}
				r.Get("/storage/{tier}", browser.ListTier)
			}
		})
	})

	if cfg.StorageDriver == config.StorageDriverLocal {
		r.Get(cfg.PublicMediaPrefix+"/*", handlers.AssetServer(cfg.MediaStoragePath, cfg.PublicMediaPrefix))
		log.Printf("Registered asset server at %s/*", cfg.PublicMediaPrefix)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
