package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Storage driver tags. The media store variant is chosen by configuration,
// not by build flags, so a deployment can move between a local disk tree
// and an object-storage bucket without touching any other component.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

const (
	defaultMediaSubDir       = "media_storage"
	defaultPublicMediaPrefix = "/media"
	defaultMaxUploadBytes    = 20 << 20 // 20 MiB
	defaultBackfillWorkers   = 4

	defaultLargeBoxSize    = 1920
	defaultMediumShortSide = 500
	defaultThumbBoxSize    = 150
	defaultLargeQuality    = 85
	defaultMediumQuality   = 85
	defaultThumbQuality    = 80
)

type Config struct {
	// database path (sqlite)
	DatabasePath string

	// media storage configuration
	StorageDriver     string // "local" or "s3"
	MediaStoragePath  string // local driver: root of the derivative tree
	PublicMediaPrefix string // local driver: URL prefix the asset server answers on

	// object storage (s3 driver)
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3UseSSL        bool
	S3PublicBaseURL string // public base for stored keys, e.g. https://cdn.example.com/shop-media

	// upload limits
	MaxUploadBytes int64

	// legacy migration settings
	LegacySearchDirs  []string // directories probed by the legacy locator
	LegacyURLPrefixes []string // historical URL prefixes stripped during normalization
	BackfillWorkers   int

	// derivative tier settings
	LargeBoxSize    int
	MediumShortSide int
	ThumbBoxSize    int
	LargeQuality    int
	MediumQuality   int
	ThumbQuality    int

	// CORS
	AllowedOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// getEnvListOrDefault parses a comma-separated env var, trimming blanks
func getEnvListOrDefault(envVar string, defaultVal []string) []string {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "storefront.db")

	driver := getEnvOrDefault("STORAGE_DRIVER", StorageDriverLocal)
	if driver != StorageDriverLocal && driver != StorageDriverS3 {
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER '%s' (expected '%s' or '%s')", driver, StorageDriverLocal, StorageDriverS3)
	}

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", defaultMediaSubDir))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	publicPrefix := getEnvOrDefault("PUBLIC_MEDIA_PREFIX", defaultPublicMediaPrefix)
	if !strings.HasPrefix(publicPrefix, "/") {
		publicPrefix = "/" + publicPrefix
	}
	publicPrefix = strings.TrimRight(publicPrefix, "/")

	maxUpload := int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes))

	legacyDirs := getEnvListOrDefault("LEGACY_SEARCH_DIRS", nil)
	var absLegacyDirs []string
	for _, d := range legacyDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path for legacy directory '%s': %w", d, err)
		}
		absLegacyDirs = append(absLegacyDirs, abs)
	}

	cfg := Config{
		DatabasePath:      dbPath,
		StorageDriver:     driver,
		MediaStoragePath:  absMediaStorage,
		PublicMediaPrefix: publicPrefix,

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3UseSSL:        getEnvOrDefault("S3_USE_SSL", "true") == "true",
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		MaxUploadBytes: maxUpload,

		LegacySearchDirs:  absLegacyDirs,
		LegacyURLPrefixes: getEnvListOrDefault("LEGACY_URL_PREFIXES", []string{"/uploads", "/static/uploads"}),
		BackfillWorkers:   getEnvIntOrDefault("BACKFILL_WORKERS", defaultBackfillWorkers),

		LargeBoxSize:    getEnvIntOrDefault("LARGE_BOX_SIZE", defaultLargeBoxSize),
		MediumShortSide: getEnvIntOrDefault("MEDIUM_SHORT_SIDE", defaultMediumShortSide),
		ThumbBoxSize:    getEnvIntOrDefault("THUMB_BOX_SIZE", defaultThumbBoxSize),
		LargeQuality:    getEnvIntOrDefault("LARGE_QUALITY", defaultLargeQuality),
		MediumQuality:   getEnvIntOrDefault("MEDIUM_QUALITY", defaultMediumQuality),
		ThumbQuality:    getEnvIntOrDefault("THUMB_QUALITY", defaultThumbQuality),

		AllowedOrigins: getEnvListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	if cfg.StorageDriver == StorageDriverS3 {
		if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("STORAGE_DRIVER=s3 requires S3_ENDPOINT and S3_BUCKET")
		}
	}

	return cfg, nil
}
