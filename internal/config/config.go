package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	Environment       string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseURL       string
	SessionSecret     string
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	SuperRootUserName string
	SuperRootPassword string
	SiteBaseURL       string
	SiteName          string
	MaxUploadMB       int

	Storage   StorageConfig
	Cache     CacheConfig
	Thumbnail ThumbnailConfig
}

// StorageConfig selects the object store that receives uploaded editions.
type StorageConfig struct {
	Backend string // local, minio, gcs

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	GCSBucket        string
	GCSPublicBaseURL string
}

// CacheConfig selects the backend of the link derivation cache.
type CacheConfig struct {
	Backend       string // memory, redis, none
	Size          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ThumbnailConfig tunes local cover rasterization for uploaded PDFs.
type ThumbnailConfig struct {
	PdftoppmPath string
	MaxWidth     int
	Concurrency  int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := getEnv("PORT", "8080")

	listenAddr := getEnv("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		Environment:       getEnv("APP_ENV", "development"),
		DatabaseDriver:    strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabasePath:      getEnv("DATABASE_PATH", "tribuna.db"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SessionSecret:     getEnv("SESSION_SECRET", "tribuna-dev-secret"),
		GinMode:           getEnv("GIN_MODE", "release"),
		UploadDir:         getEnv("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:     getEnv("UPLOAD_URL_PATH", "/uploads"),
		SuperRootUserName: getEnv("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: getEnv("SUPER_ROOT_PASSWORD", ""),
		SiteBaseURL:       getEnv("SITE_BASE_URL", "https://jornaltribuna.net"),
		SiteName:          getEnv("SITE_NAME", "Jornal Tribuna"),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 25),
		Storage: StorageConfig{
			Backend:          strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			MinIOEndpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinIOAccessKey:   getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			MinIOSecretKey:   getEnv("MINIO_SECRET_KEY", "minioadmin"),
			MinIOBucket:      getEnv("MINIO_BUCKET", "pdf-editions"),
			MinIOUseSSL:      getEnvBool("MINIO_USE_SSL", false),
			GCSBucket:        getEnv("GCS_BUCKET", ""),
			GCSPublicBaseURL: getEnv("GCS_PUBLIC_BASE_URL", ""),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
			Size:          getEnvInt("CACHE_SIZE", 512),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Thumbnail: ThumbnailConfig{
			PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),
			MaxWidth:     getEnvInt("THUMBNAIL_MAX_WIDTH", 800),
			Concurrency:  getEnvInt("THUMBNAIL_CONCURRENCY", 4),
		},
	}
}

// MaxUploadBytes returns the upload limit in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
