package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gallery/internal/domain/upload"
)

const (
	defaultAddr             = ":5000"
	defaultAppEnv           = "dev"
	defaultDatabaseURL      = "gallery.db"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultJWTTTL           = "720h"
	defaultUploadDir        = "uploads"
	defaultAllowedFileTypes = "image/jpeg,image/png,image/gif"
	defaultMaxFileSize      = 5 * 1024 * 1024
	defaultThumbnailSize    = 300
	defaultCORSOrigin       = "*"
	defaultBcryptCost       = 12
	defaultSweepInterval    = "0s"
	defaultSweepGrace       = "1h"
)


type Config struct {
	Addr        string
	AppEnv      string
	DatabaseURL string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	Upload UploadConfig

	CORSOrigins []string

	SweepInterval time.Duration
	SweepGrace    time.Duration
}

type UploadConfig struct {
	Dir              string
	AllowedFileTypes []string
	MaxFileSize      int64
	ThumbnailSize    int
}

// Load reads .env (when present), then flags, then the environment.
// Flags win over the environment.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("gallery", pflag.ContinueOnError)
	fs.String("addr", defaultAddr, "listen address")
	fs.String("app-env", defaultAppEnv, "dev, test or prod")
	fs.String("database-url", defaultDatabaseURL, "postgres:// URL or sqlite file")
	fs.String("jwt-secret", defaultJWTSecret, "")
	fs.String("jwt-ttl", defaultJWTTTL, "")
	fs.Int("bcrypt-cost", defaultBcryptCost, "")
	fs.String("upload-dir", defaultUploadDir, "root of images/ and thumbnails/")
	fs.String("allowed-file-types", defaultAllowedFileTypes, "comma separated media types")
	fs.Int64("max-file-size", defaultMaxFileSize, "bytes")
	fs.Int("thumbnail-size", defaultThumbnailSize, "thumbnail bounding box in pixels")
	fs.String("cors-origin", defaultCORSOrigin, "comma separated origins or *")
	fs.String("sweep-interval", defaultSweepInterval, "orphan sweep period, 0 disables")
	fs.String("sweep-grace", defaultSweepGrace, "minimum age of a file before the sweep may remove it")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Addr:        strings.TrimSpace(v.GetString("addr")),
		AppEnv:      strings.ToLower(strings.TrimSpace(v.GetString("app-env"))),
		DatabaseURL: strings.TrimSpace(v.GetString("database-url")),
		JWTSecret:   strings.TrimSpace(v.GetString("jwt-secret")),
		BcryptCost:  v.GetInt("bcrypt-cost"),
		Upload: UploadConfig{
			Dir:              strings.TrimSpace(v.GetString("upload-dir")),
			AllowedFileTypes: splitList(v.GetString("allowed-file-types")),
			MaxFileSize:      v.GetInt64("max-file-size"),
			ThumbnailSize:    v.GetInt("thumbnail-size"),
		},
		CORSOrigins: splitList(v.GetString("cors-origin")),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(v, "jwt-ttl"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDuration(v, "sweep-interval"); err != nil {
		return nil, err
	}
	if cfg.SweepGrace, err = parseDuration(v, "sweep-grace"); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s upload_dir=%s allowed=%v max_file_size=%d thumbnail_size=%d",
		cfg.AppEnv, cfg.Addr, cfg.Upload.Dir, cfg.Upload.AllowedFileTypes, cfg.Upload.MaxFileSize, cfg.Upload.ThumbnailSize)

	return cfg, nil
}

func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.Upload.Dir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if len(cfg.Upload.AllowedFileTypes) == 0 {
		return fmt.Errorf("ALLOWED_FILE_TYPES must list at least one media type")
	}
	if unsupported, _ := lo.Difference(cfg.Upload.AllowedFileTypes, upload.EncodableTypes()); len(unsupported) > 0 {
		return fmt.Errorf("ALLOWED_FILE_TYPES contains types thumbnails cannot be produced for: %v", unsupported)
	}
	if cfg.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0")
	}
	if cfg.Upload.ThumbnailSize <= 0 {
		return fmt.Errorf("THUMBNAIL_SIZE must be > 0")
	}
	if cfg.SweepInterval < 0 || cfg.SweepGrace < 0 {
		return fmt.Errorf("SWEEP_INTERVAL and SWEEP_GRACE must not be negative")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if lo.Contains(cfg.CORSOrigins, "*") {
			return fmt.Errorf("in prod/release CORS_ORIGIN must list explicit origins")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", envName(key), value, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	items := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
	return lo.Uniq(lo.Compact(items))
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
