package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Dosada05/club-scoring/models"
)

type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Scoring
	DefaultRating    float64
	StrictSetRules   bool
	Points           models.PointsSystem
	RatingMultiplier float64

	CORSAllowedOrigins []string

	// Snapshot bucket; publishing is disabled while any of these is empty.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if cfg.DefaultRating, err = envFloat("DEFAULT_RATING", 1000); err != nil {
		return nil, err
	}
	if cfg.DefaultRating <= 0 {
		return nil, fmt.Errorf("DEFAULT_RATING must be positive, got %g", cfg.DefaultRating)
	}
	if cfg.RatingMultiplier, err = envFloat("RATING_MULTIPLIER", 1); err != nil {
		return nil, err
	}
	if cfg.RatingMultiplier <= 0 {
		return nil, fmt.Errorf("RATING_MULTIPLIER must be positive, got %g", cfg.RatingMultiplier)
	}
	if cfg.StrictSetRules, err = envBool("STRICT_SET_RULES", true); err != nil {
		return nil, err
	}

	def := models.DefaultPointsSystem
	if cfg.Points.Win, err = envInt("POINTS_WIN", def.Win); err != nil {
		return nil, err
	}
	if cfg.Points.Draw, err = envInt("POINTS_DRAW", def.Draw); err != nil {
		return nil, err
	}
	if cfg.Points.Loss, err = envInt("POINTS_LOSS", def.Loss); err != nil {
		return nil, err
	}
	if cfg.Points.Win < cfg.Points.Draw || cfg.Points.Draw < cfg.Points.Loss {
		return nil, fmt.Errorf("points must satisfy win >= draw >= loss, got %d/%d/%d",
			cfg.Points.Win, cfg.Points.Draw, cfg.Points.Loss)
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func envFloat(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
