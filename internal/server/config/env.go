package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/joho/godotenv"
)

const envPrefix = "BELLWETHER_"

// loadDotEnv exports the variables of path into the process environment.
// Variables already set are left alone and a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: load %s: %v", common.ErrConfiguration, path, err)
	}
	return nil
}

// parseEnv overlays BELLWETHER_* variables:
//
//	BELLWETHER_ENVIRONMENT, BELLWETHER_HTTP_ADDR, BELLWETHER_GRPC_ADDR,
//	BELLWETHER_DATABASE_DSN, BELLWETHER_SECRET_KEY, BELLWETHER_LOG_LEVEL,
//	BELLWETHER_JWT_ISSUER, BELLWETHER_JWT_SUBJECT, BELLWETHER_JWT_AUDIENCE,
//	BELLWETHER_JWT_PATH, BELLWETHER_JWT_TOKEN_NAME,
//	BELLWETHER_JWT_VALID_FOR (minutes), BELLWETHER_JWT_NOT_BEFORE_OFFSET (minutes),
//	BELLWETHER_JWT_VALIDATE_ISSUER, BELLWETHER_JWT_VALIDATE_AUDIENCE, BELLWETHER_SEED_USERNAME,
//	BELLWETHER_SEED_PASSWORD, BELLWETHER_CORS_ALLOWED_ORIGINS (comma separated)
func parseEnv(cfg *Config) error {
	envString("ENVIRONMENT", &cfg.Environment)
	envString("HTTP_ADDR", &cfg.EndpointAddrHTTP)
	envString("GRPC_ADDR", &cfg.EndpointAddrGRPC)
	envString("DATABASE_DSN", &cfg.DatabaseDSN)
	envString("SECRET_KEY", &cfg.SecretKey)
	envString("LOG_LEVEL", &cfg.LogLevel)

	envString("JWT_ISSUER", &cfg.Jwt.Issuer)
	envString("JWT_SUBJECT", &cfg.Jwt.Subject)
	envString("JWT_AUDIENCE", &cfg.Jwt.Audience)
	envString("JWT_PATH", &cfg.Jwt.Path)
	envString("JWT_TOKEN_NAME", &cfg.Jwt.TokenName)

	if err := envMinutes("JWT_VALID_FOR", &cfg.Jwt.ValidFor); err != nil {
		return err
	}
	if err := envMinutes("JWT_NOT_BEFORE_OFFSET", &cfg.Jwt.NotBeforeOffset); err != nil {
		return err
	}
	if err := envBool("JWT_VALIDATE_ISSUER", &cfg.Jwt.ValidateIssuer); err != nil {
		return err
	}
	if err := envBool("JWT_VALIDATE_AUDIENCE", &cfg.Jwt.ValidateAudience); err != nil {
		return err
	}

	envString("SEED_USERNAME", &cfg.Seed.UserName)
	envString("SEED_PASSWORD", &cfg.Seed.Password)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}

	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envMinutes(name string, dst *time.Duration) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %v", common.ErrConfiguration, envPrefix, name, err)
	}
	*dst = time.Duration(n) * time.Minute
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %v", common.ErrConfiguration, envPrefix, name, err)
	}
	*dst = b
	return nil
}
