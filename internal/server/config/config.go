// Package config handles configuration for the server component: defaults,
// a .env file, a JSON file with an environment-specific overlay,
// BELLWETHER_* environment variables and command-line flags, applied in that
// order with later sources winning.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
)

// JwtOptions mirrors the token settings of the service.
type JwtOptions struct {
	Issuer    string
	Subject   string
	Audience  string
	Path      string
	TokenName string
	ValidFor  time.Duration
	// NotBeforeOffset shifts nbf relative to the issue time.
	NotBeforeOffset time.Duration

	ValidateIssuer   bool
	ValidateAudience bool
}

// PasswordOptions are the argon2id cost parameters and hashing limits.
type PasswordOptions struct {
	Time           uint32
	MemoryKiB      uint32
	Threads        uint8
	KeyLen         uint32
	MaxPasswordLen int
	MaxConcurrent  int64
}

// SeedOptions name a user created at startup when absent.
type SeedOptions struct {
	UserName string
	Password string
}

// Config holds runtime settings for the Bellwether server.
type Config struct {
	Environment      string
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	DatabaseDSN      string
	SecretKey        string
	LogLevel         string
	AllowedOrigins   []string

	Jwt      JwtOptions
	Password PasswordOptions
	Seed     SeedOptions
}

// LoadDefaults populates Config with development defaults. SecretKey and
// DatabaseDSN are deliberately left empty and must be supplied.
func (c *Config) LoadDefaults() {
	c.Environment = "Production"
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.LogLevel = "info"
	c.AllowedOrigins = []string{"*"}

	c.Jwt = JwtOptions{
		Issuer:    "bellwether",
		Subject:   "bellwether-api",
		Audience:  "bellwether-clients",
		Path:      common.DefaultTokenPath,
		TokenName: common.AccessTokenHeaderName,
		ValidFor:  60 * time.Minute,
	}

	c.Password = PasswordOptions{
		Time:           1,
		MemoryKiB:      64 * 1024,
		Threads:        4,
		KeyLen:         32,
		MaxPasswordLen: 1024,
	}
}

// IsDevelopment reports whether the environment is named Development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "Development")
}

// Validate reports the first setting that would make the server unsafe or
// unable to start. Every error matches common.ErrConfiguration.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return fmt.Errorf("%w: secret key is required", common.ErrConfiguration)
	case len(c.SecretKey) < common.MinSecretKeyLength:
		return fmt.Errorf("%w: secret key must be at least %d bytes", common.ErrConfiguration, common.MinSecretKeyLength)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database DSN is required", common.ErrConfiguration)
	case c.EndpointAddrHTTP == "":
		return fmt.Errorf("%w: HTTP address is required", common.ErrConfiguration)
	case c.EndpointAddrGRPC == "":
		return fmt.Errorf("%w: gRPC address is required", common.ErrConfiguration)
	case c.Jwt.Issuer == "":
		return fmt.Errorf("%w: JwtOptions.Issuer is required", common.ErrConfiguration)
	case c.Jwt.Audience == "":
		return fmt.Errorf("%w: JwtOptions.Audience is required", common.ErrConfiguration)
	case c.Jwt.TokenName == "":
		return fmt.Errorf("%w: JwtOptions.TokenName is required", common.ErrConfiguration)
	case !strings.HasPrefix(c.Jwt.Path, "/"):
		return fmt.Errorf("%w: JwtOptions.Path must start with '/' (got: %q)", common.ErrConfiguration, c.Jwt.Path)
	case c.Jwt.ValidFor < 0:
		return fmt.Errorf("%w: JwtOptions.ValidFor must be >= 0", common.ErrConfiguration)
	case (c.Seed.UserName == "") != (c.Seed.Password == ""):
		return fmt.Errorf("%w: Seed.UserName and Seed.Password must be set together", common.ErrConfiguration)
	}
	return nil
}

// Load builds a Config from args (without the program name) and the
// process environment.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
