package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/dmitrijs2005/bellwether/internal/flagx"
)

// JsonConfig is the appsettings-shaped file layout. Every field is optional:
// only keys present in the file override what is already in Config, so a
// base file and an environment file can be layered.
type JsonConfig struct {
	Environment      *string          `json:"Environment"`
	SecretKey        *string          `json:"SecretKey"`
	ConnectionString *string          `json:"ConnectionString"`
	Http             *string          `json:"Http"`
	Grpc             *string          `json:"Grpc"`
	LogLevel         *string          `json:"LogLevel"`
	JwtOptions       *jsonJwtOptions  `json:"JwtOptions"`
	Password         *jsonPassword    `json:"Password"`
	Seed             *jsonSeed        `json:"Seed"`
	Cors             *jsonCorsOptions `json:"Cors"`
}

type jsonJwtOptions struct {
	Issuer           *string `json:"Issuer"`
	Subject          *string `json:"Subject"`
	Audience         *string `json:"Audience"`
	Path             *string `json:"Path"`
	TokenName        *string `json:"TokenName"`
	ValidFor         *int    `json:"ValidFor"`        // minutes
	NotBeforeOffset  *int    `json:"NotBeforeOffset"` // minutes
	ValidateIssuer   *bool   `json:"ValidateIssuer"`
	ValidateAudience *bool   `json:"ValidateAudience"`
}

type jsonPassword struct {
	Time           *uint32 `json:"Time"`
	MemoryKiB      *uint32 `json:"MemoryKiB"`
	Threads        *uint8  `json:"Threads"`
	KeyLen         *uint32 `json:"KeyLen"`
	MaxPasswordLen *int    `json:"MaxPasswordLen"`
	MaxConcurrent  *int64  `json:"MaxConcurrent"`
}

type jsonSeed struct {
	UserName *string `json:"UserName"`
	Password *string `json:"Password"`
}

type jsonCorsOptions struct {
	AllowedOrigins []string `json:"AllowedOrigins"`
}

// parseJson applies the file named by -c/-config, then the optional
// <name>.<Environment>.json next to it. The environment is taken from
// BELLWETHER_ENVIRONMENT when set, otherwise from the base file.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	if err := applyJsonFile(cfg, path, true); err != nil {
		return err
	}

	env := cfg.Environment
	if v, ok := os.LookupEnv(envPrefix + "ENVIRONMENT"); ok && v != "" {
		env = v
	}
	if env == "" {
		return nil
	}
	return applyJsonFile(cfg, environmentFile(path, env), false)
}

// environmentFile maps ("conf/appsettings.json", "Development") to
// "conf/appsettings.Development.json".
func environmentFile(path, env string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + env + ext
}

func applyJsonFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %v", common.ErrConfiguration, path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("%w: parse %s: %v", common.ErrConfiguration, path, err)
	}

	jc.applyTo(cfg)
	return nil
}

func (jc *JsonConfig) applyTo(cfg *Config) {
	setIf(&cfg.Environment, jc.Environment)
	setIf(&cfg.SecretKey, jc.SecretKey)
	setIf(&cfg.DatabaseDSN, jc.ConnectionString)
	setIf(&cfg.EndpointAddrHTTP, jc.Http)
	setIf(&cfg.EndpointAddrGRPC, jc.Grpc)
	setIf(&cfg.LogLevel, jc.LogLevel)

	if j := jc.JwtOptions; j != nil {
		setIf(&cfg.Jwt.Issuer, j.Issuer)
		setIf(&cfg.Jwt.Subject, j.Subject)
		setIf(&cfg.Jwt.Audience, j.Audience)
		setIf(&cfg.Jwt.Path, j.Path)
		setIf(&cfg.Jwt.TokenName, j.TokenName)
		setIf(&cfg.Jwt.ValidateIssuer, j.ValidateIssuer)
		setIf(&cfg.Jwt.ValidateAudience, j.ValidateAudience)
		if j.ValidFor != nil {
			cfg.Jwt.ValidFor = time.Duration(*j.ValidFor) * time.Minute
		}
		if j.NotBeforeOffset != nil {
			cfg.Jwt.NotBeforeOffset = time.Duration(*j.NotBeforeOffset) * time.Minute
		}
	}

	if p := jc.Password; p != nil {
		setIf(&cfg.Password.Time, p.Time)
		setIf(&cfg.Password.MemoryKiB, p.MemoryKiB)
		setIf(&cfg.Password.Threads, p.Threads)
		setIf(&cfg.Password.KeyLen, p.KeyLen)
		setIf(&cfg.Password.MaxPasswordLen, p.MaxPasswordLen)
		setIf(&cfg.Password.MaxConcurrent, p.MaxConcurrent)
	}

	if s := jc.Seed; s != nil {
		setIf(&cfg.Seed.UserName, s.UserName)
		setIf(&cfg.Seed.Password, s.Password)
	}

	if c := jc.Cors; c != nil && c.AllowedOrigins != nil {
		cfg.AllowedOrigins = c.AllowedOrigins
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
