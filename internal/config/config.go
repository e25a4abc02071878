// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything main needs to wire the server.
type Config struct {
	Addr     string
	MongoURI string

	// JWTKeys is a kid->secret map; JWTActiveKid selects the signing key.
	// A single JWT_SECRET populates the map under the "default" kid.
	JWTKeys      map[string]string
	JWTActiveKid string
	TokenTTL     time.Duration

	RateLimitRPM int

	TLSCert    string
	TLSKey     string
	RequireTLS bool
}

// FromEnv builds a Config from environment variables, validating the
// required ones. JWT_KEYS uses the format "kid:secret,kid2:secret2" and
// takes precedence over JWT_SECRET.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Addr:         ":" + envDefault("PORT", "8080"),
		MongoURI:     os.Getenv("MONGODB_URI"),
		JWTActiveKid: os.Getenv("JWT_ACTIVE_KID"),
		TokenTTL:     24 * time.Hour,
		RateLimitRPM: 10,
		TLSCert:      os.Getenv("TLS_CERT"),
		TLSKey:       os.Getenv("TLS_KEY"),
		RequireTLS:   os.Getenv("REQUIRE_TLS") == "true",
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGODB_URI must be set")
	}

	if keysEnv := os.Getenv("JWT_KEYS"); keysEnv != "" {
		keys, err := parseKeys(keysEnv)
		if err != nil {
			return nil, err
		}
		cfg.JWTKeys = keys
	} else if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTKeys = map[string]string{"default": secret}
		cfg.JWTActiveKid = "default"
	} else {
		return nil, errors.New("either JWT_SECRET or JWT_KEYS must be set")
	}

	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitRPM = n
		}
	}

	if cfg.RequireTLS && (cfg.TLSCert == "" || cfg.TLSKey == "") {
		return nil, errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured")
	}

	return cfg, nil
}

func parseKeys(env string) (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(env, ",") {
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid JWT_KEYS entry: %s", p)
		}
		keys[parts[0]] = parts[1]
	}
	if len(keys) == 0 {
		return nil, errors.New("JWT_KEYS is set but contains no keys")
	}
	return keys, nil
}

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
