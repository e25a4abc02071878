package config

import "testing"

func TestFromEnvRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "s")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without MONGODB_URI")
	}
}

func TestFromEnvRequiresJWTMaterial(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_KEYS", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without JWT_SECRET or JWT_KEYS")
	}
}

func TestFromEnvSingleSecret(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "hunter2")
	t.Setenv("JWT_KEYS", "")
	t.Setenv("PORT", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %s, want :8080", cfg.Addr)
	}
	if cfg.JWTKeys["default"] != "hunter2" || cfg.JWTActiveKid != "default" {
		t.Fatalf("single secret not mapped: %+v", cfg)
	}
}

func TestFromEnvParsesKeyMap(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_KEYS", "k1:secret-one,k2:secret-two")
	t.Setenv("JWT_ACTIVE_KID", "k2")
	t.Setenv("RATE_LIMIT_RPM", "30")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.JWTKeys["k1"] != "secret-one" || cfg.JWTKeys["k2"] != "secret-two" {
		t.Fatalf("keys not parsed: %+v", cfg.JWTKeys)
	}
	if cfg.JWTActiveKid != "k2" {
		t.Fatalf("active kid = %s, want k2", cfg.JWTActiveKid)
	}
	if cfg.RateLimitRPM != 30 {
		t.Fatalf("RateLimitRPM = %d, want 30", cfg.RateLimitRPM)
	}
}

func TestFromEnvRejectsMalformedKeys(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_KEYS", "not-a-pair")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for malformed JWT_KEYS")
	}
}
