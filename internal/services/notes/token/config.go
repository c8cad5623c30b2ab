package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/notekeep/internal/platform/config"
)

// DefaultTTL is how long an issued token stays valid when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// DefaultIssuer is the iss claim stamped on issued tokens.
const DefaultIssuer = "notekeep"

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Secret string `env:"NOTEKEEP_JWT_SECRET"`
	TTL    string `env:"NOTEKEEP_JWT_TTL" envDefault:"1d"`
	Issuer string `env:"NOTEKEEP_JWT_ISSUER" envDefault:"notekeep"`
}

// Config defines how tokens are signed and verified.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// LoadConfigFromEnv reads token signing configuration. A missing secret is an
// error; callers treat it as fatal at startup. lookup may be nil to read the
// process environment.
func LoadConfigFromEnv(lookup func(string) (string, bool), now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := config.ParseEnvWithLookup(&raw, lookup); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("NOTEKEEP_JWT_SECRET is required")
	}
	ttl, err := ParseTTL(raw.TTL)
	if err != nil {
		return Config{}, fmt.Errorf("NOTEKEEP_JWT_TTL: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Secret: []byte(secret),
		TTL:    ttl,
		Issuer: issuer,
		Now:    now,
	}, nil
}

// ParseTTL parses a token lifetime. It accepts Go durations ("12h", "90m"),
// whole days ("1d", "7d"), and a bare integer number of seconds ("3600").
// An empty value yields DefaultTTL.
func ParseTTL(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultTTL, nil
	}
	var ttl time.Duration
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", value)
		}
		ttl = time.Duration(n) * 24 * time.Hour
	} else if seconds, err := strconv.Atoi(value); err == nil {
		ttl = time.Duration(seconds) * time.Second
	} else {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		ttl = parsed
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive, got %q", value)
	}
	return ttl, nil
}
