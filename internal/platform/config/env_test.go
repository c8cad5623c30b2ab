package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int    `env:"NOTEKEEP_TEST_PORT" envDefault:"123"`
	Name string `env:"NOTEKEEP_TEST_NAME" envDefault:"notes"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("NOTEKEEP_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithLookupUsesInjectedValues(t *testing.T) {
	t.Setenv("NOTEKEEP_TEST_NAME", "from-process")
	lookup := func(key string) (string, bool) {
		if key == "NOTEKEEP_TEST_PORT" {
			return "9000", true
		}
		return "", false
	}

	var cfg envTestConfig
	if err := ParseEnvWithLookup(&cfg, lookup); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected injected port 9000, got %d", cfg.Port)
	}
	if cfg.Name != "notes" {
		t.Fatalf("expected default name, process env must be ignored; got %q", cfg.Name)
	}
}
