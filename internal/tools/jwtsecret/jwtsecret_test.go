package jwtsecret

import (
	"bytes"
	"encoding/base64"
	"flag"
	"fmt"
	"strings"
	"testing"
)

const prefix = "NOTEKEEP_JWT_SECRET="

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("jwtsecret", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Bytes != 48 {
		t.Fatalf("expected default bytes 48, got %d", cfg.Bytes)
	}
}

func TestParseConfigOverride(t *testing.T) {
	fs := flag.NewFlagSet("jwtsecret", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-bytes", "64"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Bytes != 64 {
		t.Fatalf("expected bytes 64, got %d", cfg.Bytes)
	}
}

func TestParseConfigBadArgs(t *testing.T) {
	fs := flag.NewFlagSet("jwtsecret", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if _, err := ParseConfig(fs, []string{"-invalid"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRunRejectsShortSecrets(t *testing.T) {
	if err := Run(Config{Bytes: MinBytes - 1}, &bytes.Buffer{}, bytes.NewReader(make([]byte, 64))); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestRunWritesBase64URL(t *testing.T) {
	raw := bytes.Repeat([]byte{0xfb, 0xff}, MinBytes/2)
	buf := &bytes.Buffer{}
	if err := Run(Config{Bytes: MinBytes}, buf, bytes.NewReader(raw)); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	want := prefix + base64.RawURLEncoding.EncodeToString(raw)
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if strings.ContainsAny(strings.TrimPrefix(got, prefix), "+/=") {
		t.Fatalf("expected url-safe unpadded output, got %q", got)
	}
}

func TestRunDefaultReader(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Run(Config{Bytes: MinBytes}, buf, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("expected env prefix, got %q", got)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(got, prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != MinBytes {
		t.Fatalf("expected %d bytes, got %d", MinBytes, len(decoded))
	}
}

func TestRunNilOutput(t *testing.T) {
	if err := Run(Config{Bytes: MinBytes}, nil, nil); err == nil {
		t.Fatal("expected error for nil output")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, fmt.Errorf("read error") }

func TestRunReaderError(t *testing.T) {
	if err := Run(Config{Bytes: MinBytes}, &bytes.Buffer{}, errReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}
}
