// Package cmd holds startup plumbing shared by notekeep binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/notekeep/internal/platform/otel"
)

// DefaultShutdownTimeout bounds the final span flush when none is configured.
const DefaultShutdownTimeout = 5 * time.Second

// ServiceNotes names the notes binary in telemetry.
const ServiceNotes = "notes"

// RunOptions controls telemetry lifetime around a run loop.
type RunOptions struct {
	// ShutdownTimeout bounds the span flush after run returns. Zero or
	// negative uses DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

func (o RunOptions) shutdownTimeout() time.Duration {
	if o.ShutdownTimeout <= 0 {
		return DefaultShutdownTimeout
	}
	return o.ShutdownTimeout
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs tracing for service, executes run, and flushes
// spans once run returns.
func RunWithTelemetry(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), options.shutdownTimeout())
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
