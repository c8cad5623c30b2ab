package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	notescmd "github.com/louisbranch/notekeep/internal/cmd/notes"
)

func main() {
	log.SetPrefix("[NOTES] ")
	cfg, err := notescmd.ParseConfig(flag.CommandLine, os.Args[1:], func(key string) (string, bool) {
		value, ok := os.LookupEnv(key)
		return value, ok
	})
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := notescmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
