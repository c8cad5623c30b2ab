package main

import (
	"flag"
	"os"

	"github.com/louisbranch/notekeep/internal/platform/config"
	"github.com/louisbranch/notekeep/internal/tools/jwtsecret"
)

func main() {
	cfg, err := jwtsecret.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := jwtsecret.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate secret: %v", err)
	}
}
