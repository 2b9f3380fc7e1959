// Package main is the entry point for crudgate, a server that generates
// REST CRUD endpoints from a resource configuration.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/artpar/crudgate/adapters/hasher"
	"github.com/artpar/crudgate/bootstrap"
	"github.com/artpar/crudgate/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "crudgate.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	hotReload := flag.Bool("hot-reload", true, "Enable hot reload of configuration")
	hashToken := flag.String("hash-token", "", "Print the bcrypt hash of a token for auth.token_hash and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crudgate %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *hashToken != "" {
		hash, err := hasher.NewBcrypt(0).Hash(*hashToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Hashing failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(hash))
		os.Exit(0)
	}

	if *validate {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration valid\n")
		fmt.Printf("  Store driver: %s\n", cfg.Store.Driver)
		fmt.Printf("  Resources: %d\n", len(cfg.Resources))
		os.Exit(0)
	}

	var app *bootstrap.App
	var err error

	if *hotReload {
		app, err = bootstrap.NewWithHotReload(*configPath)
	} else {
		var cfg *config.Config
		cfg, err = config.Load(*configPath)
		if err == nil {
			app, err = bootstrap.New(cfg)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		app.Logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
