package main

import (
	"context"
	"fmt"

	"github.com/akulikov/go-secret-vault/internal/client"
	"github.com/akulikov/go-secret-vault/internal/config"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/internal/service"
	"github.com/akulikov/go-secret-vault/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("vaultkeeper")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	repos, err := store.NewRepositories(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create storage")
	}
	defer func() {
		if closeErr := repos.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("close storage")
		}
	}()

	services := service.NewServices(repos, cfg, log)

	app := client.NewApp(services, cfg, log)
	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("vault run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
