package main

import (
	"context"
	"fmt"
	"log"

	corecmd "github.com/m3rciful/mydotainfo/core/cmd"
	"github.com/m3rciful/mydotainfo/internal/app"
	"github.com/m3rciful/mydotainfo/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			a, err := app.New(cfg)
			if err != nil {
				return nil, err
			}
			if err := a.Bootstrap(ctx); err != nil {
				return nil, err
			}
			return a, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
