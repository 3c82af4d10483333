package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	coretelegram "github.com/m3rciful/mydotainfo/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{}

func (app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func TestRunWiresHooks(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("MYDOTAINFO_TEST_CONFIG=from-dotenv.yaml\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MYDOTAINFO_TEST_CONFIG") })

	var loaded string
	started := false
	err := Run(Options{
		ConfigEnvVar: "MYDOTAINFO_TEST_CONFIG",
		EnvFiles:     []string{envFile, filepath.Join(dir, "missing.env")},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app{}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if opts.OnStart == nil || opts.OnStop == nil {
				t.Fatal("lifecycle hooks not wired")
			}
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loaded != "from-dotenv.yaml" {
		t.Fatalf("config path = %q, want value from .env", loaded)
	}
	if !started {
		t.Fatal("OnStart hook failed")
	}
}

func TestRunRequiresConfigPath(t *testing.T) {
	err := Run(Options{
		ConfigEnvVar: "MYDOTAINFO_UNSET_CONFIG",
		LoadConfig:   func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:    func(context.Context, ConfigCarrier) (TelegramApp, error) { return app{}, nil },
	})
	if err == nil {
		t.Fatal("expected error without a config path")
	}
}
