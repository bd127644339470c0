package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pelada/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"PELADA_CONFIG",
	"PELADA_ENV_FILE",
	"PELADA_ADDR",
	"PELADA_BACKEND_URL",
	"PELADA_BACKEND_TOKEN",
	"PELADA_AUTOSAVE_DEBOUNCE_MS",
	"PELADA_STATUS_STORE",
	"PELADA_LOG_LEVEL",
	"PELADA_BACKEND_RATE_LIMIT",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.AutosaveDebounceMS, convey.ShouldEqual, 1000)
				convey.So(cfg.StatusStore, convey.ShouldEqual, config.StoreSQLite)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PELADA_ADDR", ":8080")
			_ = os.Setenv("PELADA_AUTOSAVE_DEBOUNCE_MS", "250")
			_ = os.Setenv("PELADA_STATUS_STORE", "memory")
			_ = os.Setenv("PELADA_BACKEND_RATE_LIMIT", "2.5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.AutosaveDebounce(), convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.StatusStore, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.BackendRateLimit, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeTemp(t, "pelada.yaml", `
addr: ":9090"
backend_url: "https://results.example/api"
autosave_debounce_ms: 1500
status_store: backend
`)
			_ = os.Setenv("PELADA_CONFIG", path)
			_ = os.Setenv("PELADA_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.BackendURL, convey.ShouldEqual, "https://results.example/api")
				convey.So(cfg.AutosaveDebounceMS, convey.ShouldEqual, 1500)
				convey.So(cfg.StatusStore, convey.ShouldEqual, config.StoreBackend)
			})
		})

		convey.Convey("When a .env file is given", func() {
			path := writeTemp(t, "test.env", "PELADA_BACKEND_TOKEN=s3cret\nPELADA_LOG_LEVEL=debug\n")
			_ = os.Setenv("PELADA_ENV_FILE", path)
			_ = os.Setenv("PELADA_LOG_LEVEL", "warn")

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values load without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendToken, convey.ShouldEqual, "s3cret")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When the given .env file is missing", func() {
			_ = os.Setenv("PELADA_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file is missing", func() {
			_ = os.Setenv("PELADA_CONFIG", "/nonexistent/pelada.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env values are invalid", func() {
			_ = os.Setenv("PELADA_STATUS_STORE", "redis")

			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
