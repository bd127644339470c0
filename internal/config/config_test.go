package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pelada/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.AutosaveDebounce(), convey.ShouldEqual, time.Second)
			convey.So(cfg.BackendTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.StatusStore, convey.ShouldEqual, config.StoreSQLite)
			convey.So(cfg.AllowedOrigins(), convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"zero debounce":     func(c *config.Config) { c.AutosaveDebounceMS = 0 },
			"relative url":      func(c *config.Config) { c.BackendURL = "/api" },
			"unknown store":     func(c *config.Config) { c.StatusStore = "redis" },
			"sqlite without db": func(c *config.Config) { c.StatusStorePath = "" },
			"unknown format":    func(c *config.Config) { c.LogFormat = "xml" },
		}

		for name, mutate := range cases {
			cfg := config.New(context.Background())
			mutate(cfg)

			convey.Convey("Then validation rejects "+name, func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a comma-separated origin list", t, func() {
		cfg := config.New(context.Background())
		cfg.CORSAllowedOrigins = "https://a.example, https://b.example,,"

		convey.Convey("Then it is split and trimmed", func() {
			convey.So(cfg.AllowedOrigins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})
}
