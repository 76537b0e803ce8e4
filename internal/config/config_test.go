package config_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/savant/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should reproduce the default season run", func() {
			convey.So(cfg.Year, convey.ShouldEqual, 2024)
			convey.So(cfg.BaseDir, convey.ShouldEqual, "files")
			convey.So(cfg.ReservedPrefix, convey.ShouldEqual, "savant")
			convey.So(cfg.Timeout(), convey.ShouldEqual, 120*time.Second)
			convey.So(cfg.Retries, convey.ShouldEqual, 0)
			convey.So(cfg.RequireAllPeriods, convey.ShouldBeFalse)
			convey.So(cfg.InspectColumn, convey.ShouldEqual, "attack_angle")
			convey.So(cfg.InspectPath(), convey.ShouldEqual, filepath.Join("files", "2024", "april_2024.csv"))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When an inspect file is set", func() {
			cfg.InspectFile = "other.csv"
			convey.So(cfg.InspectPath(), convey.ShouldEqual, "other.csv")
		})

		convey.Convey("When the backoff is set in milliseconds", func() {
			cfg.RetryBackoffMS = 250
			convey.So(cfg.RetryBackoff(), convey.ShouldEqual, 250*time.Millisecond)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(*config.Config){
			"short year":        func(c *config.Config) { c.Year = 24 },
			"empty base dir":    func(c *config.Config) { c.BaseDir = "" },
			"empty prefix":      func(c *config.Config) { c.ReservedPrefix = "" },
			"empty source":      func(c *config.Config) { c.SourceURL = "" },
			"zero timeout":      func(c *config.Config) { c.TimeoutSeconds = 0 },
			"negative retries":  func(c *config.Config) { c.Retries = -1 },
			"negative backoff":  func(c *config.Config) { c.RetryBackoffMS = -1 },
			"unknown logformat": func(c *config.Config) { c.LogFormat = "xml" },
		}
		for name, mutate := range cases {
			convey.Convey("When the config has a "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
