package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/savant/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Year, convey.ShouldEqual, 2024)
				convey.So(cfg.TimeoutSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.ReservedPrefix, convey.ShouldEqual, "savant")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SAVANT_YEAR", "2023")
			_ = os.Setenv("SAVANT_BASE_DIR", "/data/savant")
			_ = os.Setenv("SAVANT_RETRIES", "3")
			_ = os.Setenv("SAVANT_REQUIRE_ALL_PERIODS", "true")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Year, convey.ShouldEqual, 2023)
				convey.So(cfg.BaseDir, convey.ShouldEqual, "/data/savant")
				convey.So(cfg.Retries, convey.ShouldEqual, 3)
				convey.So(cfg.RequireAllPeriods, convey.ShouldBeTrue)
				convey.So(cfg.InspectPath(), convey.ShouldEqual, filepath.Join("/data/savant", "2023", "april_2023.csv"))
			})
		})

		convey.Convey("When loading config with a YAML file and env vars", func() {
			tmpFile := createTempConfigFile(t, `
# season settings
year: 2022
timeout_seconds: 30
inspect_column: release_speed
metrics_file: /tmp/savant.prom
`)
			_ = os.Setenv("SAVANT_CONFIG", tmpFile)
			_ = os.Setenv("SAVANT_TIMEOUT_SECONDS", "60")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Year, convey.ShouldEqual, 2022)
				convey.So(cfg.TimeoutSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.InspectColumn, convey.ShouldEqual, "release_speed")
				convey.So(cfg.MetricsFile, convey.ShouldEqual, "/tmp/savant.prom")
				convey.So(cfg.BaseDir, convey.ShouldEqual, "files")
			})
		})

		convey.Convey("When loading an explicit file", func() {
			tmpFile := createTempConfigFile(t, "year: 2021\n")

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should use it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Year, convey.ShouldEqual, 2021)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.LoadFile(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SAVANT_YEAR", "not_a_year")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("SAVANT_TIMEOUT_SECONDS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "SAVANT_") {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "savant.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
