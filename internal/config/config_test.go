// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 10*time.Second, cfg.Wait.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Wait.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Wait.ShortTimeout)
	assert.Equal(t, 1.0, cfg.Wait.SettleScale)
	assert.Equal(t, 3, cfg.Wait.MaxAttempts)
	assert.Equal(t, "Quality Assurance", cfg.Scenario.Department)
	assert.Equal(t, "Istanbul, Turkiye", cfg.Scenario.Location)
	assert.Equal(t, "lever.co", cfg.Scenario.ApplicationHost)
	assert.True(t, cfg.Scenario.StrictCards)
	assert.Equal(t, "color", cfg.Scenario.Probe.Kind)
	assert.Equal(t, 1, cfg.Runner.Parallel)
	assert.Len(t, cfg.Locators, len(DefaultLocators()))

	require.NoError(t, cfg.Validate())
}

func TestLocatorSet(t *testing.T) {
	set, err := NewDefaultConfig().LocatorSet()
	require.NoError(t, err)

	assert.Equal(t, locator.LinkText("Company"), set["company_menu"])
	assert.Equal(t, locator.ClassName("position-list-item"), set["job_cards"])
	assert.True(t, set["view_role"].Relative())
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero timeout", func(c *Config) { c.Wait.Timeout = 0 }, "wait.timeout must be a positive duration"},
		{"poll longer than timeout", func(c *Config) { c.Wait.PollInterval = time.Minute }, "wait.poll_interval must not exceed wait.timeout"},
		{"negative settle scale", func(c *Config) { c.Wait.SettleScale = -1 }, "wait.settle_scale must not be negative"},
		{"no attempts", func(c *Config) { c.Wait.MaxAttempts = 0 }, "wait.max_attempts must be at least 1"},
		{"no parallelism", func(c *Config) { c.Runner.Parallel = 0 }, "runner.parallel must be a positive integer"},
		{"unknown probe", func(c *Config) { c.Scenario.Probe.Kind = "opacity" }, `scenario.probe.kind "opacity"`},
		{"attribute probe without attribute", func(c *Config) { c.Scenario.Probe.Kind = "attribute" }, "scenario.probe.attribute is required"},
		{"bad locator", func(c *Config) {
			c.Locators = map[string]LocatorConfig{"job_cards": {Strategy: "tag", Value: "li"}}
		}, "locators.job_cards"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
wait:
  timeout: 4s
  poll_interval: 100ms
scenario:
  location: "Berlin, Germany"
  probe:
    kind: attribute
    attribute: aria-disabled
locators:
  job_cards:
    strategy: css
    value: "div.job"
`)
		require.NoError(t, v.ReadConfig(bytes.NewReader(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 4*time.Second, cfg.Wait.Timeout)
		assert.Equal(t, "Berlin, Germany", cfg.Scenario.Location)
		assert.Equal(t, "attribute", cfg.Scenario.Probe.Kind)

		set, err := cfg.LocatorSet()
		require.NoError(t, err)
		assert.Equal(t, locator.CSS("div.job"), set["job_cards"])
		assert.Equal(t, locator.LinkText("Company"), set["company_menu"], "untouched locators keep their defaults")
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("JOBFLOW_SCENARIO_DEPARTMENT", "Engineering")
		v := viper.New()
		SetDefaults(v)
		BindEnv(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "Engineering", cfg.Scenario.Department)
	})

	t.Run("home directory expansion", func(t *testing.T) {
		t.Setenv("HOME", "/home/tester")
		homedir.DisableCache = true
		t.Cleanup(func() { homedir.DisableCache = false })
		v := viper.New()
		SetDefaults(v)
		v.Set("artifacts.dir", "~/jobflow/shots")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "/home/tester/jobflow/shots", cfg.Artifacts.Dir)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("runner.parallel", 0)

		_, err := NewConfigFromViper(v)
		assert.ErrorContains(t, err, "invalid configuration")
	})
}
