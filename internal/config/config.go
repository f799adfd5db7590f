// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig             `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig            `mapstructure:"browser" yaml:"browser"`
	Wait      WaitConfig               `mapstructure:"wait" yaml:"wait"`
	Scenario  ScenarioConfig           `mapstructure:"scenario" yaml:"scenario"`
	Locators  map[string]LocatorConfig `mapstructure:"locators" yaml:"locators"`
	Artifacts ArtifactsConfig          `mapstructure:"artifacts" yaml:"artifacts"`
	Runner    RunnerConfig             `mapstructure:"runner" yaml:"runner"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chromium process and its tabs.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath      string        `mapstructure:"exec_path" yaml:"exec_path"`
	WindowWidth   int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height" yaml:"window_height"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// WaitConfig is the shared baseline every wait call site falls back to.
type WaitConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	ShortTimeout time.Duration `mapstructure:"short_timeout" yaml:"short_timeout"`
	// SettleScale multiplies every named settle delay. 0 disables them.
	SettleScale float64 `mapstructure:"settle_scale" yaml:"settle_scale"`
	MaxAttempts int     `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// ScenarioConfig carries the business inputs of the careers scenario.
type ScenarioConfig struct {
	Name            string `mapstructure:"name" yaml:"name"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	CareersURL      string `mapstructure:"careers_url" yaml:"careers_url"`
	Department      string `mapstructure:"department" yaml:"department"`
	Location        string `mapstructure:"location" yaml:"location"`
	LocationMatch   string `mapstructure:"location_match" yaml:"location_match"`
	ApplicationHost string `mapstructure:"application_host" yaml:"application_host"`
	// OptionSentinel is the option count a dropdown must exceed before it is
	// considered populated.
	OptionSentinel int `mapstructure:"option_sentinel" yaml:"option_sentinel"`
	// StrictCards turns card validation failures into a fatal step outcome.
	StrictCards bool        `mapstructure:"strict_cards" yaml:"strict_cards"`
	Probe       ProbeConfig `mapstructure:"probe" yaml:"probe"`
}

// ProbeConfig selects how a job card is judged interactive after hover.
type ProbeConfig struct {
	// Kind is one of "color", "attribute" or "class".
	Kind     string `mapstructure:"kind" yaml:"kind"`
	Property string `mapstructure:"property" yaml:"property"`
	Resting  string `mapstructure:"resting" yaml:"resting"`
	// Attribute and Inactive drive the attribute probe, Class the class probe.
	Attribute string `mapstructure:"attribute" yaml:"attribute"`
	Inactive  string `mapstructure:"inactive" yaml:"inactive"`
	Class     string `mapstructure:"class" yaml:"class"`
}

// LocatorConfig is the serialized form of a locator.Locator.
type LocatorConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	Value    string `mapstructure:"value" yaml:"value"`
}

// ArtifactsConfig controls what the runner persists.
type ArtifactsConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir"`
	OnFailure  bool   `mapstructure:"on_failure" yaml:"on_failure"`
	ReportFile string `mapstructure:"report_file" yaml:"report_file"`
}

// RunnerConfig holds settings populated mostly from CLI flags.
type RunnerConfig struct {
	// Parallel is the number of independent sessions running the scenario.
	Parallel int           `mapstructure:"parallel" yaml:"parallel"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "jobflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.args", []string{"--disable-notifications"})
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Wait --
	v.SetDefault("wait.timeout", "10s")
	v.SetDefault("wait.poll_interval", "250ms")
	v.SetDefault("wait.short_timeout", "3s")
	v.SetDefault("wait.settle_scale", 1.0)
	v.SetDefault("wait.max_attempts", 3)

	// -- Scenario --
	v.SetDefault("scenario.name", "insider_job_filter")
	v.SetDefault("scenario.base_url", "https://useinsider.com/")
	v.SetDefault("scenario.careers_url", "https://useinsider.com/careers/quality-assurance/")
	v.SetDefault("scenario.department", "Quality Assurance")
	v.SetDefault("scenario.location", "Istanbul, Turkiye")
	v.SetDefault("scenario.location_match", "Istanbul")
	v.SetDefault("scenario.application_host", "lever.co")
	v.SetDefault("scenario.option_sentinel", 1)
	v.SetDefault("scenario.strict_cards", true)
	v.SetDefault("scenario.probe.kind", "color")
	v.SetDefault("scenario.probe.property", "color")
	v.SetDefault("scenario.probe.resting", "#000000")
	v.SetDefault("scenario.probe.inactive", "true")

	// -- Locators --
	for name, l := range DefaultLocators() {
		v.SetDefault("locators."+name+".strategy", l.Strategy)
		v.SetDefault("locators."+name+".value", l.Value)
	}

	// -- Artifacts --
	v.SetDefault("artifacts.dir", "screenshots")
	v.SetDefault("artifacts.on_failure", true)
	v.SetDefault("artifacts.report_file", "")

	// -- Runner --
	v.SetDefault("runner.parallel", 1)
	v.SetDefault("runner.timeout", "5m")
}

// DefaultLocators returns the locator table for the useinsider.com careers pages.
func DefaultLocators() map[string]LocatorConfig {
	return map[string]LocatorConfig{
		"cookie_accept":       {Strategy: "id", Value: "wt-cli-accept-btn"},
		"company_menu":        {Strategy: "link_text", Value: "Company"},
		"careers_menu":        {Strategy: "link_text", Value: "Careers"},
		"teams_block":         {Strategy: "xpath", Value: `//a[text()="See all teams"]`},
		"locations_block":     {Strategy: "id", Value: "career-our-location"},
		"life_block":          {Strategy: "xpath", Value: "//h2[text()='Life at Insider']"},
		"see_all_jobs":        {Strategy: "link_text", Value: "See all QA jobs"},
		"location_dropdown":   {Strategy: "css", Value: "span#select2-filter-by-location-container"},
		"department_dropdown": {Strategy: "css", Value: "span#select2-filter-by-department-container"},
		"location_options":    {Strategy: "css", Value: "ul.select2-results__options li.select2-results__option"},
		"job_cards":           {Strategy: "class_name", Value: "position-list-item"},
		"position_title":      {Strategy: "class_name", Value: "position-title"},
		"position_department": {Strategy: "class_name", Value: "position-department"},
		"position_location":   {Strategy: "class_name", Value: "position-location"},
		"view_role":           {Strategy: "xpath", Value: ".//a[contains(text(), 'View Role')]"},
	}
}

// EnvPrefix namespaces environment overrides, e.g. JOBFLOW_WAIT_TIMEOUT.
const EnvPrefix = "JOBFLOW"

// BindEnv lets environment variables override any key that has a default.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in filesystem settings.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Artifacts.Dir, &c.Artifacts.ReportFile, &c.Logger.LogFile, &c.Browser.ExecPath} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	var errs []error
	if c.Wait.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("wait.timeout must be a positive duration"))
	}
	if c.Wait.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("wait.poll_interval must be a positive duration"))
	}
	if c.Wait.PollInterval > c.Wait.Timeout {
		errs = append(errs, fmt.Errorf("wait.poll_interval must not exceed wait.timeout"))
	}
	if c.Wait.ShortTimeout <= 0 {
		errs = append(errs, fmt.Errorf("wait.short_timeout must be a positive duration"))
	}
	if c.Wait.SettleScale < 0 {
		errs = append(errs, fmt.Errorf("wait.settle_scale must not be negative"))
	}
	if c.Wait.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("wait.max_attempts must be at least 1"))
	}
	if c.Runner.Parallel < 1 {
		errs = append(errs, fmt.Errorf("runner.parallel must be a positive integer"))
	}
	if c.Scenario.BaseURL == "" || c.Scenario.CareersURL == "" {
		errs = append(errs, fmt.Errorf("scenario.base_url and scenario.careers_url are required"))
	}
	switch strings.ToLower(c.Scenario.Probe.Kind) {
	case "color":
		if c.Scenario.Probe.Property == "" {
			errs = append(errs, fmt.Errorf("scenario.probe.property is required for the color probe"))
		}
	case "attribute":
		if c.Scenario.Probe.Attribute == "" {
			errs = append(errs, fmt.Errorf("scenario.probe.attribute is required for the attribute probe"))
		}
	case "class":
		if c.Scenario.Probe.Class == "" {
			errs = append(errs, fmt.Errorf("scenario.probe.class is required for the class probe"))
		}
	default:
		errs = append(errs, fmt.Errorf("scenario.probe.kind %q is not one of color, attribute, class", c.Scenario.Probe.Kind))
	}
	if _, err := c.LocatorSet(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LocatorSet converts the configured locator table.
func (c *Config) LocatorSet() (locator.Set, error) {
	set := make(locator.Set, len(c.Locators))
	var errs []error
	for name, lc := range c.Locators {
		l, err := locator.New(lc.Strategy, lc.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("locators.%s: %w", name, err))
			continue
		}
		set[name] = l
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}
