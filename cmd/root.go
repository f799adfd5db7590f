// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// flagKeys maps command line flags onto the configuration keys they override.
var flagKeys = map[string]string{
	"log-level": "logger.level",
	"headless":  "browser.headless",
	"parallel":  "runner.parallel",
	"timeout":   "runner.timeout",
	"artifacts": "artifacts.dir",
	"report":    "artifacts.report_file",
}

// NewRootCommand builds a fresh command tree. Each call is independent, so
// tests and repeated invocations never share flag state.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "jobflow",
		Short:         "jobflow drives a real browser through a careers-site job search and checks every step.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.Initialize(cfg.Logger, consoleSink(cmd))
			observability.GetLogger().Debug("Starting jobflow.", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newLocatorsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// initializeConfig reads the config file, environment variables and the
// flags of the command being executed, in increasing priority.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	config.BindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	return bindErr
}

// consoleSink sends console logs to the command's error stream so its output
// stream carries only results.
func consoleSink(cmd *cobra.Command) zapcore.WriteSyncer {
	return zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr()))
}

// getConfigFromContext returns the configuration loaded by the root command.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration was not loaded")
	}
	return cfg, nil
}

// Execute runs the command tree with a signal-aware context.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Aborted by signal.")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	observability.Sync()
	return err
}
