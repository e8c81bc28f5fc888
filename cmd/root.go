package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/modkit/internal/config"
	"github.com/zjrosen/modkit/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const defaultConfigPath = ".modkit/config.yaml"

var (
	version     = "dev"
	cfgFile     string
	debugFlag   bool
	profileMode string
	cfg         config.Config

	stopProfile func()
	stopLog     func()
)

var rootCmd = &cobra.Command{
	Use:   "modkit",
	Short: "Discover, compose and run modules and submodules",
	Long: `modkit discovers component declarations from the built-in catalog and
from YAML or HCL manifests, builds a construction plan, and drives every
module and submodule through construct, attach, initialize and cleanup.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .modkit/config.yaml or ~/.config/modkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also MODKIT_DEBUG=1)")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "",
		"write a profile to the working directory: cpu, mem or trace")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("root", defaults.Root)
	viper.SetDefault("builtin", defaults.Builtin)
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("flags", defaults.Flags)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .modkit/config.yaml (current directory)
		// 2. ~/.config/modkit/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "modkit"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .modkit/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
				viper.SetConfigFile(defaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
}

// setup starts the debug log and the profiler.
func setup(cmd *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("MODKIT_DEBUG") != "" {
		logPath := cfg.Log.Path
		if logPath == "" {
			logPath = os.Getenv("MODKIT_LOG")
		}
		if logPath == "" {
			logPath = "debug.log"
		}
		// The inspector owns the terminal, so stray std log output from
		// bubbletea goes to the same file.
		initLog := log.Init
		if cmd.Name() == "run" && runInspect {
			initLog = func(path string) (func(), error) { return log.InitWithTeaLog(path, "modkit") }
		}
		cleanup, err := initLog(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		stopLog = cleanup
		if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
			log.SetMinLevel(level)
		}
		log.Info(log.CatConfig, "modkit starting", "version", version, "config", viper.ConfigFileUsed())
	}

	p, err := profileOption(profileMode)
	if err != nil {
		return err
	}
	if p != nil {
		stopProfile = profile.Start(p, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if stopProfile != nil {
		stopProfile()
		stopProfile = nil
	}
	if stopLog != nil {
		stopLog()
		stopLog = nil
	}
	return nil
}

// profileOption maps a --profile value to a pkg/profile mode.
func profileOption(mode string) (func(*profile.Profile), error) {
	switch mode {
	case "":
		return nil, nil
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	default:
		return nil, fmt.Errorf("unknown profile mode %q (want cpu, mem or trace)", mode)
	}
}

// configPath is where config edits are written.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return defaultConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
