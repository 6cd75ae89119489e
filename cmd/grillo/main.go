package main

import (
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/grillo/cmd/grillo/cmds"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var rootCmd = &cobra.Command{
	Use:   "grillo",
	Short: "grillo keeps multi-turn conversations with LLM chat backends",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		initLogger()
	},
	SilenceUsage: true,
}

func initLogger() {
	logLevel := viper.GetString("log-level")
	verbose := viper.GetBool("verbose")
	if verbose && logLevel != "trace" {
		logLevel = "debug"
	}

	err := InitLogger(&logConfig{
		Level:      logLevel,
		LogFile:    viper.GetString("log-file"),
		LogFormat:  viper.GetString("log-format"),
		WithCaller: viper.GetBool("with-caller"),
	})
	cobra.CheckErr(err)
}

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

func initConfig(rootCmd *cobra.Command, configPath string) error {
	viper.SetEnvPrefix("grillo")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.grillo")
		viper.AddConfigPath("/etc/grillo")

		xdgConfigPath, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(xdgConfigPath + "/grillo")
		}
	}

	// a missing config file is fine, everything has a default
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err := viper.BindPFlags(rootCmd.PersistentFlags())
	if err != nil {
		return err
	}

	// --verbose is not parsed yet, this only applies the config file settings
	initLogger()

	log.Debug().
		Str("config", viper.ConfigFileUsed()).
		Msg("Loaded configuration")

	return nil
}

// InitLogger replaces the global logger. Logs go to stderr, as text on a terminal and
// as json otherwise, and are copied to a rotated file when LogFile is set.
func InitLogger(config *logConfig) error {
	levelName := config.Level
	if levelName == "" {
		levelName = zerolog.WarnLevel.String()
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", config.Level)
	}
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(newLogWriter(config)).With().Timestamp()
	if config.WithCaller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	return nil
}

func newLogWriter(config *logConfig) io.Writer {
	format := config.LogFormat
	if format == "" {
		format = "json"
		if isatty.IsTerminal(os.Stderr.Fd()) {
			format = "text"
		}
	}

	var stderr io.Writer = os.Stderr
	if format == "text" {
		stderr = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	if config.LogFile == "" {
		return stderr
	}

	rotated := &lumberjack.Logger{
		Filename:   config.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	return zerolog.MultiLevelWriter(stderr, zerolog.ConsoleWriter{Out: rotated, NoColor: true})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// logging flags
	rootCmd.PersistentFlags().Bool("with-caller", false, "Log caller")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json, text), text when stderr is a terminal")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default: stderr)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")

	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.grillo/config.yaml)")
	cmds.AddSettingsFlags(rootCmd.PersistentFlags())

	// parse the flags one time just to catch --config
	configFile := ""
	for idx, arg := range os.Args {
		if arg == "--config" && len(os.Args) > idx+1 {
			configFile = os.Args[idx+1]
		} else if strings.HasPrefix(arg, "--config=") {
			configFile = strings.TrimPrefix(arg, "--config=")
		}
	}

	err := initConfig(rootCmd, configFile)
	if err != nil {
		panic(err)
	}

	cmds.RegisterCommands(rootCmd)
}
