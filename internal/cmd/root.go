package cmd

import (
	"errors"
	"os"

	"github.com/atikulmunna/logpage/internal/config"
	"github.com/atikulmunna/logpage/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     config.Config
	logger  = zap.NewNop()
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logpage",
	Short: "logpage — CVS log excerpts for the development page",
	Long: `logpage renders the recent-changes list of a CVS log page into a
single-line HTML fragment with a link to the online CVS browser.

The fragment can be printed for a server-side include, served over HTTP
together with a minimal host page, or published into a directory whenever
the log page changes.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logpage.yaml or ./.logpage.yaml)")
	flags.StringP("source", "s", "", "log page to render (default: cvs/index.html)")
	flags.StringP("output", "o", "", "output format: raw, text, json")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console, json")

	cobra.CheckErr(viper.BindPFlag("source", flags.Lookup("source")))
	cobra.CheckErr(viper.BindPFlag("output", flags.Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.format", flags.Lookup("log-format")))
}

// setup reads the config file, decodes the settings and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".logpage")
		viper.SetConfigType("yaml")
	}
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = c

	l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger = l
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", zap.String("file", used))
	}
	return nil
}
