package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-grid-lab/internal/config"
	"trade-grid-lab/internal/logging"
)

// globalFlags are bound to the root command and override config values
// only when set explicitly.
type globalFlags struct {
	configPath    string
	envFile       string
	storage       string
	postgresDSN   string
	clickhouseDSN string
	redisAddr     string
	logLevel      string
	logFormat     string
}

// cli carries state shared by subcommands after PersistentPreRunE.
type cli struct {
	flags  globalFlags
	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "tradelab",
		Short:         "Trade journal and stop-loss/target grid analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "path to YAML config file")
	pf.StringVar(&c.flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVar(&c.flags.storage, "storage", "", "storage backend: memory or postgres")
	pf.StringVar(&c.flags.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	pf.StringVar(&c.flags.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse connection string")
	pf.StringVar(&c.flags.redisAddr, "redis-addr", "", "Redis address for the analysis cache (empty disables)")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.flags.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newServeCmd(c),
		newAnalyzeCmd(c),
		newRecordCmd(c),
		newMarketsCmd(c),
		newReportCmd(c),
		newMigrateCmd(c),
	)
	return root
}

// setup loads configuration, applies explicit flags and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath, c.flags.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("storage", &cfg.Storage.Backend, c.flags.storage)
	set("postgres-dsn", &cfg.Storage.PostgresDSN, c.flags.postgresDSN)
	set("clickhouse-dsn", &cfg.Storage.ClickhouseDSN, c.flags.clickhouseDSN)
	set("log-level", &cfg.Log.Level, c.flags.logLevel)
	set("log-format", &cfg.Log.Format, c.flags.logFormat)
	if flags.Changed("redis-addr") {
		cfg.Cache.RedisAddr = c.flags.redisAddr
		cfg.Cache.Enabled = c.flags.redisAddr != ""
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}
