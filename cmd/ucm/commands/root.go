package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/ucm/internal/catalog"
	"github.com/dyluth/ucm/internal/config"
	"github.com/dyluth/ucm/internal/logger"
	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/store"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	backend    string
	dataDir    string
	logMode    string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ucm",
		Short: "ucm - AI use case manager",
		Long: `ucm keeps a catalog of AI use cases: ideas for applying AI models, with
their prompts, examples, priority and an effort/benefit rating.

The catalog is stored in a local JSON file, a NocoDB table or Redis. When
NocoDB is selected but not configured or not reachable, ucm falls back to
the local file for the rest of the run.`,
		Version: version,
		// Prevent silent success when unknown flags are passed to root command
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceErrors:      true,
		SilenceUsage:       true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ./ucm.yml if present)")
	flags.StringVar(&opts.backend, "backend", "", "Storage backend: local, nocodb or redis")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for use-cases.json and backups")
	flags.StringVar(&opts.logMode, "log-mode", "", "Log mode: development, production or quiet")

	cmd.AddCommand(
		newInitCmd(),
		newAddCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newBackupCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
	)

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// loadConfig reads the config file and environment, then applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": configPathOrDefault(o.configPath)},
			[]string{"Check the config file and the UCM_*, NOCODB_* and REDIS_URL environment variables"},
		)
	}

	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.logMode != "" {
		cfg.LogMode = o.logMode
	}

	if err := cfg.Validate(); err != nil {
		return nil, printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{"Valid backends: local, nocodb, redis"},
		)
	}
	return cfg, nil
}

func configPathOrDefault(path string) string {
	if path == "" {
		return config.DefaultPath
	}
	return path
}

// session is an opened catalog plus the resources behind it.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	store   store.Store
	catalog *catalog.Catalog
}

// Close releases the backend connection and flushes logs.
func (s *session) Close() {
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.log.Warn("Failed to close storage backend", "error", err)
		}
	}
	s.log.Sync()
}

// openSession loads config, opens the backend and loads the catalog.
// defaultLogMode applies when neither flag nor config names one.
func (o *rootOptions) openSession(ctx context.Context, defaultLogMode string) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	mode := cfg.LogMode
	if mode == "" {
		mode = defaultLogMode
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	s, err := store.Open(cfg, log)
	if err != nil {
		log.Sync()
		return nil, printer.ErrorWithContext(
			"failed to open storage",
			err.Error(),
			map[string]string{"Backend": cfg.Backend},
			nil,
		)
	}

	sess := &session{cfg: cfg, log: log, store: s, catalog: catalog.New(s, log)}
	if err := sess.catalog.Load(ctx); err != nil {
		sess.Close()
		return nil, printer.ErrorWithContext(
			"failed to load use cases",
			err.Error(),
			map[string]string{"Backend": s.Name()},
			[]string{"Check that the storage backend is reachable"},
		)
	}
	return sess, nil
}
