package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine"
)

type serveFlags struct {
	configFile   string
	host         string
	port         int
	dynamicPort  bool
	mappings     []string
	rootDir      string
	drainTimeout time.Duration
	journalSize  int
	disableAdmin bool
}

func newServeCommand() *cobra.Command {
	opts := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the stub server",
		Long: `Start the stub server and block until SIGINT or SIGTERM.

Mapping files named with --mappings (doublestar globs, ** allowed) are loaded
at startup. With --dynamic-port the OS chooses a free port; the bound address
is printed on stdout.`,
		Example: `  # Serve mappings from a directory tree on port 8080
  stubd serve --port 8080 --mappings 'mappings/**/*.json'

  # Let the OS pick the port and log as JSON
  stubd serve --dynamic-port --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServerConfig(cmd, opts)
			if err != nil {
				return err
			}

			log := newLogger(cmd, cfg.LogLevel, cfg.LogFormat)
			srv := engine.NewServer(cfg, engine.WithLogger(log))

			if _, err := srv.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stubd listening on %s\n", srv.BaseURL())

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info("shutting down")
			return srv.Stop()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "c", "", "Server configuration file (JSON or YAML)")
	f.StringVar(&opts.host, "host", config.DefaultHost, "Interface to bind")
	f.IntVarP(&opts.port, "port", "p", config.DefaultPort, "Port to bind")
	f.BoolVar(&opts.dynamicPort, "dynamic-port", false, "Bind a free port chosen by the OS")
	f.StringSliceVarP(&opts.mappings, "mappings", "m", nil, "Mapping file globs (repeatable)")
	f.StringVar(&opts.rootDir, "root-dir", "", "Base directory for relative mapping globs")
	f.DurationVar(&opts.drainTimeout, "drain-timeout", config.DefaultDrainTimeoutMs*time.Millisecond, "How long to wait for in-flight requests on shutdown")
	f.IntVar(&opts.journalSize, "journal-size", config.DefaultMaxJournalEntries, "Number of requests kept in the journal")
	f.BoolVar(&opts.disableAdmin, "disable-admin", false, "Disable the /__admin API")

	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveServerConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func resolveServerConfig(cmd *cobra.Command, opts *serveFlags) (*config.ServerConfiguration, error) {
	cfg := config.DefaultServerConfiguration()
	if opts.configFile != "" {
		loaded, err := config.LoadFromFile(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if cfg.RootDir == "" {
			cfg.RootDir = config.ConfigBaseDir(opts.configFile)
		}
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
		cfg.DynamicPort = false
	}
	if flags.Changed("dynamic-port") {
		cfg.DynamicPort = opts.dynamicPort
	}
	if flags.Changed("mappings") {
		cfg.Mappings = opts.mappings
	}
	if flags.Changed("root-dir") {
		cfg.RootDir = opts.rootDir
	}
	if flags.Changed("drain-timeout") {
		cfg.DrainTimeoutMs = int(opts.drainTimeout.Milliseconds())
	}
	if flags.Changed("journal-size") {
		cfg.MaxJournalEntries = opts.journalSize
	}
	if flags.Changed("disable-admin") {
		cfg.DisableAdmin = opts.disableAdmin
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(newServeCommand())
}
