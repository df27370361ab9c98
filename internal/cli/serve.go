package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"repoql/internal/engine"
	"repoql/internal/rest"
	"repoql/internal/store"
)

// ServeConfig holds the resolved server configuration. Values come from
// the config file, REPOQL_-prefixed environment variables, and flags, in
// ascending precedence.
type ServeConfig struct {
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Decls    string `mapstructure:"decls"`
}

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigFile string
	Addr       string
	Database   string
	Decls      string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repositories over HTTP",
		Long: `Load declarations, register every repository against a SQLite
database, and expose them over a REST API.

Configuration is read from --config (YAML), REPOQL_* environment
variables, and flags, with flags taking precedence.

Example:
  repoql serve --db ./app.db --decls ./decls --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to config file (YAML)")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Decls, "decls", "", "path to declarations directory")

	return cmd
}

// loadServeConfig merges config file, environment, and flag values.
func loadServeConfig(opts *ServeOptions) (*ServeConfig, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("REPOQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv does not surface unknown keys to Unmarshal, so bind the
	// ones the config struct knows about.
	for _, key := range []string{"addr", "database", "decls"} {
		_ = v.BindEnv(key)
	}

	if opts.Addr != "" {
		v.Set("addr", opts.Addr)
	}
	if opts.Database != "" {
		v.Set("database", opts.Database)
	}
	if opts.Decls != "" {
		v.Set("decls", opts.Decls)
	}

	var cfg ServeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Database == "" {
		return nil, errors.New("database path is required (--db, REPOQL_DATABASE, or config file)")
	}
	if cfg.Decls == "" {
		return nil, errors.New("declarations directory is required (--decls, REPOQL_DECLS, or config file)")
	}
	return &cfg, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.Verbose)

	cfg, err := loadServeConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}

	logger.Info("loading declarations", "dir", cfg.Decls)
	decls, err := LoadDeclarations(cfg.Decls)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading declarations", err)
	}
	logger.Info("declarations loaded", "records", len(decls.Records), "repositories", len(decls.Repositories))

	logger.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	repos, err := registerAll(ctx, st, decls, logger)
	if err != nil {
		return WrapExitError(ExitFailure, "registering repositories", err)
	}

	server := rest.NewServer(repos, logger)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig.String())
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("server shutdown", "error", shutdownErr)
		}
	}()

	logger.Info("server starting", "addr", cfg.Addr, "repositories", len(repos))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d repositor%s on %s\n", len(repos), pluralSuffix(len(repos)), cfg.Addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// registerAll resolves and registers every declared repository.
// Resolution is fail-fast: the first failing repository aborts startup.
func registerAll(ctx context.Context, st *store.Store, decls *Declarations, logger hclog.Logger) ([]*engine.Repository, error) {
	repos := make([]*engine.Repository, 0, len(decls.Repositories))
	for _, spec := range decls.Repositories {
		record, ok := decls.Record(spec.Record)
		if !ok {
			return nil, fmt.Errorf("repository %q references unknown record %q", spec.Name, spec.Record)
		}
		repo, err := engine.Register(ctx, st, spec, record, logger)
		if err != nil {
			return nil, fmt.Errorf("registering repository %q: %w", spec.Name, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}
