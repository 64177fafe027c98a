package cli

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/attune/internal/cache"
	"github.com/roach88/attune/internal/config"
	"github.com/roach88/attune/internal/engine"
	"github.com/roach88/attune/internal/logging"
	"github.com/roach88/attune/internal/store"
)

// session is the engine and its resources for one command invocation.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	engine *engine.Engine
}

// loadConfig resolves the config file, env overrides and the --db flag.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.DB != "" {
		cfg.Database.Path = opts.DB
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// openSession builds an engine over the configured database and cache.
// One-shot commands only log warnings unless --verbose is set; quiet is
// false for long-running commands.
func openSession(ctx context.Context, opts *RootOptions, quiet bool) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create logger", err)
	}
	if quiet && !opts.Verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	c, err := cache.New(ctx, cfg.CacheOptions())
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create cache", err)
	}

	engineOpts := append(engine.ConfigOptions(*cfg),
		engine.WithCache(c),
		engine.WithLogger(logger),
	)
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}
	if opts.IDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDGenerator))
	}

	logger.Debug("session opened",
		zap.String("db", cfg.Database.Path),
		zap.String("cache", cfg.Cache.Backend),
	)
	return &session{
		cfg:    cfg,
		logger: logger,
		store:  st,
		engine: engine.New(st, engineOpts...),
	}, nil
}

// Close releases the engine and the store.
func (s *session) Close() error {
	err := errors.Join(s.engine.Close(), s.store.Close())
	_ = s.logger.Sync()
	return err
}

// newFormatter builds the OutputFormatter for a command.
func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut, // verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
