package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/repository/postgres"
	serviceDocsys "github.com/DougReeder/notes-together-sub002/internal/service/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/htmlcodec"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/sanitizer"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/ingest"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

// app wires the services shared by the subcommands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *normalize.Engine
	html       *htmlcodec.Codec
	registry   *converter.CodecRegistry
	sanitizer  *sanitizer.Sanitizer
	dispatcher *ingest.Dispatcher

	pool     *pgxpool.Pool
	closeLog func() error
}

func newApp(cfg *config.Config, stderr io.Writer) (*app, error) {
	logger, closeLog, err := config.NewLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	logger.Debug("notectl starting",
		"environment", cfg.Environment,
		"table_prefix", cfg.TablePrefix,
		"database", cfg.DatabaseURL != "",
	)

	engine := normalize.NewEngine(logger)
	registry := converter.NewCodecRegistry(engine, logger)
	return &app{
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		html:       htmlcodec.NewCodec(engine, logger),
		registry:   registry,
		sanitizer:  sanitizer.NewSanitizer(logger),
		dispatcher: ingest.NewDispatcher(registry, engine, cfg.MaxImageDimension, cfg.FileReadConcurrency, logger),
		closeLog:   closeLog,
	}, nil
}

// noteService connects to the database on first use and returns a note
// service backed by it.
func (a *app) noteService(ctx context.Context) (docsysSvc.NoteService, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}

	tables := postgres.NewTableNames(a.cfg.TablePrefix)
	if a.pool == nil {
		pool, err := postgres.CreateConnectionPool(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.logger.Debug("database connected", "notes_table", tables.Notes)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   a.pool,
		Tables: tables,
		Logger: a.logger,
	}
	return serviceDocsys.NewNoteService(
		postgres.NewNoteRepository(repoConfig),
		postgres.NewTransactionManager(a.pool, a.logger),
		a.sanitizer,
		serviceDocsys.NewContentAnalyzer(),
		a.logger,
	), nil
}

// Close releases the database pool and the log file.
func (a *app) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	if err := a.closeLog(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

type appContextKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appContextKey{}, a)
}

func appFrom(ctx context.Context) *app {
	a, _ := ctx.Value(appContextKey{}).(*app)
	return a
}
