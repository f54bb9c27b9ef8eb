package app

import (
	"errors"
	"io/fs"
	"log/slog"

	"book_mirror/internal/infra"
	"book_mirror/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Journal *storage.Journal
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, sets up logging and opens the optional
// event journal.
func (b *Bootstrap) Initialize() error {
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		// No config file: run with defaults against a local exchange.
		cfg = infra.DefaultConfig()
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping",
		slog.String("app", cfg.App.Name), slog.String("upstream", cfg.Upstream.RestURL))

	if cfg.Journal.Enabled {
		journal, err := storage.NewJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		b.Journal = journal
		slog.Info("event journal enabled", slog.String("path", cfg.Journal.Path))
	}

	return nil
}

// Shutdown releases resources opened during Initialize.
func (b *Bootstrap) Shutdown() {
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Warn("journal close failed", slog.Any("error", err))
		}
	}
}
