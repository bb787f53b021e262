package api

import (
	"fmt"
	"log/slog"

	categoryrepo "github.com/pesatrack/pesatrack/internal/domain/category/repository"
	smsrepo "github.com/pesatrack/pesatrack/internal/domain/sms/repository"
	"github.com/pesatrack/pesatrack/internal/domain/sms/service"
	"github.com/pesatrack/pesatrack/pkg/config"
	"github.com/pesatrack/pesatrack/pkg/db"
)

// Dependencies wires the application graph: config, database, repositories
// and services consumed by the router.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *db.DB

	ImportService *service.ImportService
	CategoryRepo  categoryrepo.CategoryRepository
}

// NewDependencies builds the dependency graph and runs database migrations.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Logger: logger}

	database, err := db.New(db.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: 25,
		MinConns: 5,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		d.DB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	ledger := smsrepo.NewPostgresLedgerRepository(d.DB.Pool)
	d.ImportService = service.NewImportService(ledger, logger)
	d.CategoryRepo = categoryrepo.NewPostgresCategoryRepository(d.DB.Pool)

	return d, nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
