package storage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	config "github.com/lexora-app/moderation-server/internal/config"
	"github.com/lexora-app/moderation-server/internal/model"
	storage_logger "github.com/lexora-app/moderation-server/internal/storage/storage_logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

type Storage struct {
	db *gorm.DB

	// SQLite has no SELECT ... FOR UPDATE; writes there serialize on a
	// single connection instead.
	rowLocking bool
}

func New(config *config.Config, logger *slog.Logger) (*Storage, error) {
	dialector, err := createDialector(&config.Database)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(
		dialector,
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{},
			Logger:         storage_logger.NewGormSlogLogger(logger),
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
	if err != nil {
		return nil, err
	}

	sqlite := isSQLite(config.Database.Driver)
	if sqlite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxOpenConns(1)
	}

	// Migrations
	const timeoutSeconds = 15 * 60
	ctx, cancel := context.WithTimeout(context.Background(), timeoutSeconds*time.Second)
	defer cancel()
	if err := db.WithContext(ctx).AutoMigrate(
		&model.AccountStatus{},
		&model.Violation{},
		&model.Suspension{},
		&model.Appeal{},
	); err != nil {
		return nil, err
	}

	return &Storage{db: db, rowLocking: !sqlite}, nil
}

func isSQLite(driver string) bool {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return true
	}

	return false
}

// Close - close the database connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Status - report the connection health for the health check endpoint.
func (s *Storage) Status() (string, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return "error", err
	}

	if err := sqlDB.Ping(); err != nil {
		return "error", err
	}

	return "ok", nil
}

// locked applies a row lock to the query on dialects that support it.
func (s *Storage) locked(tx *gorm.DB) *gorm.DB {
	if s.rowLocking {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	return tx
}
