// Package database opens GORM connections to PostgreSQL / TimescaleDB and
// defines the tables written there.
package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/log"
)

// Options tunes a connection.
type Options struct {
	// DryRun builds statements without executing them and skips the initial
	// ping, so no server is needed.
	DryRun bool
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string, opts Options) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{
		Logger:               dbLogger,
		DryRun:               opts.DryRun,
		DisableAutomaticPing: opts.DryRun,
	})
	if err != nil {
		log.Warnw("unable to create a TimescaleDB connection", "error", err)
		return nil, err
	}

	return db, nil
}
