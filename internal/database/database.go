package database

import (
	"fmt"
	"time"

	"recky/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres database and runs migrations.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	return Open(postgres.Open(dsn), log)
}

// Open initializes a gorm connection on any dialector and runs migrations.
func Open(dialector gorm.Dialector, log *zap.Logger) (*gorm.DB, error) {
	// Configure GORM logger
	customLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         customLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database migrated successfully")
	return db, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RelationshipRecord{},
		&models.RelationshipEdge{},
		&models.EngagementCounters{},
		&models.Recommendation{},
		&models.FriendGroup{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
