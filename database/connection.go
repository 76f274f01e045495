package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Ananth-NQI/washpe-backend/internal/config"
)

// Connect opens the PostgreSQL connection described by cfg
func Connect(cfg *config.Config) (*gorm.DB, error) {
	if cfg.InstanceConnectionName != "" {
		log.Infof("Connecting to Cloud SQL via socket: %s", cfg.InstanceConnectionName)
	} else {
		log.Infof("Connecting to PostgreSQL at %s:%s", cfg.DBHost, cfg.DBPort)
	}

	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("✅ Database connected successfully!")
	return db, nil
}
