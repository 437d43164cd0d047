package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/prorabapp/prorab-data/internal/config"
	"github.com/prorabapp/prorab-data/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes the app-pool database connection based on DB_TYPE.
// The app pool serves the public (unauthenticated) share-link path.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return open(cfg, cfg.DBAppUser, cfg.DBAppPassword, cfg.DBAppConnectionLimit, "app")
}

// ConnectUser establishes the user-pool database connection (with different
// credentials). The user pool serves the authenticated private path.
func ConnectUser(cfg *config.Config) (*gorm.DB, error) {
	return open(cfg, cfg.DBUser, cfg.DBPassword, cfg.DBConnectionLimit, "user")
}

func open(cfg *config.Config, user, password string, connectionLimit int, pool string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DBType {
	case "mysql", "mariadb":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			user,
			password,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBDatabase,
		)
		dialector = mysql.Open(dsn)

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			user,
			password,
			cfg.DBDatabase,
			cfg.DBPort,
		)
		dialector = postgres.Open(dsn)

	case "sqlite":
		// For SQLite, DBDatabase is the file path; both pools share it.
		dialector = sqlite.Open(cfg.DBDatabase)

	case "sqlserver", "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			user,
			password,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBDatabase,
		)
		dialector = sqlserver.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", pool, err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(connectionLimit)
	sqlDB.SetMaxIdleConns(connectionLimit / 2)

	log.Printf("Connected to %s database (%s pool): %s", cfg.DBType, pool, cfg.DBDatabase)

	return db, nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.StoreEntry{},
	)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
