package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the sqlite database with foreign keys enforced and migrates the schema.
func ConnectDB(source string, quiet bool) (*gorm.DB, error) {
	dsn := source
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	cfg := &gorm.Config{
		TranslateError: true,
		// stored timestamps sort as text, so they must share one offset
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	sqlDB.SetMaxOpenConns(1)

	if err := SetupDatabase(db); err != nil {
		return nil, err
	}
	return db, nil
}

func SetupDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.ChatRoom{}, &entity.ChatMessage{},
		&entity.ContactMessage{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
