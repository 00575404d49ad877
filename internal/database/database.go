package database

import (
	"fmt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"net/url"
	"portfolio-site/internal/config"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/models"
)

// Dialector picks the gorm dialector for the configured driver
func Dialector(c *config.Configuration) (gorm.Dialector, error) {
	switch c.Database.Driver {
	case "", "postgres":
		dsn := url.URL{
			User:     url.UserPassword(c.Database.Username, c.Database.Password),
			Scheme:   "postgres",
			Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
			Path:     c.Database.DatabaseName,
			RawQuery: (&url.Values{"sslmode": []string{"disable"}}).Encode(),
		}
		return postgres.Open(dsn.String()), nil
	case "sqlite":
		return sqlite.Open(c.Database.SqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

func InitDatabase(c *config.Configuration, l logging.Logger) (*gorm.DB, error) {
	l.LogInfof(logging.GetLogTypeInitialization(), "Initializing Database (%s)", c.Database.Driver)

	dialector, err := Dialector(c)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.InitGormLogger(c),
		TranslateError: true,
	})
	if err != nil {
		l.LogErrorf(logging.GetLogTypeInitialization(), "error initializing database: %v", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.LogErrorf(logging.GetLogTypeInitialization(), "error setting connection properties on db conn pool")
		return nil, err
	}
	sqlDB.SetMaxIdleConns(c.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.Database.ConnMaxLifetime)

	l.LogDebug(logging.GetLogTypeInitialization(), "connected to Database")

	if err = models.AutoMigrate(db); err != nil {
		l.LogErrorf(logging.GetLogTypeInitialization(), "error auto migrating models: %v", err)
		return nil, err
	}

	return db, nil
}
