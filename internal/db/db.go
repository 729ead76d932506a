package db

import (
	"fmt"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/models"
	"github.com/dreamcraft-ai/dreamcraft/internal/project"
	"github.com/dreamcraft-ai/dreamcraft/internal/revision"
)

// Connect opens the configured database. driver is "sqlite" (dsn is a file
// path or ":memory:") or "mysql" (dsn is a go-sql-driver DSN).
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = gormsqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&project.Project{},
		&project.ChatMessage{},
		&revision.Job{},
	)
}
