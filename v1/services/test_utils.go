package services

import (
	"testing"

	"github.com/codelens-platform/quality-server-go/v1/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupSQLiteTestDB creates an in-memory SQLite database for testing.
// Exported for use in handler tests.
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		// Match the production config so unique violations surface
		// as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	// Auto-migrate all models
	err = db.AutoMigrate(
		&models.Organization{},
		&models.QualityProfile{},
		&models.Project{},
		&models.ProjectProfile{},
		&models.Rule{},
		&models.Property{},
		&models.StartupTask{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}
