package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harpoonmedia/harpoon/pkg/models"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Request{},
		&models.Season{},
		&models.Episode{},
		&models.TorrentDownload{},
		&models.SearchLog{},
	)
	require.NoError(t, err)

	return db
}
