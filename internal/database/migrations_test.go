package database

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(sqlite.Open(":memory:"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

func TestAddIndexes_LogsThroughInjectedLogger(t *testing.T) {
	db := openMigratedDB(t)

	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	require.NoError(t, MigrateDatabase(db, log))
	assert.Equal(t, len(compositeIndexes), strings.Count(buf.String(), "created index"))
	for _, idx := range compositeIndexes {
		assert.True(t, db.Migrator().HasIndex(idx.table, idx.name), idx.name)
	}

	buf.Reset()
	require.NoError(t, AddIndexes(db, log))
	assert.Equal(t, len(compositeIndexes), strings.Count(buf.String(), "index already exists, skipping"))
	assert.NotContains(t, buf.String(), "created index")
}
