package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns string
}

// Composite indexes used by the list and cascade queries. Single-column
// indexes are declared on the models.
var compositeIndexes = []indexSpec{
	{"projects", "idx_projects_company_status", "company_id, status"},
	{"features", "idx_features_project_status", "project_id, status"},
	{"project_members", "idx_project_members_user", "user_id, project_id"},
	{"feature_assignments", "idx_feature_assignments_user", "user_id, feature_id"},
	{"company_users", "idx_company_users_user", "user_id, company_id"},
	{"feature_comments", "idx_feature_comments_feature_created", "feature_id, created_at"},
}

// AddIndexes creates the composite indexes that AutoMigrate does not declare.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}

// MigrateDatabase runs the migrations that follow AutoMigrate.
func MigrateDatabase(db *gorm.DB, log zerolog.Logger) error {
	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	return nil
}
