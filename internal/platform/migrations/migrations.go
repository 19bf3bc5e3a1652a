package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the relational schema. MongoDB collections need no migration.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&searchActivityRecord{},
	)
}

// Search activity schema mirrors the search Postgres adapter.
type searchActivityRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement;column:id"`
	Scope       string         `gorm:"column:scope;type:varchar(32);index"`
	Query       string         `gorm:"column:query"`
	ResultCount int            `gorm:"column:result_count"`
	MatchedIDs  pq.StringArray `gorm:"column:matched_ids;type:text[]"`
	RecordedAt  time.Time      `gorm:"column:recorded_at;index"`
}

func (searchActivityRecord) TableName() string { return "search_activity" }
