package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Apurer/school-activities-api/internal/domains/search/domain"
	"github.com/Apurer/school-activities-api/internal/domains/search/ports"
)

var _ ports.ActivityLog = (*ActivityLog)(nil)

// ActivityLog persists searches in PostgreSQL.
type ActivityLog struct {
	db *gorm.DB
}

// NewActivityLog wires a PostgreSQL-backed activity log.
func NewActivityLog(db *gorm.DB) *ActivityLog {
	return &ActivityLog{db: db}
}

func (l *ActivityLog) Record(ctx context.Context, activity domain.Activity) error {
	if err := l.ensureDB(); err != nil {
		return err
	}
	record := toDBRecord(activity)
	return l.db.WithContext(ctx).Create(&record).Error
}

func (l *ActivityLog) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	query := l.db.WithContext(ctx).Order("recorded_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []activityRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(records))
	for i := range records {
		out = append(out, toDomain(&records[i]))
	}
	return out, nil
}

func (l *ActivityLog) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres activity log not configured")
	}
	return nil
}

type activityRecord struct {
	ID          int64          `gorm:"primaryKey;autoIncrement;column:id"`
	Scope       string         `gorm:"column:scope;type:varchar(32);index"`
	Query       string         `gorm:"column:query"`
	ResultCount int            `gorm:"column:result_count"`
	MatchedIDs  pq.StringArray `gorm:"column:matched_ids;type:text[]"`
	RecordedAt  time.Time      `gorm:"column:recorded_at;index"`
}

func (activityRecord) TableName() string { return "search_activity" }

func toDBRecord(a domain.Activity) activityRecord {
	return activityRecord{
		Scope:       string(a.Scope),
		Query:       a.Query,
		ResultCount: a.ResultCount,
		MatchedIDs:  pq.StringArray(append([]string{}, a.MatchedIDs...)),
		RecordedAt:  a.RecordedAt,
	}
}

func toDomain(r *activityRecord) domain.Activity {
	return domain.Activity{
		Scope:       domain.Scope(r.Scope),
		Query:       r.Query,
		ResultCount: r.ResultCount,
		MatchedIDs:  append([]string{}, r.MatchedIDs...),
		RecordedAt:  r.RecordedAt.UTC(),
	}
}
