// Package history persists scored vendor snapshots so later runs can detect
// month-over-month changes.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/build-flow-labs/vendorscore/schema"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the GORM model for one persisted VendorScore.
type Snapshot struct {
	ID            string             `gorm:"primaryKey;column:id;type:varchar(36)"`
	VendorID      string             `gorm:"column:vendor_id;type:varchar(64);index:idx_snapshot_vendor_time,priority:1;not null"`
	VendorName    string             `gorm:"column:vendor_name"`
	CostScore     float64            `gorm:"column:total_cost_score"`
	TimeScore     float64            `gorm:"column:total_time_score"`
	MaturityScore float64            `gorm:"column:maturity_score"`
	CapacityScore float64            `gorm:"column:capacity_score"`
	FinalScore    float64            `gorm:"column:final_score"`
	Weights       schema.Weights     `gorm:"column:weights;serializer:json"`
	Inputs        schema.ScoreInputs `gorm:"column:inputs;serializer:json"`
	ComputedAt    time.Time          `gorm:"column:computed_at;index:idx_snapshot_vendor_time,priority:2;index:idx_snapshot_time;not null"`
	SnapshotDate  string             `gorm:"column:snapshot_date;type:varchar(10)"`
}

// TableName returns the GORM table name.
func (Snapshot) TableName() string { return "vendor_score_snapshots" }

func fromScore(s schema.VendorScore) Snapshot {
	return Snapshot{
		ID:            s.ID,
		VendorID:      s.VendorID,
		VendorName:    s.VendorName,
		CostScore:     s.CostScore,
		TimeScore:     s.TimeScore,
		MaturityScore: s.MaturityScore,
		CapacityScore: s.CapacityScore,
		FinalScore:    s.FinalScore,
		Weights:       s.Weights,
		Inputs:        s.Inputs,
		ComputedAt:    s.ComputedAt.UTC(),
		SnapshotDate:  s.SnapshotDate.String(),
	}
}

func (r Snapshot) score() schema.VendorScore {
	s := schema.VendorScore{
		ID:            r.ID,
		VendorID:      r.VendorID,
		VendorName:    r.VendorName,
		CostScore:     r.CostScore,
		TimeScore:     r.TimeScore,
		MaturityScore: r.MaturityScore,
		CapacityScore: r.CapacityScore,
		FinalScore:    r.FinalScore,
		Weights:       r.Weights,
		Inputs:        r.Inputs,
		ComputedAt:    r.ComputedAt.UTC(),
	}
	if d, err := schema.ParseDate(r.SnapshotDate); err == nil {
		s.SnapshotDate = d
	}
	return s
}

// Store reads and writes snapshots.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database. Call AutoMigrate before first use.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Dialector picks a GORM driver from the DSN: postgres:// and postgresql://
// go to PostgreSQL, mysql:// to MySQL, anything else is a SQLite path
// (":memory:" included).
func Dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn)
	case strings.HasPrefix(dsn, "mysql://"):
		return mysql.Open(mysqlDSN(strings.TrimPrefix(dsn, "mysql://")))
	default:
		return sqlite.Open(dsn)
	}
}

// mysqlDSN turns on parseTime so DATETIME columns scan into time.Time.
// A DSN the driver cannot parse is passed through for gorm to report.
func mysqlDSN(dsn string) string {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Open connects to dsn and migrates the snapshot table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// SQLite allows one writer, and each ":memory:" connection is a
		// separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	s := NewStore(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// AutoMigrate creates or updates the snapshot table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Snapshot{}); err != nil {
		return fmt.Errorf("migrating history store: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append stores scores in one transaction. Snapshots are immutable, so an
// existing ID is an error.
func (s *Store) Append(ctx context.Context, scores []schema.VendorScore) error {
	if len(scores) == 0 {
		return nil
	}
	rows := make([]Snapshot, 0, len(scores))
	for _, sc := range scores {
		if sc.ID == "" || sc.VendorID == "" {
			return errors.New("append snapshot: missing id or vendor id")
		}
		rows = append(rows, fromScore(sc))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("append snapshots: %w", err)
	}
	return nil
}

// Get returns one snapshot by ID.
func (s *Store) Get(ctx context.Context, id string) (schema.VendorScore, error) {
	var row Snapshot
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return schema.VendorScore{}, ErrNotFound
	}
	if err != nil {
		return schema.VendorScore{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return row.score(), nil
}

// ListByVendor returns a vendor's snapshots oldest first. A positive limit
// keeps only the most recent limit entries.
func (s *Store) ListByVendor(ctx context.Context, vendorID string, limit int) (schema.History, error) {
	q := s.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("computed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Snapshot
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", vendorID, err)
	}
	out := make(schema.History, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r.score()
	}
	return out, nil
}

// HistoryFor loads the history of every listed vendor. Vendors without
// snapshots are absent from the result.
func (s *Store) HistoryFor(ctx context.Context, vendorIDs []string) (map[string]schema.History, error) {
	out := make(map[string]schema.History, len(vendorIDs))
	if len(vendorIDs) == 0 {
		return out, nil
	}
	var rows []Snapshot
	err := s.db.WithContext(ctx).
		Where("vendor_id IN ?", vendorIDs).
		Order("computed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for _, r := range rows {
		out[r.VendorID] = append(out[r.VendorID], r.score())
	}
	return out, nil
}

// DeleteOlderThan removes snapshots computed before cutoff and returns how
// many were removed.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("computed_at < ?", cutoff.UTC()).Delete(&Snapshot{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune snapshots: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Snapshot{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}
