package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/build-flow-labs/vendorscore/schema"
)

var base = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	s := NewStore(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func snapshot(id, vendor string, at time.Time, final float64) schema.VendorScore {
	return schema.VendorScore{
		ID:           id,
		VendorID:     vendor,
		VendorName:   "Vendor " + vendor,
		FinalScore:   final,
		Weights:      schema.DefaultWeights(),
		Inputs:       schema.ScoreInputs{AvgLandedCost: 10 + final, PartCount: 2, Maturity: schema.MaturityBreakdown{Path: schema.MaturityProxy}},
		ComputedAt:   at,
		SnapshotDate: schema.NewDate(time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)),
	}
}

func TestAppendAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	in := snapshot("s1", "v1", base, 0.7)
	require.NoError(t, s.Append(ctx, []schema.VendorScore{in}))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.VendorID)
	assert.Equal(t, 0.7, got.FinalScore)
	assert.Equal(t, schema.DefaultWeights(), got.Weights)
	assert.Equal(t, 10.7, got.Inputs.AvgLandedCost)
	assert.Equal(t, schema.MaturityProxy, got.Inputs.Maturity.Path)
	assert.True(t, base.Equal(got.ComputedAt))
	assert.Equal(t, "2026-03-01", got.SnapshotDate.String())

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendRejectsDuplicates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, []schema.VendorScore{snapshot("s1", "v1", base, 0.5)}))
	err := s.Append(ctx, []schema.VendorScore{
		snapshot("s2", "v1", base.AddDate(0, 1, 0), 0.6),
		snapshot("s1", "v1", base.AddDate(0, 2, 0), 0.7),
	})
	require.Error(t, err)

	// The failed batch is rolled back as a whole.
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Error(t, s.Append(ctx, []schema.VendorScore{{ID: "x"}}))
	assert.NoError(t, s.Append(ctx, nil))
}

func TestListByVendor(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, []schema.VendorScore{
		snapshot("c", "v1", base.AddDate(0, 2, 0), 0.3),
		snapshot("a", "v1", base, 0.1),
		snapshot("b", "v1", base.AddDate(0, 1, 0), 0.2),
		snapshot("z", "v2", base, 0.9),
	}))

	h, err := s.ListByVendor(ctx, "v1", 0)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{h[0].ID, h[1].ID, h[2].ID})

	recent, err := s.ListByVendor(ctx, "v1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)

	none, err := s.ListByVendor(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryFor(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var scores []schema.VendorScore
	for i := range 3 {
		scores = append(scores, snapshot(fmt.Sprintf("v1-%d", i), "v1", base.AddDate(0, i, 0), 0.5))
	}
	scores = append(scores, snapshot("v2-0", "v2", base, 0.4), snapshot("v3-0", "v3", base, 0.4))
	require.NoError(t, s.Append(ctx, scores))

	got, err := s.HistoryFor(ctx, []string{"v1", "v2", "v9"})
	require.NoError(t, err)
	assert.Len(t, got["v1"], 3)
	assert.Len(t, got["v2"], 1)
	assert.NotContains(t, got, "v3")
	assert.NotContains(t, got, "v9")

	latest, ok := got["v1"].Latest()
	require.True(t, ok)
	assert.Equal(t, "v1-2", latest.ID)

	empty, err := s.HistoryFor(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteOlderThan(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, []schema.VendorScore{
		snapshot("old", "v1", base.AddDate(-2, 0, 0), 0.1),
		snapshot("mid", "v1", base.AddDate(-1, 0, 0), 0.2),
		snapshot("new", "v1", base, 0.3),
	}))

	n, err := s.DeleteOlderThan(ctx, base.AddDate(0, -6, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	h, err := s.ListByVendor(ctx, "v1", 0)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "new", h[0].ID)
}

func TestDialector(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost:5432/scores?sslmode=disable", postgres.Dialector{}.Name()},
		{"postgresql://localhost/scores", postgres.Dialector{}.Name()},
		{"mysql://u:p@tcp(localhost:3306)/scores?parseTime=true", mysql.Dialector{}.Name()},
		{"vendorscore.db", sqlite.Dialector{}.Name()},
		{":memory:", sqlite.Dialector{}.Name()},
	}
	for _, tt := range tests {
		if got := Dialector(tt.dsn).Name(); got != tt.want {
			t.Errorf("Dialector(%q) = %s, want %s", tt.dsn, got, tt.want)
		}
	}
}

func TestMySQLDSNParsesTime(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"u:p@tcp(localhost:3306)/scores", []string{"u:p@tcp(localhost:3306)/scores", "parseTime=true"}},
		{"u:p@tcp(db:3306)/scores?timeout=5s", []string{"parseTime=true", "timeout=5s"}},
		{"u:p@tcp(db:3306)/scores?parseTime=false", []string{"parseTime=true"}},
	}
	for _, tt := range tests {
		got := mysqlDSN(tt.in)
		for _, w := range tt.want {
			assert.Contains(t, got, w, tt.in)
		}
	}
}

func TestOpenSQLite(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(context.Background(), []schema.VendorScore{snapshot("s1", "v1", base, 0.5)}))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
