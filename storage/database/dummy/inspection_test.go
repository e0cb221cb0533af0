package dummydb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core/inspection"
	dummydb "github.com/trezcool/ukaguzi/storage/database/dummy"
)

func Test_inspectionRepository_QueryReports_periodFilter(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewInspectionRepository(db)
	ctx := context.Background()

	submit := func(year int, month time.Month) inspection.Report {
		rep, err := repo.CreateReport(ctx, inspection.Report{
			VisitID:     "visit-" + time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			InspectorID: "insp1",
			Status:      inspection.StatusApproved,
			SubmittedAt: time.Date(year, month, 15, 10, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		return rep
	}
	june := submit(2026, time.June)
	july := submit(2026, time.July)
	lastJune := submit(2025, time.June)

	tests := []struct {
		name    string
		filter  *inspection.ReportFilter
		wantIDs []string
	}{
		{name: "year and month", filter: &inspection.ReportFilter{Year: 2026, Month: 6}, wantIDs: []string{june.ID}},
		{name: "year only", filter: &inspection.ReportFilter{Year: 2026}, wantIDs: []string{july.ID, june.ID}},
		// month alone has no effect, matching the SQL repository
		{name: "month without year", filter: &inspection.ReportFilter{Month: 6}, wantIDs: []string{july.ID, june.ID, lastJune.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reps, err := repo.QueryReports(ctx, tt.filter, nil)
			require.NoError(t, err)
			ids := make([]string, 0, len(reps))
			for _, r := range reps {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
