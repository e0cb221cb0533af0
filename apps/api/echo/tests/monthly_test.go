package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core/inspection"
	testutil "github.com/trezcool/ukaguzi/tests"
)

func Test_monthlyApi_workflow(t *testing.T) {
	app := setup(t)

	inspectorToken := getToken(t, app.inspector)
	gpiToken := getToken(t, app.gpi)

	// one completed visit with an approved report in June 2026
	visitDate := time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)
	visit := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, visitDate)
	testutil.CreateReport(t, app.inspRepo, visit, inspection.StatusApproved, 4)

	var monthly inspection.MonthlyReport

	t.Run("draft is created once per period", func(t *testing.T) {
		body := []byte(`{"year": 2026, "month": 6}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/draft", inspectorToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
		assert.Equal(t, inspection.StatusDraft, monthly.Status)

		// same period returns the same draft
		req, rec = newAuthRequest(http.MethodPost, "/v1/monthly-reports/draft", inspectorToken, body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var again inspection.MonthlyReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
		assert.Equal(t, monthly.ID, again.ID)
	})

	t.Run("invalid period", func(t *testing.T) {
		body := []byte(`{"year": 2026, "month": 13}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/draft", inspectorToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"month": "must be between 1 and 12"}),
		}, rec)
	})

	t.Run("gpi cannot draft", func(t *testing.T) {
		body := []byte(`{"year": 2026, "month": 6}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/draft", gpiToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("edit narratives", func(t *testing.T) {
		body := []byte(`{"recurring_issues": "late starts", "positive_trends": "better engagement"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/monthly-reports/"+monthly.ID, inspectorToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
		assert.Equal(t, "late starts", monthly.RecurringIssues)
	})

	t.Run("generate stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/"+monthly.ID+"/generate-stats", inspectorToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
		assert.Equal(t, 1, monthly.Stats.TotalVisits)
		assert.Equal(t, 1, monthly.Stats.CompletedVisits)
		assert.Equal(t, 4.0, monthly.AggregateRating)
	})

	t.Run("submit", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/"+monthly.ID+"/submit", inspectorToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
		assert.Equal(t, inspection.StatusPendingReview, monthly.Status)
		assert.False(t, monthly.SubmittedAt.IsZero())
	})

	t.Run("edit after submit conflicts", func(t *testing.T) {
		body := []byte(`{"recurring_issues": "too late"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/monthly-reports/"+monthly.ID, inspectorToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})

	t.Run("gpi approves", func(t *testing.T) {
		body := []byte(`{"feedback": "solid month"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/"+monthly.ID+"/approve", gpiToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
		assert.Equal(t, inspection.StatusApproved, monthly.Status)
		assert.Equal(t, app.gpi.ID, monthly.ReviewerID)
	})
}

func Test_monthlyApi_submitWithoutApprovedReports(t *testing.T) {
	app := setup(t)

	inspectorToken := getToken(t, app.inspector)
	body := []byte(`{"year": 2026, "month": 2}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/monthly-reports/draft", inspectorToken, body)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var monthly inspection.MonthlyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))

	req, rec = newAuthRequest(http.MethodPost, "/v1/monthly-reports/"+monthly.ID+"/submit", inspectorToken)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"period": "at least one approved report is required in the period"}),
	}, rec)
}

func Test_dashboardApi_retrieve(t *testing.T) {
	app := setup(t)

	testutil.CreateVisit(t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitScheduled, tomorrow())
	completed := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, tomorrow())
	testutil.CreateReport(t, app.inspRepo, completed, inspection.StatusPendingReview, 4)

	t.Run("inspector only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/inspections/dashboard", getToken(t, app.teacher))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("happy path", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/inspections/dashboard", getToken(t, app.inspector))
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var stats inspection.DashboardStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.TotalVisits)
		assert.Equal(t, 1, stats.CompletedVisits)
		assert.Equal(t, 1, stats.ReportsPending)
		require.Len(t, stats.AssignedRegions, 1)
		assert.Equal(t, app.region.ID, stats.AssignedRegions[0].ID)
	})
}
