package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core/inspection"
	testutil "github.com/trezcool/ukaguzi/tests"
)

func Test_reportApi_create(t *testing.T) {
	app := setup(t)

	inspectorToken := getToken(t, app.inspector)
	completed := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, tomorrow())
	scheduled := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitScheduled, tomorrow())

	tests := []httpTest{
		{
			name:     "visit not completed",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"visit_id": %q, "teaching_quality": 4, "class_management": 3, "student_engagement": 5, "content_delivery": 4}`, scheduled.ID)),
			wantCode: http.StatusConflict,
		},
		{
			name:     "rating out of range",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"visit_id": %q, "teaching_quality": 6, "class_management": 3, "student_engagement": 5, "content_delivery": 4}`, completed.ID)),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "happy path",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"visit_id": %q, "teaching_quality": 4, "class_management": 3, "student_engagement": 5, "content_delivery": 4}`, completed.ID)),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate report",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"visit_id": %q, "teaching_quality": 4, "class_management": 3, "student_engagement": 5, "content_delivery": 4}`, completed.ID)),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/reports", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusCreated {
				var rep inspection.Report
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
				assert.Equal(t, inspection.StatusPendingReview, rep.Status)
				assert.Equal(t, 1, rep.Version)
				assert.Equal(t, 4.0, rep.FinalRating) // mean of 4, 3, 5, 4
			}
		})
	}
}

func Test_reportApi_reviewCycle(t *testing.T) {
	app := setup(t)

	inspectorToken := getToken(t, app.inspector)
	gpiToken := getToken(t, app.gpi)
	visit := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, tomorrow())
	rep := testutil.CreateReport(t, app.inspRepo, visit, inspection.StatusPendingReview, 4)

	t.Run("inspector cannot review", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/reports/"+rep.ID+"/approve", inspectorToken, []byte(`{}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		}, rec)
	})

	t.Run("revision requires feedback", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/reports/"+rep.ID+"/request-revision", gpiToken, []byte(`{}`))
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("request revision", func(t *testing.T) {
		body := []byte(`{"feedback": "expand the recommendations section"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/reports/"+rep.ID+"/request-revision", gpiToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got inspection.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, inspection.StatusRevisionRequested, got.Status)
		assert.Equal(t, "expand the recommendations section", got.Feedback)
	})

	t.Run("resubmit and approve", func(t *testing.T) {
		body := []byte(`{"recommendations": "use more group work"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/reports/"+rep.ID, inspectorToken, body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodPost, "/v1/reports/"+rep.ID+"/approve", gpiToken, []byte(`{}`))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got inspection.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, inspection.StatusApproved, got.Status)
		assert.Equal(t, app.gpi.ID, got.ReviewerID)
	})

	t.Run("decision audit trail", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/"+rep.ID+"/decisions", gpiToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var decisions []inspection.Decision
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decisions))
		require.Len(t, decisions, 2)
		assert.Equal(t, inspection.DecisionRequestRevision, decisions[0].Decision)
		assert.Equal(t, inspection.DecisionApprove, decisions[1].Decision)
	})
}

func Test_reportApi_teacherVisibility(t *testing.T) {
	app := setup(t)

	teacherToken := getToken(t, app.teacher)
	visit := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, tomorrow())
	pending := testutil.CreateReport(t, app.inspRepo, visit, inspection.StatusPendingReview, 4)

	t.Run("pending report hidden from teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/"+pending.ID, teacherToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("teacher list only shows approved", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports", teacherToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var reports []inspection.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
		assert.Empty(t, reports)
	})
}

func Test_dashboardApi_teacherAverageRating(t *testing.T) {
	app := setup(t)

	v1 := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, tomorrow())
	v2 := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitCompleted, tomorrow())
	testutil.CreateReport(t, app.inspRepo, v1, inspection.StatusApproved, 4)
	testutil.CreateReport(t, app.inspRepo, v2, inspection.StatusApproved, 3)

	req, rec := newAuthRequest(http.MethodGet, "/v1/inspections/teachers/"+app.teacher.ID+"/average-rating", getToken(t, app.gpi))
	app.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		TeacherID     string  `json:"teacher_id"`
		AverageRating float64 `json:"average_rating"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, app.teacher.ID, resp.TeacherID)
	assert.Equal(t, 3.5, resp.AverageRating)
}
