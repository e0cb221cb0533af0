package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ukaguzi/core/inspection"
	testutil "github.com/trezcool/ukaguzi/tests"
)

func Test_visitApi_create(t *testing.T) {
	app := setup(t)

	inspectorToken := getToken(t, app.inspector)
	teacherToken := getToken(t, app.teacher)
	scheduledAt := tomorrow().Format(time.RFC3339)

	tests := []httpTest{
		{
			name:     "inspector only",
			token:    teacherToken,
			body:     []byte(fmt.Sprintf(`{"teacher_id": %q, "type": "routine", "scheduled_at": %q}`, app.teacher.ID, scheduledAt)),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "unknown visit type",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"teacher_id": %q, "type": "surprise", "scheduled_at": %q}`, app.teacher.ID, scheduledAt)),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "past date",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"teacher_id": %q, "type": "routine", "scheduled_at": "2020-01-01T10:00:00Z"}`, app.teacher.ID)),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "happy path",
			token:    inspectorToken,
			body:     []byte(fmt.Sprintf(`{"teacher_id": %q, "type": "routine", "scheduled_at": %q}`, app.teacher.ID, scheduledAt)),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/visits", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData == nil {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				if tt.wantCode == http.StatusCreated {
					var v inspection.Visit
					require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
					assert.Equal(t, inspection.VisitScheduled, v.Status)
					assert.Equal(t, app.inspector.ID, v.InspectorID)
					assert.Equal(t, app.school.ID, v.SchoolID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_visitApi_lifecycle(t *testing.T) {
	app := setup(t)

	inspectorToken := getToken(t, app.inspector)
	visit := testutil.CreateVisit(
		t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitScheduled, tomorrow())

	t.Run("reschedule", func(t *testing.T) {
		newDate := tomorrow().AddDate(0, 0, 3).Format(time.RFC3339)
		body := []byte(fmt.Sprintf(`{"scheduled_at": %q, "reason": "teacher requested"}`, newDate))
		req, rec := newAuthRequest(http.MethodPost, "/v1/visits/"+visit.ID+"/reschedule", inspectorToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v inspection.Visit
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Equal(t, inspection.VisitScheduled, v.Status)
	})

	t.Run("complete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/visits/"+visit.ID+"/complete", inspectorToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v inspection.Visit
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Equal(t, inspection.VisitCompleted, v.Status)
		assert.False(t, v.CompletedAt.IsZero())
	})

	t.Run("cancel after completion conflicts", func(t *testing.T) {
		body := []byte(`{"reason": "strike"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/visits/"+visit.ID+"/cancel", inspectorToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	})
}

func Test_visitApi_query_scoping(t *testing.T) {
	app := setup(t)

	otherInspector := testutil.CreateUser(
		t, app.usrRepo, "Other Inspector", "inspector2", "inspector2@ukaguzi.tn", "Qwerty12!",
		[]string{"inspector:"}, true)
	testutil.CreateAssignment(t, app.schRepo, otherInspector.ID, app.region.ID)

	testutil.CreateVisit(t, app.inspRepo, app.inspector.ID, app.teacher.ID, app.school.ID, inspection.VisitScheduled, tomorrow())
	testutil.CreateVisit(t, app.inspRepo, otherInspector.ID, app.teacher.ID, app.school.ID, inspection.VisitScheduled, tomorrow())

	tests := []struct {
		name      string
		token     string
		wantCount int
	}{
		{"inspector sees own", getToken(t, app.inspector), 1},
		{"gpi sees all", getToken(t, app.gpi), 2},
		{"teacher sees own", getToken(t, app.teacher), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/visits", tt.token)
			app.server.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var visits []inspection.Visit
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &visits))
			assert.Len(t, visits, tt.wantCount)
		})
	}
}
