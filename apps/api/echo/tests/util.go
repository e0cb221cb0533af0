package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/ukaguzi/apps/api/echo"
	"github.com/trezcool/ukaguzi/core"
	"github.com/trezcool/ukaguzi/core/inspection"
	"github.com/trezcool/ukaguzi/core/school"
	"github.com/trezcool/ukaguzi/core/user"
	emailsvc "github.com/trezcool/ukaguzi/services/email"
	dummydb "github.com/trezcool/ukaguzi/storage/database/dummy"
	testutil "github.com/trezcool/ukaguzi/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server   Server
	db       *dummydb.DB
	usrRepo  user.Repository
	schRepo  school.Repository
	inspRepo inspection.Repository

	admin     user.User
	gpi       user.User
	inspector user.User
	teacher   user.User
	region    school.Region
	school    school.School
}

func setup(t *testing.T) *testApp {
	t.Helper()

	// deterministic error payloads
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schRepo := dummydb.NewSchoolRepository(db)
	inspRepo := dummydb.NewInspectionRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc)
	schSvc := school.NewService(schRepo, usrSvc)
	inspSvc := inspection.NewServiceMock(inspRepo, schSvc, usrSvc, mailSvc)

	app := &testApp{
		server: NewServer(&Options{
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			SchoolSvc:      schSvc,
			InspectionSvc:  inspSvc,
		}),
		db:       db,
		usrRepo:  usrRepo,
		schRepo:  schRepo,
		inspRepo: inspRepo,
	}
	app.seed(t)
	return app
}

func (app *testApp) seed(t *testing.T) {
	t.Helper()

	app.region = testutil.CreateRegion(t, app.schRepo, "Tunis 1", "TN-01")
	app.school = testutil.CreateSchool(t, app.db, "Lycee Bourguiba", app.region.ID)

	app.admin = testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@ukaguzi.tn", "Qwerty12!", user.AdminRoles, true)
	app.gpi = testutil.CreateUser(t, app.usrRepo, "GPI Reviewer", "reviewer", "gpi@ukaguzi.tn", "Qwerty12!", user.GPIRoles, true)
	app.inspector = testutil.CreateUser(t, app.usrRepo, "Inspector", "inspector", "inspector@ukaguzi.tn", "Qwerty12!", user.InspectorRoles, true)
	app.teacher = testutil.CreateUser(
		t, app.usrRepo, "Teacher", "teacher", "teacher@ukaguzi.tn", "Qwerty12!", user.TeacherRoles, true, app.school.ID)

	testutil.CreateAssignment(t, app.schRepo, app.inspector.ID, app.region.ID)
}

func tomorrow() time.Time {
	return time.Now().UTC().AddDate(0, 0, 1)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
