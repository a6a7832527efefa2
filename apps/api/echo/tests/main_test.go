package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/seatech/enthusiasm/apps/api/echo"
	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
	"github.com/seatech/enthusiasm/core/token"
	"github.com/seatech/enthusiasm/services/chat"
	"github.com/seatech/enthusiasm/services/email"
	"github.com/seatech/enthusiasm/storage/database/inmem"
	"github.com/seatech/enthusiasm/storage/files"
	"github.com/seatech/enthusiasm/tests"
)

type testEnv struct {
	app        Server
	conf       *core.Config
	tokens     *token.Issuer
	stuRepo    student.Repository
	admRepo    admin.Repository
	studentSvc *student.Service
	mailSvc    *emailsvc.ConsoleServiceMock
	chatSvc    *chatsvc.ConsoleServiceMock
}

func setup(t *testing.T, configure ...func(conf *core.Config)) testEnv {
	conf := core.NewTestConfig(t.TempDir())
	for _, fn := range configure {
		fn(conf)
	}
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db := inmemdb.Open()
	stuRepo := inmemdb.NewStudentRepository(db)
	admRepo := inmemdb.NewAdminRepository(db)

	// set up services
	files, err := filestore.NewLocalStorage(conf.Storage.UploadDir)
	require.NoError(t, err)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	chatSvc := chatsvc.NewConsoleServiceMock(conf)
	tokens := token.NewIssuer(conf.AppName, conf.SecretKey, conf.Server.StudentTokenTTL, conf.Server.AdminTokenTTL)
	studentSvc := student.NewService(stuRepo, files, mailSvc, chatSvc, logger, conf)

	// set up server
	app := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		Tokens:         tokens,
		StudentSvc:     studentSvc,
		AdminSvc:       admin.NewService(admRepo, conf),
	})

	return testEnv{
		app:        app,
		conf:       conf,
		tokens:     tokens,
		stuRepo:    stuRepo,
		admRepo:    admRepo,
		studentSvc: studentSvc,
		mailSvc:    mailSvc,
		chatSvc:    chatSvc,
	}
}

func (env testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env testEnv) studentToken(t *testing.T, stu student.Student) string {
	tkn, err := env.tokens.Issue(token.Identity{Subject: stu.ID, Role: token.RoleStudent})
	require.NoError(t, err)
	return tkn
}

func (env testEnv) adminToken(t *testing.T, adm admin.Admin) string {
	tkn, err := env.tokens.Issue(token.Identity{Subject: adm.ID, Role: token.RoleAdmin})
	require.NoError(t, err)
	return tkn
}

// submit attaches a Pending submission to a student, bypassing HTTP.
func (env testEnv) submit(t *testing.T, stu student.Student, kind student.Kind, course string) student.Submission {
	sub, err := env.studentSvc.Upload(
		context.Background(),
		stu.ID,
		student.NewSubmission{Kind: kind, Course: course, Filename: "work.pdf"},
		strings.NewReader("my work"),
	)
	require.NoError(t, err)
	return sub
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	form     url.Values
	token    string
	wantCode int
	wantLoc  string
	wantData []byte
}

// newAuthRequest builds a JSON API request.
func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// newFormRequest builds a browser form submission.
func newFormRequest(method, path, token string, form url.Values) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// newUploadRequest builds a multipart request carrying one file under field.
func newUploadRequest(t *testing.T, path, token, field, filename, content string, form url.Values) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, vals := range form {
		for _, val := range vals {
			require.NoError(t, mw.WriteField(key, val))
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func locationWith(path, key, msg string) string {
	return path + "?" + url.Values{key: {msg}}.Encode()
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkResponse checks the status code, then the redirect location or the JSON body when wanted.
func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantLoc != "" {
		assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
	}
	if tt.wantData != nil {
		ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
		if err != nil {
			t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
		}
		if !ok {
			t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
		}
	}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
