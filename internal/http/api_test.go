package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-keeper/internal/auth"
	"contact-keeper/internal/domain"
	"contact-keeper/internal/repository/sqlite"
	"contact-keeper/internal/service"
	"contact-keeper/internal/storage"
)

const testSecret = "test-secret-test-secret-test-secret"

type testServer struct {
	router *gin.Engine
	tokens auth.TokenService
}

func newTestServer(t *testing.T, opts Options, store storage.Service) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	contactRepo := sqlite.NewContactRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, contactRepo.Init(ctx))

	tokens, err := auth.NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)

	contacts := service.NewContactService(contactRepo)
	exports := service.NewExportService(contacts, store, service.ExportConfig{Bucket: "exports", KeyPrefix: "contact-exports"})

	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		opts.Logger = logger
	}

	router := gin.New()
	NewHandler(contacts, service.NewUserService(userRepo), exports, tokens, opts).RegisterRoutes(router)
	return &testServer{router: router, tokens: tokens}
}

type testResponse struct {
	Code int
	Body []byte
}

func (r testResponse) msg(t *testing.T) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(r.Body, &body), string(r.Body))
	return body.Msg
}

func (r testResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) testResponse {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(DefaultTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return testResponse{Code: rec.Code, Body: rec.Body.Bytes()}
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/users", "", gin.H{"name": "user", "email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Body))

	var tok TokenResponse
	resp.decode(t, &tok)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func (s *testServer) createContact(t *testing.T, token string, body any) ContactResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/contacts", token, body)
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Body))

	var contact ContactResponse
	resp.decode(t, &contact)
	return contact
}

func TestWelcomeAndHealth(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)

	resp := srv.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "welcome to contact-keeper API", resp.msg(t))

	resp = srv.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), DefaultTokenHeader)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/contacts"},
		{http.MethodPost, "/api/contacts"},
		{http.MethodPut, "/api/contacts/some-id"},
		{http.MethodDelete, "/api/contacts/some-id"},
		{http.MethodGet, "/api/auth"},
		{http.MethodPost, "/api/exports"},
	}
	for _, r := range routes {
		resp := srv.do(t, r.method, r.path, "", gin.H{"name": "x"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code, r.method+" "+r.path)
		assert.Equal(t, "no token, authorization denied", resp.msg(t))

		resp = srv.do(t, r.method, r.path, "not-a-token", gin.H{"name": "x"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code, r.method+" "+r.path)
		assert.Equal(t, "token is not valid", resp.msg(t))
	}
}

func TestTokenFromAuthorizationHeader(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "bearer@x.com")

	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCustomTokenHeader(t *testing.T) {
	srv := newTestServer(t, Options{TokenHeader: "x-session"}, nil)
	token := srv.register(t, "custom@x.com")

	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set("x-session", token)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := srv.do(t, http.MethodGet, "/api/contacts", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)

	resp := srv.do(t, http.MethodPost, "/api/users", "", gin.H{"email": "bad", "password": "123"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body struct {
		Errors []service.FieldError `json:"errors"`
	}
	resp.decode(t, &body)
	byParam := map[string]service.FieldError{}
	for _, fe := range body.Errors {
		byParam[fe.Param] = fe
	}
	require.Len(t, byParam, 3)
	assert.Equal(t, "please add name", byParam["name"].Msg)
	assert.Equal(t, "please include a valid email", byParam["email"].Msg)
	assert.Equal(t, "please enter a password with 6 or more characters", byParam["password"].Msg)
	assert.Nil(t, byParam["password"].Value)
	assert.Equal(t, "body", byParam["name"].Location)
}

func TestRegisterDuplicateAndLogin(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	srv.register(t, "ann@x.com")

	resp := srv.do(t, http.MethodPost, "/api/users", "", gin.H{"name": "Ann", "email": "ann@x.com", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "user already exists", resp.msg(t))

	resp = srv.do(t, http.MethodPost, "/api/auth", "", gin.H{"email": "ann@x.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid credentials", resp.msg(t))

	resp = srv.do(t, http.MethodPost, "/api/auth", "", gin.H{"email": "ann@x.com"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, string(resp.Body), "password is required")

	resp = srv.do(t, http.MethodPost, "/api/auth", "", gin.H{"email": "ann@x.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.Code)
	var tok TokenResponse
	resp.decode(t, &tok)

	resp = srv.do(t, http.MethodGet, "/api/auth", tok.Token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var me UserResponse
	resp.decode(t, &me)
	assert.Equal(t, "ann@x.com", me.Email)
	assert.NotContains(t, string(resp.Body), "password")
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "m@x.com")

	resp := srv.do(t, http.MethodPost, "/api/contacts", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid request body", resp.msg(t))
}

func TestCreateContactRequiresName(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "owner@x.com")

	for _, body := range []any{
		nil,
		gin.H{},
		gin.H{"name": "", "email": "a@x.com", "phone": "1", "type": "work"},
		gin.H{"name": "   "},
	} {
		resp := srv.do(t, http.MethodPost, "/api/contacts", token, body)
		require.Equal(t, http.StatusBadRequest, resp.Code, string(resp.Body))

		var verr struct {
			Errors []service.FieldError `json:"errors"`
		}
		resp.decode(t, &verr)
		require.Len(t, verr.Errors, 1)
		assert.Equal(t, "name", verr.Errors[0].Param)
		assert.Equal(t, "name is required", verr.Errors[0].Msg)
	}
}

func TestContactScenario(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "owner@x.com")

	bob := srv.createContact(t, token, gin.H{"name": "Bob"})
	assert.NotEmpty(t, bob.ID)
	assert.NotEmpty(t, bob.Date)
	assert.NotEmpty(t, bob.User)
	assert.Equal(t, domain.DefaultContactType, bob.Type)

	resp := srv.do(t, http.MethodPut, "/api/contacts/"+bob.ID, token, gin.H{"phone": "555-1"})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated ContactResponse
	resp.decode(t, &updated)
	assert.Equal(t, "555-1", updated.Phone)
	assert.Equal(t, "Bob", updated.Name)

	resp = srv.do(t, http.MethodDelete, "/api/contacts/"+bob.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "contact removed", resp.msg(t))

	resp = srv.do(t, http.MethodPut, "/api/contacts/"+bob.ID, token, gin.H{})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "contact not found", resp.msg(t))

	resp = srv.do(t, http.MethodDelete, "/api/contacts/"+bob.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateWithEmptyBodyIsNoop(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "owner@x.com")
	created := srv.createContact(t, token, gin.H{"name": "Carol", "email": "c@x.com"})

	for _, body := range []any{nil, gin.H{}} {
		resp := srv.do(t, http.MethodPut, "/api/contacts/"+created.ID, token, body)
		require.Equal(t, http.StatusOK, resp.Code)
		var same ContactResponse
		resp.decode(t, &same)
		assert.Equal(t, created, same)
	}
}

func TestUpdateWithBlankNameKeepsName(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "owner@x.com")
	created := srv.createContact(t, token, gin.H{"name": "Carol"})

	resp := srv.do(t, http.MethodPut, "/api/contacts/"+created.ID, token, gin.H{"name": "   "})
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Body))
	var same ContactResponse
	resp.decode(t, &same)
	assert.Equal(t, "Carol", same.Name)

	resp = srv.do(t, http.MethodGet, "/api/contacts", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list []ContactResponse
	resp.decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Carol", list[0].Name)
}

func TestOwnerCannotBeChanged(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	owner := srv.register(t, "owner@x.com")
	intruder := srv.register(t, "intruder@x.com")

	created := srv.createContact(t, owner, gin.H{"name": "Dana", "user": "someone-else"})
	intruderContact := srv.createContact(t, intruder, gin.H{"name": "Eve"})
	assert.NotEqual(t, "someone-else", created.User)

	resp := srv.do(t, http.MethodPut, "/api/contacts/"+created.ID, owner, gin.H{"user": intruderContact.User, "name": "Dana B"})
	require.Equal(t, http.StatusOK, resp.Code)
	var updated ContactResponse
	resp.decode(t, &updated)
	assert.Equal(t, created.User, updated.User)
	assert.Equal(t, "Dana B", updated.Name)
}

func TestOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	u1 := srv.register(t, "u1@x.com")
	u2 := srv.register(t, "u2@x.com")
	private := srv.createContact(t, u1, gin.H{"name": "Private"})

	resp := srv.do(t, http.MethodPut, "/api/contacts/"+private.ID, u2, gin.H{"name": "Stolen"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "not authorized", resp.msg(t))

	resp = srv.do(t, http.MethodDelete, "/api/contacts/"+private.ID, u2, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "not authorized", resp.msg(t))

	resp = srv.do(t, http.MethodGet, "/api/contacts", u2, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, string(resp.Body))

	resp = srv.do(t, http.MethodGet, "/api/contacts", u1, nil)
	var list []ContactResponse
	resp.decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Private", list[0].Name)
}

func TestOwnershipStatusOverride(t *testing.T) {
	srv := newTestServer(t, Options{OwnershipStatus: http.StatusForbidden}, nil)
	u1 := srv.register(t, "u1@x.com")
	u2 := srv.register(t, "u2@x.com")
	private := srv.createContact(t, u1, gin.H{"name": "Private"})

	resp := srv.do(t, http.MethodDelete, "/api/contacts/"+private.ID, u2, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "not authorized", resp.msg(t))
}

func TestListContactsNewestFirst(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "owner@x.com")
	for _, name := range []string{"C1", "C2", "C3"} {
		srv.createContact(t, token, gin.H{"name": name})
	}

	resp := srv.do(t, http.MethodGet, "/api/contacts", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list []ContactResponse
	resp.decode(t, &list)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"C3", "C2", "C1"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestRoundTripCreateListDelete(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token := srv.register(t, "owner@x.com")
	alice := srv.createContact(t, token, gin.H{"name": "Alice", "email": "a@x.com"})

	var list []ContactResponse
	srv.do(t, http.MethodGet, "/api/contacts", token, nil).decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "a@x.com", list[0].Email)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, "/api/contacts/"+alice.ID, token, nil).Code)

	list = nil
	srv.do(t, http.MethodGet, "/api/contacts", token, nil).decode(t, &list)
	assert.Empty(t, list)
}

type brokenContacts struct {
	service.ContactService
}

func (brokenContacts) List(context.Context, string) ([]domain.Contact, error) {
	return nil, errors.New("database is locked")
}

func TestCurrentUserWithUnknownSubject(t *testing.T) {
	srv := newTestServer(t, Options{}, nil)
	token, err := srv.tokens.Issue("no-such-user")
	require.NoError(t, err)

	resp := srv.do(t, http.MethodGet, "/api/auth", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, auth.ErrInvalidToken.Error(), resp.msg(t))
}

func TestStoreFaultIsGeneric500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := tokens.Issue("user-1")
	require.NoError(t, err)

	logger := logrus.New()
	var logs bytes.Buffer
	logger.SetOutput(&logs)

	router := gin.New()
	NewHandler(brokenContacts{}, nil, nil, tokens, Options{Logger: logger}).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set(DefaultTokenHeader, token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"msg":"server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "database is locked")
	assert.Contains(t, logs.String(), "user-1")
}
