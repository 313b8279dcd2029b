package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/dev-mirror/internal/apperror"
	"github.com/sakif/dev-mirror/internal/auth"
	"github.com/sakif/dev-mirror/internal/handler"
	"github.com/sakif/dev-mirror/internal/model"
	"github.com/sakif/dev-mirror/internal/service"
)

// MockUserRepo implements repository.UserRepository in memory.
type MockUserRepo struct {
	users  map[string]*model.User
	byName map[string]*model.User
	nextID int64
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{
		users:  make(map[string]*model.User),
		byName: make(map[string]*model.User),
		nextID: 1,
	}
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, taken := m.byName[user.Username]; taken {
		return apperror.Conflict("user", user.Username)
	}
	user.ID = "mock-user-" + string(rune('0'+m.nextID))
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	m.users[user.ID] = &copied
	m.byName[user.Username] = &copied
	return nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return u, nil
}

func (m *MockUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	return m.Create(ctx, user)
}

func newAuthHandler(t *testing.T) (*handler.AuthHandler, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	assert.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	logger := testLogger()
	svc := service.NewAuthService(NewMockUserRepo(), tokens, passwords, logger)
	return handler.NewAuthHandler(svc, nil, logger), tokens
}

// sessionCookie digs the session cookie out of a recorded response.
func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatalf("response has no %q cookie", auth.SessionCookie)
	return nil
}

func TestAuthHandler_SessionRoundTrip(t *testing.T) {
	h, tokens := newAuthHandler(t)

	// Register — the response must carry the session cookie
	rr := httptest.NewRecorder()
	h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"username":"rookie","password":"hunter2hunter2"}`)))

	assert.Equal(t, http.StatusCreated, rr.Code)

	var registered model.User
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&registered))
	assert.NotEmpty(t, registered.ID)

	cookie := sessionCookie(t, rr)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly, "session cookie must be HttpOnly")
	assert.Equal(t, int(auth.TokenLifetime.Seconds()), cookie.MaxAge)

	// Feed that cookie into a RequireAuth-protected handler: the middleware
	// must accept the token the handler issued and put the userID in context.
	var gotUserID string
	protected := auth.RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()

	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, registered.ID, gotUserID)
}

func TestAuthHandler_LoginSetsAcceptedCookie(t *testing.T) {
	h, tokens := newAuthHandler(t)

	rr := httptest.NewRecorder()
	h.HandleRegister(rr, httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"username":"rookie","password":"hunter2hunter2"}`)))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	h.HandleLogin(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"username":"rookie","password":"hunter2hunter2"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(t, rr)
	userID, err := tokens.Validate(cookie.Value)
	assert.NoError(t, err)
	assert.NotEmpty(t, userID)
}

func TestRequireAuth_RejectsBadSessions(t *testing.T) {
	_, tokens := newAuthHandler(t)

	protected := auth.RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a valid session")
	}))

	t.Run("no cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "not.a.jwt"})
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrongly named cookie", func(t *testing.T) {
		// A valid token under the wrong cookie name must not authenticate —
		// this pins the cookie name contract between handler and middleware.
		token, err := tokens.Generate("user-1")
		assert.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	h, _ := newAuthHandler(t)

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(t, rr)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge, "MaxAge must be negative to delete the cookie")
}
