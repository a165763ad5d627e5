package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSessions struct {
	live map[string]bool
	next int
}

func (f *fakeSessions) Start(token string) string {
	f.next++
	id := "s" + string(rune('0'+f.next))
	f.live[id] = true
	return id
}

func (f *fakeSessions) End(id string) bool {
	ok := f.live[id]
	delete(f.live, id)
	return ok
}

func (f *fakeSessions) Exists(id string) bool { return f.live[id] }

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "comicsort", Duration: time.Hour}
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts := testTokens()
	tok, exp, err := ts.Sign("abc")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ts.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.SessionID)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	tok, _, err := testTokens().Sign("abc")
	require.NoError(t, err)

	other := TokenService{Secret: []byte("other"), Issuer: "comicsort", Duration: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)

	wrongIssuer := TokenService{Secret: []byte("test-secret"), Issuer: "someone-else", Duration: time.Hour}
	_, err = wrongIssuer.Parse(tok)
	assert.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	ts := testTokens()
	ts.Duration = -time.Minute
	tok, _, err := ts.Sign("abc")
	require.NoError(t, err)
	_, err = ts.Parse(tok)
	assert.Error(t, err)
}

func newRouter(t *testing.T, hash string) (*gin.Engine, *fakeSessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := &fakeSessions{live: map[string]bool{}}
	h := NewHandler(sessions, testTokens(), hash)

	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	r.GET("/private", AuthMiddleware(testTokens(), sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session": MustGetClaims(c).SessionID})
	})
	return r, sessions
}

func post(r http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_StartUseLogout(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	r, sessions := newRouter(t, string(hash))

	w := post(r, "/auth/session", "", map[string]string{"password": "hunter22", "access_token": "graph"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, sessions.Exists(resp.SessionID))

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(r, "/auth/logout", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sessions.Exists(resp.SessionID))

	// the token outlives the session but is no longer accepted
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	r, sessions := newRouter(t, string(hash))

	w := post(r, "/auth/session", "", map[string]string{"password": "nope", "access_token": "graph"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sessions.live)
}

func TestHandler_AccessTokenRequired(t *testing.T) {
	r, _ := newRouter(t, "")
	w := post(r, "/auth/session", "", map[string]string{"access_token": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddleware_MissingBearer(t *testing.T) {
	r, _ := newRouter(t, "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
