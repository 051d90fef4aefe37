package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/store"
)

type memRepo struct {
	mu       sync.Mutex
	profiles map[string]profile.LearnerProfile
}

func newMemRepo() *memRepo {
	return &memRepo{profiles: make(map[string]profile.LearnerProfile)}
}

func (m *memRepo) Load(_ context.Context, userID string) (profile.LearnerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return profile.LearnerProfile{}, profile.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memRepo) Save(_ context.Context, userID string, p profile.LearnerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p.Clone()
	return nil
}

func (m *memRepo) List(context.Context) ([]store.ProfileSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ProfileSummary
	for id, p := range m.profiles {
		out = append(out, store.ProfileSummary{UserID: id, Profile: p.Clone(), UpdatedAt: p.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		return profile.ErrNotFound
	}
	delete(m.profiles, userID)
	return nil
}

type testEnv struct {
	srv  *httptest.Server
	repo *memRepo
	auth *Auth
}

const adminPassword = "correct horse"

func adminHash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestEnv(t *testing.T, opts ...AuthOption) *testEnv {
	t.Helper()
	repo := newMemRepo()
	if opts == nil {
		opts = []AuthOption{WithAdminPassHash(adminHash(t)), WithDevLogin(true)}
	}
	auth := NewAuth("test-secret", "admin", opts...)
	s, err := New(Options{Profiles: repo, Auth: auth, CORSOrigins: []string{"http://localhost:3000"}})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, repo: repo, auth: auth}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	body := map[string]string{"user_id": userID}
	if userID == "admin" {
		body["password"] = adminPassword
	}
	resp := e.do(t, http.MethodPost, "/auth/token", "", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeToken(t, resp)
}

func decodeToken(t *testing.T, resp *http.Response) string {
	t.Helper()
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestAuth_IssueAndParse(t *testing.T) {
	a := NewAuth("s3cret", "root")

	tok, err := a.Issue("asha")
	require.NoError(t, err)
	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "asha", c.Sub)
	assert.Equal(t, RoleLearner, c.Role)

	tok, err = a.Issue("root")
	require.NoError(t, err)
	c, err = a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, c.Role)

	_, err = NewAuth("other", "root").Parse(tok)
	assert.Error(t, err, "token signed with a different secret")
}

func TestAuth_Expired(t *testing.T) {
	a := NewAuth("s3cret", "")
	a.now = func() time.Time { return time.Now().Add(-2 * tokenTTL) }
	tok, err := a.Issue("asha")
	require.NoError(t, err)

	_, err = NewAuth("s3cret", "").Parse(tok)
	assert.Error(t, err)
}

func TestTokenHandler_Validation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/auth/token", "", map[string]string{"user_id": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/auth/token", strings.NewReader("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestTokenHandler_AdminNeedsPassword(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"no password", map[string]string{"user_id": "admin"}, http.StatusUnauthorized},
		{"wrong password", map[string]string{"user_id": "admin", "password": "guess"}, http.StatusUnauthorized},
		{"right password", map[string]string{"user_id": "admin", "password": adminPassword}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/auth/token", "", tt.body)
			require.Equal(t, tt.want, resp.StatusCode)
			if tt.want != http.StatusOK {
				return
			}
			c, err := env.auth.Parse(decodeToken(t, resp))
			require.NoError(t, err)
			assert.Equal(t, RoleAdmin, c.Role)
		})
	}
}

func TestTokenHandler_NoAdminHashConfigured(t *testing.T) {
	env := newTestEnv(t, WithDevLogin(true))

	resp := env.do(t, http.MethodPost, "/auth/token", "", map[string]string{"user_id": "admin"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/auth/token", "", map[string]string{"user_id": "admin", "password": adminPassword})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokenHandler_LearnerLoginDisabled(t *testing.T) {
	env := newTestEnv(t, WithAdminPassHash(adminHash(t)))

	resp := env.do(t, http.MethodPost, "/auth/token", "", map[string]string{"user_id": "asha"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// An admin issues the learner's token instead.
	admin := env.token(t, "admin")
	resp = env.do(t, http.MethodPost, "/api/admin/tokens", admin, map[string]string{"user_id": "asha"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	learner := decodeToken(t, resp)

	c, err := env.auth.Parse(learner)
	require.NoError(t, err)
	assert.Equal(t, "asha", c.Sub)
	assert.Equal(t, RoleLearner, c.Role)

	resp = env.do(t, http.MethodGet, "/api/profile", learner, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminTokens(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin")

	resp := env.do(t, http.MethodPost, "/api/admin/tokens", env.token(t, "asha"), map[string]string{"user_id": "kim"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "learner cannot issue tokens")

	resp = env.do(t, http.MethodPost, "/api/admin/tokens", admin, map[string]string{"user_id": "admin"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "admin token without password")

	resp = env.do(t, http.MethodPost, "/api/admin/tokens", admin, map[string]string{"user_id": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuth_Authenticate(t *testing.T) {
	a := NewAuth("secret", "boss")
	assert.ErrorIs(t, a.Authenticate("boss", ""), ErrBadCredentials)
	assert.ErrorIs(t, a.Authenticate("asha", ""), ErrLoginDisabled)

	a = NewAuth("secret", "boss", WithAdminPassHash(adminHash(t)), WithDevLogin(true))
	assert.ErrorIs(t, a.Authenticate("boss", "nope"), ErrBadCredentials)
	assert.NoError(t, a.Authenticate("boss", adminPassword))
	assert.NoError(t, a.Authenticate("asha", ""))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/profile", "/api/curriculum", "/api/admin/stats"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		resp = env.do(t, http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestProfile_NotFoundThenPutThenGet(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "asha")

	resp := env.do(t, http.MethodGet, "/api/profile", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := profile.Default("someone-else", now).
		WithCompleted("intro-basics", now).
		WithStatsDelta(3, 0, now)
	resp = env.do(t, http.MethodPut, "/api/profile", tok, p)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stored, err := env.repo.Load(context.Background(), "asha")
	require.NoError(t, err)
	assert.Equal(t, "asha", stored.UserID, "user comes from the token, not the body")

	resp = env.do(t, http.MethodGet, "/api/profile", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got profile.LearnerProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"intro-basics"}, got.CompletedSections)
	assert.Equal(t, 3, got.Stats.TotalPoints)
}

func TestProfile_PutStoresWithoutGating(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "asha")

	now := time.Now()
	// A day2 section with nothing before it would fail gating; the store
	// accepts it anyway.
	p := profile.Default("asha", now).WithCompleted("day2-qa-soft-pitch", now)
	resp := env.do(t, http.MethodPut, "/api/profile", tok, p)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stored, err := env.repo.Load(context.Background(), "asha")
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted("day2-qa-soft-pitch"))
}

func TestCurriculum_ListsWithoutAnswers(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/curriculum", env.token(t, "asha"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, body.String(), `"answer"`)

	var got CurriculumResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &got))
	require.Len(t, got.Days, 2)
	assert.Len(t, got.Days[0].Sections, 8)
	assert.Len(t, got.Days[1].Sections, 15)
	assert.Equal(t, "intro-basics", got.Days[0].Sections[0].ID)
	assert.Equal(t, 3, got.Days[0].Sections[0].Questions)
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, env.repo.Save(ctx, "a", profile.Default("a", now).
		WithCompleted("s1", now).WithCompleted("s2", now)))
	require.NoError(t, env.repo.Save(ctx, "b", profile.Default("b", now)))

	resp := env.do(t, http.MethodGet, "/api/admin/stats", env.token(t, "asha"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/admin/stats", env.token(t, "admin"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got AdminStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 2, got.TotalUsers)
	assert.Equal(t, 1, got.StartedUsers)
	// 2 of 2*23 sections.
	assert.Equal(t, 4.3, got.AverageProgress)
	require.Len(t, got.Learners, 2)
	assert.Equal(t, 2, got.Learners[0].Completed)
	assert.Equal(t, 9, got.Learners[0].ProgressPercent)
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil, 23)
	assert.Equal(t, 0, got.TotalUsers)
	assert.Equal(t, 0.0, got.AverageProgress)
	assert.NotNil(t, got.Learners)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
