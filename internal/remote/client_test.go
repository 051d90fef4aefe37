package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/server"
	"github.com/iamsmart/masterclass/internal/store"
)

func newServer(t *testing.T, opts ...server.AuthOption) *httptest.Server {
	t.Helper()
	if opts == nil {
		opts = []server.AuthOption{server.WithDevLogin(true)}
	}
	st, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s, err := server.New(server.Options{Profiles: st.ProfileRepo(), Auth: server.NewAuth("k", "admin", opts...)})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	c, err := Login(ctx, srv.URL+"/", "asha")
	require.NoError(t, err)
	require.NotEmpty(t, c.Token())

	_, err = c.Load(ctx, "asha")
	assert.ErrorIs(t, err, profile.ErrNotFound)

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := profile.Default("asha", now).
		WithCompleted("intro-basics", now).
		WithSurvey(profile.OutcomeSurvey, map[string]string{"goal": "x"}, now)
	require.NoError(t, c.Save(ctx, "asha", p))

	got, err := c.Load(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, "asha", got.UserID)
	assert.Equal(t, []string{"intro-basics"}, got.CompletedSections)
	assert.True(t, got.HasSurvey(profile.OutcomeSurvey))
}

func TestLogin_RefusedWithoutDevLogin(t *testing.T) {
	srv := newServer(t, server.WithDevLogin(false))

	_, err := Login(context.Background(), srv.URL, "asha")
	var se *StatusError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestClient_BadToken(t *testing.T) {
	srv := newServer(t)
	c := New(srv.URL, "not-a-token")

	_, err := c.Load(context.Background(), "asha")
	var se *StatusError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.NotErrorIs(t, err, profile.ErrNotFound)
}

func TestClient_Unreachable(t *testing.T) {
	srv := newServer(t)
	url := srv.URL
	srv.Close()

	err := New(url, "t").Save(context.Background(), "asha", profile.Default("asha", time.Now()))
	assert.Error(t, err)
}
