package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iamsmart/masterclass/internal/config"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/store"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MASTERCLASS_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("MASTERCLASS_DB", "")
	t.Setenv("MASTERCLASS_DB_DSN", "")
	t.Setenv("MASTERCLASS_DB_DRIVER", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func seedProfile(t *testing.T, dbPath string, p profile.LearnerProfile) {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.ProfileRepo().Save(context.Background(), p.UserID, p))
}

func TestResolveDSN(t *testing.T) {
	dir := isolateEnv(t)

	dsn, err := resolveDSN(versionCmd, config.Config{DBDriver: store.DriverSQLite})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "masterclass", "masterclass.db"), dsn)

	dsn, err = resolveDSN(versionCmd, config.Config{DBDriver: store.DriverSQLite, DBDSN: "file:x?mode=memory"})
	require.NoError(t, err)
	assert.Equal(t, "file:x?mode=memory", dsn)

	_, err = resolveDSN(versionCmd, config.Config{DBDriver: store.DriverPostgres})
	assert.Error(t, err)
}

func TestLoadContent(t *testing.T) {
	c, err := loadContent(config.Config{})
	require.NoError(t, err)
	assert.Equal(t, 23, c.TotalSections())

	bad := filepath.Join(t.TempDir(), "pack.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version": "v1"}`), 0o644))
	_, err = loadContent(config.Config{ContentPath: bad})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "masterclass (devel)")
}

func TestContentValidate_Embedded(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "content", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "2 days, 23 sections")
}

func TestContentList(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "content", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "intro-basics")
	assert.Contains(t, out, "survey final_feedback")
}

func TestStatsAndReset(t *testing.T) {
	dir := isolateEnv(t)
	db := filepath.Join(dir, "test.db")

	p := profile.Default("asha", time.Now())
	p = p.WithCompleted("intro-basics", time.Now())
	p = p.WithStatsDelta(3, 1, time.Now())
	seedProfile(t, db, p)

	out, err := run(t, "stats", "--db", db, "--user", "asha")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress:   1/23 sections (4%)")
	assert.Contains(t, out, "Points:     2")
	assert.Contains(t, out, "LMS Pioneer")

	out, err = run(t, "reset", "--db", db, "--user", "asha")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset asha.")

	out, err = run(t, "stats", "--db", db, "--user", "asha")
	require.NoError(t, err)
	assert.Contains(t, out, "No progress recorded for asha.")
}

func TestEvents_Empty(t *testing.T) {
	dir := isolateEnv(t)
	db := filepath.Join(dir, "events.db")
	out, err := run(t, "events", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No progress events found.")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcd…", clip("abcdefgh", 5))
}

func TestHashPassword(t *testing.T) {
	isolateEnv(t)
	rootCmd.SetIn(strings.NewReader("hunter2\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := run(t, "hash-password")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, hashCost, cost)

	rootCmd.SetIn(strings.NewReader("\n"))
	_, err = run(t, "hash-password")
	assert.ErrorContains(t, err, "empty password")
}
