package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "DATA_PATH", "ROSTER_DEFAULT_WEEKS", "ROSTER_MAX_WEEKS", "ROSTER_ROLES_FILE", "ADMIN_USERNAME"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "roster.db", cfg.DataPath)
	assert.Equal(t, 8, cfg.DefaultWeeks)
	assert.Equal(t, 104, cfg.MaxWeeks)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, []string{"MC", "TH", "AC1", "AC2", "CB"}, cfg.Roles.Primary)
	assert.Equal(t, [][]string{{"TB1", "TB2"}}, cfg.Roles.Paired)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	rolesPath := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(rolesPath, []byte("primary: [Lead, Helper]\npaired:\n  - [A, B]\n"), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("ROSTER_DEFAULT_WEEKS", "12")
	t.Setenv("ROSTER_MAX_WEEKS", "")
	t.Setenv("ROSTER_ROLES_FILE", rolesPath)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 12, cfg.DefaultWeeks)
	assert.Equal(t, Roles{Primary: []string{"Lead", "Helper"}, Paired: [][]string{{"A", "B"}}}, cfg.Roles)
}

func TestLoad_InvalidWeeks(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ROSTER_DEFAULT_WEEKS", "200")
	t.Setenv("ROSTER_MAX_WEEKS", "")
	t.Setenv("ROSTER_ROLES_FILE", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRoles_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.yaml":  "paired: [[A, B]]\n",
		"dup.yaml":    "primary: [A, A]\n",
		"single.yaml": "primary: [A]\npaired: [[B]]\n",
		"bad.yaml":    "primary: {\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := LoadRoles(path)
		require.ErrorIs(t, err, ErrInvalidRoles, name)
	}
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: "development"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "production"}).IsDevelopment())
	assert.False(t, (&Config{}).IsDevelopment())
}
