package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildoasis/booking/internal/crypto"
)

// useTempSite points the configuration at a throwaway database.
func useTempSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "site.db")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("STORAGE_UPLOADS_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("ENCRYPTION_KEY", "")
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv(passwordEnv, "")
	return dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "wildoasis 1.2.3 (abc123)\n", out)
}

func TestRootCommand_RejectsUnknownArgs(t *testing.T) {
	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}

func TestGenerateKeyCommand(t *testing.T) {
	out, err := execute(t, "gen-key")
	require.NoError(t, err)

	_, err = crypto.NewFieldCipherFromBase64(strings.TrimSpace(out))
	assert.NoError(t, err, "printed key should be usable as ENCRYPTION_KEY")
}

func TestCreateAdminCommand(t *testing.T) {
	useTempSite(t)

	out, err := execute(t, "create-admin", "--username", "karen", "--email", "karen@wildoasis.example", "--password", "correct-horse-battery")
	require.NoError(t, err)
	assert.Contains(t, out, `Created admin account "karen"`)

	_, err = execute(t, "create-admin", "--username", "karen", "--email", "other@wildoasis.example", "--password", "correct-horse-battery")
	assert.Error(t, err, "usernames are unique")

	t.Setenv(passwordEnv, "another-long-password")
	out, err = execute(t, "create-admin", "--username", "front-desk", "--email", "desk@wildoasis.example", "--staff")
	require.NoError(t, err)
	assert.Contains(t, out, `Created staff account "front-desk"`)
}

func TestCreateAdminCommand_Validation(t *testing.T) {
	useTempSite(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing password", []string{"--username", "karen", "--email", "karen@wildoasis.example"}},
		{"short password", []string{"--username", "karen", "--email", "karen@wildoasis.example", "--password", "short"}},
		{"missing email flag", []string{"--username", "karen", "--password", "correct-horse-battery"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"create-admin"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestSeedCommand(t *testing.T) {
	dbPath := useTempSite(t)

	_, err := execute(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out, err := execute(t, "seed", "--yes", "--bookings", "5", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 4 cabins, 4 guests")
	assert.Contains(t, out, dbPath)
}

func TestSeedCommand_CustomFixtures(t *testing.T) {
	useTempSite(t)

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	fixtures := `settings: {min_booking_length: 2, max_booking_length: 10, max_guests_per_booking: 4, breakfast_price: 12}
cabins:
  - {name: "101", max_capacity: 2, regular_price: 150, description: "Tiny"}
`
	require.NoError(t, os.WriteFile(path, []byte(fixtures), 0o644))

	out, err := execute(t, "seed", "-y", "--fixtures", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 1 cabins, 0 guests and 0 bookings")

	_, err = execute(t, "seed", "-y", "--fixtures", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
