package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	r := Default()

	assert.Greater(t, r.Len(), 0)
	assert.True(t, r.Contains("chase.com"))
	assert.True(t, r.Contains("paypal.com"))
	assert.False(t, r.Contains("example-bank.com"))
}

func TestLoadFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeTempRegistry(t, `
- domain: Example-Bank.com
  institution_name: Example Bank
- domain: credit-union.org
  institution_name: Credit Union
`)

		r, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, 2, r.Len())
		// Domains are lowercased on load.
		assert.True(t, r.Contains("example-bank.com"))
		assert.Equal(t, "Example Bank", r.Entries()[0].InstitutionName)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTempRegistry(t, "[]\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("entry without domain", func(t *testing.T) {
		path := writeTempRegistry(t, "- institution_name: Nameless\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func writeTempRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
