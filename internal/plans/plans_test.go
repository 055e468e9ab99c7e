// internal/plans/plans_test.go
package plans

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidCatalog(t *testing.T) {
	path := writeCatalog(t, `
plans:
  - code: starter
    name: Starter
    amount: 2500000
    currency: NGN
    interval: monthly
    features:
      - "Up to 50 suppliers"
  - code: growth
    name: Growth
    amount: 7500000
    currency: NGN
    interval: monthly
`)

	catalog, err := Load(path)
	require.NoError(t, err)
	require.Len(t, catalog.Plans(), 2)
	assert.Equal(t, "starter", catalog.Plans()[0].Code)

	growth, ok := catalog.ByCode("growth")
	require.True(t, ok)
	assert.Equal(t, int64(7500000), growth.Amount)

	_, ok = catalog.ByCode("enterprise")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEmptyCatalog(t *testing.T) {
	path := writeCatalog(t, "plans: []\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plans")
}

func TestLoadPlanWithoutCode(t *testing.T) {
	path := writeCatalog(t, `
plans:
  - name: Nameless
    amount: 100
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without code")
}

func TestLoadNonPositiveAmount(t *testing.T) {
	path := writeCatalog(t, `
plans:
  - code: free
    name: Free
    amount: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-positive amount")
}

func TestLoadDuplicateCode(t *testing.T) {
	path := writeCatalog(t, `
plans:
  - code: starter
    name: Starter
    amount: 100
  - code: starter
    name: Starter again
    amount: 200
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate plan code")
}
