package emergency

import (
	"os"
	"path/filepath"
	"testing"

	"homeguard-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCatalog_BuiltinTypes(t *testing.T) {
	c := NewCatalog(zap.NewNop())

	all := c.All()
	assert.Len(t, all, 10)

	fire, err := c.Get(models.EmergencyFire)
	require.NoError(t, err)
	assert.Equal(t, 5, fire.BaseSeverity)
	assert.NotEmpty(t, fire.ResponseProtocol)
	assert.NotEmpty(t, fire.RecoverySteps)

	// medical defines no recovery steps: resolve must yield a nil plan
	medical, err := c.Get(models.EmergencyMedical)
	require.NoError(t, err)
	assert.Empty(t, medical.RecoverySteps)
}

func TestCatalog_GetUnknown(t *testing.T) {
	c := NewCatalog(zap.NewNop())

	_, err := c.Get("volcano")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCatalog_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
types:
  - id: fire
    label: Fire (site-specific)
    base_severity: 4
    response_protocol:
      - kind: activate_lighting
        description: Activate emergency lighting
  - id: chemical-spill
    label: Chemical Spill
    base_severity: 4
    response_protocol:
      - kind: ventilate
        description: Ventilate affected area
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := NewCatalogFromFile(path, zap.NewNop())
	require.NoError(t, err)

	fire, err := c.Get(models.EmergencyFire)
	require.NoError(t, err)
	assert.Equal(t, 4, fire.BaseSeverity)
	assert.Len(t, fire.ResponseProtocol, 1)

	spill, err := c.Get("chemical-spill")
	require.NoError(t, err)
	assert.Equal(t, models.ActionVentilate, spill.ResponseProtocol[0].Kind)

	assert.Len(t, c.All(), 11)
}

func TestCatalog_FileValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
types:
  - id: badtype
    base_severity: 9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewCatalogFromFile(path, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrValidation)
}
