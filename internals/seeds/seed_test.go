package seeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feeModel "schoolerp_backend/internals/features/admissions/fees/model"
)

func TestLoadEmbedded(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)

	require.Len(t, f.Schools, 2)
	assert.Equal(t, "RJGSS08122", f.Schools[0].Code)
	assert.NotEmpty(t, f.Schools[0].Hostel)
	assert.Len(t, f.Fees, 12)

	pairs := map[string]bool{}
	for _, fee := range f.Fees {
		assert.Contains(t, []string{feeModel.FeeCategoryGeneral, feeModel.FeeCategoryReserved}, fee.Category)
		pairs[fee.ClassRange+"/"+fee.Category] = true
	}
	assert.Len(t, pairs, 12, "one row per class range and category")

	for _, u := range f.Users {
		assert.NotEmpty(t, u.Email)
		assert.NotEmpty(t, u.Password)
	}
}

func TestLoadRejectsBadData(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	_, err := Load(write("fee.yaml", "fees:\n  - { class_range: 1-8, category: general, min: 500, max: 100 }\n"))
	assert.ErrorContains(t, err, "max below min")

	_, err = Load(write("room.yaml", `
schools:
  - code: X
    hostel:
      - block: A
        rooms:
          - { number: "1", type: dorm }
`))
	assert.ErrorContains(t, err, "unknown type")

	_, err = Load(write("broken.yaml", "schools: [\n"))
	assert.ErrorContains(t, err, "parse seed file")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read seed file")
}
