package channel

import (
	"strings"
	"testing"
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  shroud ")
	require.NoError(t, err)
	assert.Equal(t, "shroud", name)

	_, err = NormalizeName("   ")
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)

	_, err = NormalizeName(strings.Repeat("x", MaxNameLength+1))
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)
}

func TestPatchNormalize(t *testing.T) {
	negative := int64(-1)
	_, err := Patch{TotalPointsEarned: &negative}.Normalize()
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)
	_, err = Patch{TotalWatchTimeMinutes: &negative}.Normalize()
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)

	name := " xqc "
	local := time.Date(2026, 10, 1, 12, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	p, err := Patch{Name: &name, LastActive: &local}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "xqc", *p.Name)
	assert.Equal(t, time.UTC, p.LastActive.Location())
	assert.Equal(t, " xqc ", name, "caller's value is not modified")
}

func TestApplyOnlySetFields(t *testing.T) {
	c := &Channel{Name: "shroud", TotalPointsEarned: 10, TotalWatchTimeMinutes: 5}
	points := int64(250)
	c.Apply(Patch{TotalPointsEarned: &points})

	assert.Equal(t, "shroud", c.Name)
	assert.Equal(t, int64(250), c.TotalPointsEarned)
	assert.Equal(t, int64(5), c.TotalWatchTimeMinutes)
	assert.True(t, Patch{}.IsEmpty())
}
