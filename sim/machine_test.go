package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachinePool_TierOf_DefaultBands(t *testing.T) {
	pool := DefaultMachinePool()
	tests := []struct {
		gene     int
		wantName string
		wantOK   bool
	}{
		{0, "small", true},
		{2, "small", true},
		{3, "medium", true},
		{5, "medium", true},
		{6, "large", true},
		{8, "large", true},
		{9, "small", true}, // first machine of site 2
		{53, "large", true},
		{54, "", false},
		{-1, "", false},
	}
	for _, tt := range tests {
		tier, ok := pool.TierOf(tt.gene)
		assert.Equal(t, tt.wantOK, ok, "gene %d", tt.gene)
		assert.Equal(t, tt.wantName, tier.Name, "gene %d", tt.gene)
	}
}

func TestMachinePool_TierOf_UnevenBands(t *testing.T) {
	// GIVEN 4 machines per site split over 3 tiers
	pool := &MachinePool{Sites: 1, MachinesPerSite: 4, Tiers: []Tier{{"a", 1}, {"b", 2}, {"c", 3}}}
	require.NoError(t, pool.Validate())

	// THEN bands are floor(r*3/4): 0,0,1,2 and every tier is used
	want := []string{"a", "a", "b", "c"}
	for gene, name := range want {
		tier, ok := pool.TierOf(gene)
		require.True(t, ok)
		assert.Equal(t, name, tier.Name, "gene %d", gene)
	}
}

func TestMachinePool_SiteRange(t *testing.T) {
	pool := DefaultMachinePool()
	lo, hi := pool.SiteRange(1)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 9, hi)
	lo, hi = pool.SiteRange(6)
	assert.Equal(t, 45, lo)
	assert.Equal(t, 54, hi)
	assert.Equal(t, 54, pool.TotalMachines())
	assert.False(t, pool.ValidSite(0))
	assert.False(t, pool.ValidSite(7))
}

func TestMachinePool_Validate(t *testing.T) {
	tests := []struct {
		name string
		pool *MachinePool
	}{
		{"nil", nil},
		{"zero sites", &MachinePool{Sites: 0, MachinesPerSite: 9, Tiers: []Tier{{"x", 1}}}},
		{"zero machines", &MachinePool{Sites: 1, MachinesPerSite: 0, Tiers: []Tier{{"x", 1}}}},
		{"no tiers", &MachinePool{Sites: 1, MachinesPerSite: 9}},
		{"more tiers than machines", &MachinePool{Sites: 1, MachinesPerSite: 1, Tiers: []Tier{{"x", 1}, {"y", 2}}}},
		{"zero rate", &MachinePool{Sites: 1, MachinesPerSite: 9, Tiers: []Tier{{"x", 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.pool.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, DefaultMachinePool().Validate())
}
