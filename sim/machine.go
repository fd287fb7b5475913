package sim

import "fmt"

// Tier is a processing-rate class shared by a contiguous band of machines
// within every site.
type Tier struct {
	Name string  `yaml:"name"`
	Rate float64 `yaml:"rate"` // MIPS-equivalent processing rate
}

// MachinePool is the read-only capacity model the optimizer assigns tasks to.
// Machine ids are global: site s (1-based) owns ids [(s-1)*W, s*W) where
// W = MachinesPerSite. Within a site, the residue gene mod W is split into
// len(Tiers) equal bands, lowest band first.
type MachinePool struct {
	Sites           int
	MachinesPerSite int
	Tiers           []Tier
}

// DefaultMachinePool returns the reference pool: 6 sites of 9 machines,
// three tiers at 400/500/600.
func DefaultMachinePool() *MachinePool {
	return &MachinePool{
		Sites:           6,
		MachinesPerSite: 9,
		Tiers: []Tier{
			{Name: "small", Rate: 400},
			{Name: "medium", Rate: 500},
			{Name: "large", Rate: 600},
		},
	}
}

// Validate checks that the pool is non-empty and every tier band is non-empty.
func (p *MachinePool) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: machine pool is nil", ErrInvalidConfig)
	}
	if p.Sites <= 0 {
		return fmt.Errorf("%w: site count must be positive, got %d", ErrInvalidConfig, p.Sites)
	}
	if p.MachinesPerSite <= 0 {
		return fmt.Errorf("%w: machines per site must be positive, got %d", ErrInvalidConfig, p.MachinesPerSite)
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("%w: at least one speed tier is required", ErrInvalidConfig)
	}
	if len(p.Tiers) > p.MachinesPerSite {
		return fmt.Errorf("%w: %d tiers cannot be split over %d machines per site", ErrInvalidConfig, len(p.Tiers), p.MachinesPerSite)
	}
	for i, t := range p.Tiers {
		if t.Rate <= 0 {
			return fmt.Errorf("%w: tier %d (%q) rate must be positive, got %f", ErrInvalidConfig, i, t.Name, t.Rate)
		}
	}
	return nil
}

// TotalMachines returns Sites * MachinesPerSite.
func (p *MachinePool) TotalMachines() int {
	return p.Sites * p.MachinesPerSite
}

// SiteRange returns the half-open machine id range [lo, hi) of a 1-based site.
func (p *MachinePool) SiteRange(site int) (lo, hi int) {
	lo = (site - 1) * p.MachinesPerSite
	return lo, lo + p.MachinesPerSite
}

// ValidSite reports whether site is a 1-based site id of this pool.
func (p *MachinePool) ValidSite(site int) bool {
	return site >= 1 && site <= p.Sites
}

// TierOf resolves the speed tier of a machine id. Ids outside
// [0, TotalMachines()) belong to no tier.
func (p *MachinePool) TierOf(gene int) (Tier, bool) {
	if gene < 0 || gene >= p.TotalMachines() {
		return Tier{}, false
	}
	band := (gene % p.MachinesPerSite) * len(p.Tiers) / p.MachinesPerSite
	return p.Tiers[band], true
}
