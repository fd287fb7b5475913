package sim

// TaskIndex maps gene slot i of a 1-based site within window g to the global
// task index g*S*W + (site-1)*W + i.
func TaskIndex(window, site, slot, sites, perSite int) int {
	return window*sites*perSite + (site-1)*perSite + slot
}

// WindowCount returns how many complete windows of sites*perSite tasks fit in
// totalTasks. Windows are indexed 0..WindowCount-1; tasks past the last
// complete window are not scheduled.
func WindowCount(totalTasks, sites, perSite int) int {
	span := sites * perSite
	if span <= 0 || totalTasks <= 0 {
		return 0
	}
	return totalTasks / span
}
