package exec

import (
	"github.com/FranksOps/prospect/internal/plan"
	"github.com/FranksOps/prospect/internal/storage"
)

// UnderservedCities returns the plan cities whose web-phase lead count fell
// below half the mean across all cities. Those markets get a maps supplement
// pass, which tends to surface businesses with weak web presence.
func UnderservedCities(leads []*storage.Lead, cities []plan.CityTarget) []plan.CityTarget {
	if len(cities) == 0 {
		return nil
	}

	counts := map[string]int{}
	for _, l := range leads {
		if l.Source != "maps" {
			counts[l.City]++
		}
	}

	total := 0
	for _, c := range cities {
		total += counts[c.City]
	}
	if total == 0 {
		return append([]plan.CityTarget(nil), cities...)
	}

	mean := float64(total) / float64(len(cities))
	var out []plan.CityTarget
	for _, c := range cities {
		if float64(counts[c.City]) < mean/2 {
			out = append(out, c)
		}
	}
	return out
}
