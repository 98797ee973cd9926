// Package regions groups city names into named regions for partial
// location-match credit. The table is built once at startup and read-only
// afterwards.
package regions

// Classifier answers whether two cities belong to at least one common region.
// Membership is by value: a city may appear in several regions, and region
// names themselves never participate in matching.
type Classifier struct {
	table      map[string][]string
	membership map[string]map[string]struct{} // city -> set of region names
}

// NewClassifier builds an immutable classifier from a region table. The input
// map is copied; later mutation of the argument does not affect the
// classifier.
func NewClassifier(table map[string][]string) *Classifier {
	c := &Classifier{
		table:      make(map[string][]string, len(table)),
		membership: make(map[string]map[string]struct{}),
	}

	for region, cities := range table {
		members := make([]string, len(cities))
		copy(members, cities)
		c.table[region] = members

		for _, city := range cities {
			set, ok := c.membership[city]
			if !ok {
				set = make(map[string]struct{})
				c.membership[city] = set
			}
			set[region] = struct{}{}
		}
	}

	return c
}

// SameRegion reports whether both cities appear in the member list of at
// least one common region. Symmetric by construction. A city absent from the
// table shares a region with nothing, including itself; callers compare for
// exact equality before consulting the classifier.
func (c *Classifier) SameRegion(a, b string) bool {
	regionsA, ok := c.membership[a]
	if !ok {
		return false
	}
	regionsB, ok := c.membership[b]
	if !ok {
		return false
	}

	// Iterate the smaller set
	if len(regionsB) < len(regionsA) {
		regionsA, regionsB = regionsB, regionsA
	}
	for region := range regionsA {
		if _, ok := regionsB[region]; ok {
			return true
		}
	}
	return false
}

// Regions returns the number of regions in the table.
func (c *Classifier) Regions() int {
	return len(c.table)
}

// Members returns a copy of a region's member list, or nil if the region is
// not in the table.
func (c *Classifier) Members(region string) []string {
	cities, ok := c.table[region]
	if !ok {
		return nil
	}
	out := make([]string, len(cities))
	copy(out, cities)
	return out
}
