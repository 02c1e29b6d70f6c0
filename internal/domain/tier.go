package domain

// Tier is a named level band. Max is exclusive; zero Max means unbounded.
type Tier struct {
	Name string
	Min  int
	Max  int
}

// Tiers is the ordered tier table. First matching range wins. Levels below
// the lowest bound, and levels in the 9000-10000 gap, carry no tier.
var Tiers = []Tier{
	{Name: "800-1000", Min: 800, Max: 1000},
	{Name: "1000-2000", Min: 1000, Max: 2000},
	{Name: "2000-3000", Min: 2000, Max: 3000},
	{Name: "3000-4000", Min: 3000, Max: 4000},
	{Name: "4000-5000", Min: 4000, Max: 5000},
	{Name: "5000-6000", Min: 5000, Max: 6000},
	{Name: "6000-7000", Min: 6000, Max: 7000},
	{Name: "7000-8000", Min: 7000, Max: 8000},
	{Name: "8000-9000", Min: 8000, Max: 9000},
	{Name: "10K+", Min: 10000},
}

// TierForLevel maps a level to its tier role name via first-matching range.
func TierForLevel(level int) (string, bool) {
	for _, tier := range Tiers {
		if level < tier.Min {
			continue
		}
		if tier.Max == 0 || level < tier.Max {
			return tier.Name, true
		}
	}
	return "", false
}

// IsTierRole reports whether the role name belongs to the tier table.
func IsTierRole(name string) bool {
	for _, tier := range Tiers {
		if tier.Name == name {
			return true
		}
	}
	return false
}
