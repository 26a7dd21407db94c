package analyzer

// EstimateAuthority maps a raw backlink count to a 0-100 authority figure.
// The buckets are deliberately coarse; real authority metrics are paid APIs
// and this only needs to rank candidates against each other.
func EstimateAuthority(backlinks int) int {
	switch {
	case backlinks <= 0:
		return 1
	case backlinks < 5:
		return 5
	case backlinks < 10:
		return 10
	case backlinks < 25:
		return 15
	case backlinks < 50:
		return 20
	case backlinks < 100:
		return 30
	case backlinks < 250:
		return 40
	case backlinks < 500:
		return 50
	case backlinks < 1000:
		return 60
	case backlinks < 5000:
		return 70
	default:
		da := 75 + backlinks/10000
		if da > 100 {
			da = 100
		}
		return da
	}
}

// EstimateBacklinksFromSnapshots guesses a backlink count when no backlink
// API is available. Archived pages tend to have been linked from somewhere,
// so three links per snapshot is a usable floor.
func EstimateBacklinksFromSnapshots(snapshots int) int {
	if snapshots <= 0 {
		return 0
	}
	return snapshots * 3
}
