package points

// Tier is a named membership bracket derived solely from cumulative points.
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

// tierFloors lists inclusive lower bounds, highest first.
var tierFloors = []struct {
	floor int
	tier  Tier
}{
	{10000, TierDiamond},
	{5000, TierPlatinum},
	{2500, TierGold},
	{1000, TierSilver},
	{0, TierBronze},
}

// Classify maps a cumulative point total to its tier.
func Classify(totalPoints int) Tier {
	for _, b := range tierFloors {
		if totalPoints >= b.floor {
			return b.tier
		}
	}
	return TierBronze
}
