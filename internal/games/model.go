package games

// Game statuses mirror the catalog rows; only ACTIVE games are listed.
const StatusActive = "ACTIVE"

// Game is a catalog entry with its playable variants.
type Game struct {
	ID       string
	Code     string
	Name     string
	Type     string
	Status   string
	Variants []Variant
}

// Variant is one playable configuration of a game with its bet limits in
// minor units.
type Variant struct {
	ID               string
	GameID           string
	Name             string
	MinBet           int64
	MaxBet           int64
	HouseEdgePercent float64
	Status           string
}
