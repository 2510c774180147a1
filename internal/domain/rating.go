package domain

// Rating is a player's skill estimate within one ranking.
type Rating struct {
	Mu    float64
	Sigma float64
}
