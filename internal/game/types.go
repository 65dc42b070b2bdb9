package game

import (
	"time"
)

type RoundPhase string

const (
	PhaseOpen           RoundPhase = "Open"
	PhaseAwaitingReveal RoundPhase = "AwaitingReveal"
	PhaseResolved       RoundPhase = "Resolved"
)

// MaxNameLen bounds display names; longer names are truncated, not rejected.
const MaxNameLen = 20

type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Online   bool      `json:"online"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PlayerInfo is one entry of the players broadcast: durable id, display
// name, online flag and cumulative score.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
	Score  int    `json:"score"`
}

// SideResult is one half of a round result.
type SideResult struct {
	Secret  string `json:"secret"`
	Guess   string `json:"guess"`
	Correct bool   `json:"correct"`
}

// RoundResult is the personalized payload unicast to one scoring-pair
// member. It carries the opponent's secret, so it must never reach
// spectators.
type RoundResult struct {
	You      SideResult `json:"you"`
	Opponent SideResult `json:"opponent"`
}

// Resolution is the outcome of one resolved round, keyed by durable
// participant id. Exactly the two pair members appear in Results.
type Resolution struct {
	Round   int
	Results map[string]RoundResult
}
