package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultName = "Player"

// Room holds all state for one room code: participants, the scoring
// pair, the cumulative score ledger and the current round. Every
// mutation runs under the room mutex, including commitment
// verification, so handlers for the same room never interleave
// mid-mutation.
type Room struct {
	Code string

	mu    sync.Mutex
	round int
	phase RoundPhase

	participants map[string]*Participant
	joinOrder    []string
	pair         []string // durable ids of the scoring pair, join order, max 2

	scores map[string]int

	commits   map[string]string
	secrets   map[string]string
	nonces    map[string]string
	guesses   map[string]string
	submitted map[string]bool
	revealed  map[string]bool
	resolved  map[int]bool

	lastActive time.Time
}

func newRoom(code string) *Room {
	return &Room{
		Code:         code,
		round:        1,
		phase:        PhaseOpen,
		participants: make(map[string]*Participant),
		scores:       make(map[string]int),
		commits:      make(map[string]string),
		secrets:      make(map[string]string),
		nonces:       make(map[string]string),
		guesses:      make(map[string]string),
		submitted:    make(map[string]bool),
		revealed:     make(map[string]bool),
		resolved:     make(map[int]bool),
		lastActive:   time.Now().UTC(),
	}
}

// Update reports what a commit/guess/reveal event changed. OK is false
// when the event was dropped; the protocol never surfaces that to the
// sender, it exists for logs and tests.
type Update struct {
	OK bool
	// EnteredAwaitingReveal is set on the event that completed the
	// Open -> AwaitingReveal transition; the caller broadcasts
	// reveal:request.
	EnteredAwaitingReveal bool
	// Resolution is non-nil when this event resolved the round.
	Resolution *Resolution
}

// Join registers a participant under a durable id, issuing a fresh one
// when the client has none. Rejoining under a known id reclaims the
// same identity: name, seat and score survive, only the online flag
// flips. The first two distinct joiners claim the scoring-pair seats.
func (r *Room) Join(participantID, name string) (id string, rejoined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	if participantID != "" {
		if p, ok := r.participants[participantID]; ok {
			p.Online = true
			return participantID, true
		}
	}

	id = participantID
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		name = defaultName
	}
	p := &Participant{ID: id, Name: truncateName(name), Online: true, JoinedAt: time.Now().UTC()}
	r.participants[id] = p
	r.joinOrder = append(r.joinOrder, id)
	if _, ok := r.scores[id]; !ok {
		r.scores[id] = 0
	}
	if len(r.pair) < 2 {
		r.pair = append(r.pair, id)
	}
	return id, false
}

// SetName updates a participant's display name, truncated to
// MaxNameLen runes. Returns the stored name.
func (r *Room) SetName(participantID, name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	p, ok := r.participants[participantID]
	if !ok {
		return "", false
	}
	if name == "" {
		name = defaultName
	}
	p.Name = truncateName(name)
	return p.Name, true
}

// SetOffline marks a participant offline. Participants are never
// removed; round state and scores are untouched.
func (r *Room) SetOffline(participantID string) (name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, found := r.participants[participantID]
	if !found {
		return "", false
	}
	p.Online = false
	return p.Name, true
}

// Commit stores a commitment hash and clears any previously revealed
// secret for that participant, so a re-commit before reveal starts
// clean. Re-commits are only accepted while the round is still Open;
// once both guesses are in, changing the secret is cheating.
func (r *Room) Commit(participantID, commitHash string) Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	if commitHash == "" || r.phase != PhaseOpen {
		return Update{}
	}
	if _, ok := r.participants[participantID]; !ok {
		return Update{}
	}
	r.commits[participantID] = commitHash
	delete(r.secrets, participantID)
	delete(r.nonces, participantID)
	delete(r.revealed, participantID)

	u := Update{OK: true, EnteredAwaitingReveal: r.refreshPhaseLocked()}
	u.Resolution = r.tryResolveLocked()
	return u
}

// SubmitGuess records the participant's single guess for the current
// round. A second guess in the same round is dropped and the first
// stands.
func (r *Room) SubmitGuess(participantID, guessID string) Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	if guessID == "" || r.phase == PhaseResolved {
		return Update{}
	}
	if _, ok := r.participants[participantID]; !ok {
		return Update{}
	}
	if r.submitted[participantID] {
		return Update{}
	}
	r.guesses[participantID] = guessID
	r.submitted[participantID] = true

	u := Update{OK: true, EnteredAwaitingReveal: r.refreshPhaseLocked()}
	u.Resolution = r.tryResolveLocked()
	return u
}

// Reveal verifies a (secret, nonce) pair against the stored commitment.
// On mismatch the reveal is dropped with no stored state and no signal
// to the caller; anything else would hand clients a verification
// oracle over the small secret domain.
func (r *Room) Reveal(participantID, secretID, nonceHex string) Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()

	if secretID == "" || r.phase == PhaseResolved {
		return Update{}
	}
	commit, ok := r.commits[participantID]
	if !ok {
		return Update{}
	}
	if !VerifyCommitment(commit, secretID, nonceHex) {
		return Update{}
	}
	r.secrets[participantID] = secretID
	r.nonces[participantID] = nonceHex
	r.revealed[participantID] = true

	u := Update{OK: true, EnteredAwaitingReveal: r.refreshPhaseLocked()}
	u.Resolution = r.tryResolveLocked()
	return u
}

// refreshPhaseLocked advances Open -> AwaitingReveal once both pair
// members hold a guess and a commitment. Returns true on the
// transition.
func (r *Room) refreshPhaseLocked() bool {
	if r.phase != PhaseOpen || len(r.pair) < 2 {
		return false
	}
	a, b := r.pair[0], r.pair[1]
	if r.submitted[a] && r.submitted[b] && r.commits[a] != "" && r.commits[b] != "" {
		r.phase = PhaseAwaitingReveal
		return true
	}
	return false
}

// tryResolveLocked evaluates the resolution guard: both pair members
// have a guess and a verified reveal and the round is not already in
// the resolved set. The guard is commutative in the two participants'
// arrival order, and marking the round resolved happens in the same
// critical section as the score increments, so a duplicate trigger can
// never re-score.
func (r *Room) tryResolveLocked() *Resolution {
	if len(r.pair) < 2 {
		return nil
	}
	a, b := r.pair[0], r.pair[1]
	if !r.submitted[a] || !r.submitted[b] {
		return nil
	}
	if !r.revealed[a] || !r.revealed[b] {
		return nil
	}
	if r.resolved[r.round] {
		return nil
	}
	r.resolved[r.round] = true
	r.phase = PhaseResolved

	aCorrect := r.guesses[a] == r.secrets[b]
	bCorrect := r.guesses[b] == r.secrets[a]
	if aCorrect {
		r.scores[a]++
	}
	if bCorrect {
		r.scores[b]++
	}

	return &Resolution{
		Round: r.round,
		Results: map[string]RoundResult{
			a: {
				You:      SideResult{Secret: r.secrets[a], Guess: r.guesses[a], Correct: aCorrect},
				Opponent: SideResult{Secret: r.secrets[b], Guess: r.guesses[b], Correct: bCorrect},
			},
			b: {
				You:      SideResult{Secret: r.secrets[b], Guess: r.guesses[b], Correct: bCorrect},
				Opponent: SideResult{Secret: r.secrets[a], Guess: r.guesses[a], Correct: aCorrect},
			},
		},
	}
}

// ResetRound replaces the round state wholesale and bumps the round
// counter. Participants, seats and scores survive.
func (r *Room) ResetRound() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked()
	r.resetRoundLocked()
	return r.round
}

// ForfeitRound abandons a round stuck in AwaitingReveal: the round
// number enters the resolved set with no score changes and a fresh
// round opens. No-op unless the given round is still the current one
// and still awaiting reveals, so a stale timer cannot clobber a round
// that completed or was reset in the meantime.
func (r *Room) ForfeitRound(round int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.round != round || r.phase != PhaseAwaitingReveal {
		return false
	}
	r.resolved[round] = true
	r.resetRoundLocked()
	return true
}

func (r *Room) resetRoundLocked() {
	r.round++
	r.phase = PhaseOpen
	r.commits = make(map[string]string)
	r.secrets = make(map[string]string)
	r.nonces = make(map[string]string)
	r.guesses = make(map[string]string)
	r.submitted = make(map[string]bool)
	r.revealed = make(map[string]bool)
}

// Players returns the broadcast view of the room in join order.
func (r *Room) Players() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]PlayerInfo, 0, len(r.joinOrder))
	for _, id := range r.joinOrder {
		p := r.participants[id]
		out = append(out, PlayerInfo{ID: p.ID, Name: p.Name, Online: p.Online, Score: r.scores[id]})
	}
	return out
}

func (r *Room) Name(participantID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.participants[participantID]; ok {
		return p.Name
	}
	return ""
}

func (r *Room) Score(participantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[participantID]
}

func (r *Room) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func (r *Room) Phase() RoundPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// IsPairMember reports whether the participant holds a scoring seat.
func (r *Room) IsPairMember(participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.pair {
		if id == participantID {
			return true
		}
	}
	return false
}

func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

func (r *Room) touchLocked() {
	r.lastActive = time.Now().UTC()
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > MaxNameLen {
		return string(runes[:MaxNameLen])
	}
	return name
}
