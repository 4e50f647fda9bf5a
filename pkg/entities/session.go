package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameKind identifies a wagering minigame
type GameKind string

const (
	GameWheel    GameKind = "wheel"
	GameKeno     GameKind = "keno"
	GameBaccarat GameKind = "baccarat"
	GamePlinko   GameKind = "plinko"
	GameDice     GameKind = "dice"
	GameCoinflip GameKind = "coinflip"
)

// AllGames lists every game kind in display order
var AllGames = []GameKind{GameWheel, GameKeno, GameBaccarat, GamePlinko, GameDice, GameCoinflip}

// Phase is the lifecycle position of a wagering session
type Phase string

const (
	PhaseCreated       Phase = "CREATED"
	PhaseAwaitingInput Phase = "AWAITING_INPUT"
	PhaseResolving     Phase = "RESOLVING"
	PhaseSettled       Phase = "SETTLED"
	PhaseCancelled     Phase = "CANCELLED"
	PhaseExpired       Phase = "EXPIRED"
)

// IsTerminal reports whether no further transition may leave this phase
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseSettled, PhaseCancelled, PhaseExpired:
		return true
	}
	return false
}

// Selections holds the game specific player choices
type Selections struct {
	Choice  string `json:"choice,omitempty"`  // side, color, risk tier
	Numbers []int  `json:"numbers,omitempty"` // picked numbers, in pick order
}

// HasNumber reports whether n is among the picked numbers
func (s Selections) HasNumber(n int) bool {
	for _, picked := range s.Numbers {
		if picked == n {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no backing array with s
func (s Selections) Clone() Selections {
	return Selections{
		Choice:  s.Choice,
		Numbers: append([]int(nil), s.Numbers...),
	}
}

// Result represents how a resolved wager turned out for the player
type Result string

const (
	ResultWin    Result = "WIN"
	ResultLose   Result = "LOSE"
	ResultPush   Result = "PUSH"
	ResultRefund Result = "REFUND" // cancelled or expired, stake returned
)

// Outcome is the resolver verdict for one session
type Outcome struct {
	Result     Result          `json:"result"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     int64           `json:"payout"`
	Detail     string          `json:"detail"`
}

// Won reports whether the player came out ahead; a 1x push is not a win
func (o *Outcome) Won() bool {
	return o.Result == ResultWin
}

// Session is one in-progress wager
type Session struct {
	ID         string     `json:"id"`
	PlayerID   string     `json:"player_id"`
	Game       GameKind   `json:"game"`
	Phase      Phase      `json:"phase"`
	Escrow     int64      `json:"escrow"`
	Selections Selections `json:"selections"`

	// Outcome is recorded on entering Resolving so a failed payout can be retried
	Outcome *Outcome `json:"outcome,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether the input deadline passed while still open
func (s *Session) IsExpired(now time.Time) bool {
	return !s.Phase.IsTerminal() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Selections = s.Selections.Clone()
	if s.Outcome != nil {
		o := *s.Outcome
		c.Outcome = &o
	}
	return &c
}
