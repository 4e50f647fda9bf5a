package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is the history entry written when a session terminates
type SettlementRecord struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	PlayerID   string          `json:"player_id"`
	Game       GameKind        `json:"game"`
	Phase      Phase           `json:"phase"` // SETTLED, CANCELLED or EXPIRED
	Result     Result          `json:"result"`
	Wager      int64           `json:"wager"`
	Payout     int64           `json:"payout"` // amount credited back, refunds included
	Multiplier decimal.Decimal `json:"multiplier"`
	Detail     string          `json:"detail,omitempty"`
	SettledAt  time.Time       `json:"settled_at"`
}

// Net is the player's gain (positive) or loss (negative) on this session
func (r *SettlementRecord) Net() int64 {
	return r.Payout - r.Wager
}

// NewSettlementRecord builds the history entry for a terminated session
func NewSettlementRecord(id string, s *Session, payout int64, settledAt time.Time) *SettlementRecord {
	record := &SettlementRecord{
		ID:         id,
		SessionID:  s.ID,
		PlayerID:   s.PlayerID,
		Game:       s.Game,
		Phase:      s.Phase,
		Wager:      s.Escrow,
		Payout:     payout,
		Multiplier: decimal.NewFromInt(1),
		Result:     ResultRefund,
		SettledAt:  settledAt,
	}
	if s.Phase == PhaseSettled && s.Outcome != nil {
		record.Result = s.Outcome.Result
		record.Multiplier = s.Outcome.Multiplier
		record.Detail = s.Outcome.Detail
	}
	return record
}
