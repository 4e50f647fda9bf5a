package entities

import "time"

// PlayerStatistics represents aggregated settlement results for a player,
// across all games when Game is empty
type PlayerStatistics struct {
	PlayerID     string
	Game         GameKind
	GamesPlayed  int
	Wins         int
	Losses       int
	Pushes       int
	Refunds      int
	TotalWagered int64 // stakes of resolved games only
	TotalPaidOut int64
	BiggestWin   int64
	LastPlayed   time.Time
}

// Add folds one settlement into the totals. Refunded sessions are counted
// but do not affect wagered or paid out amounts.
func (s *PlayerStatistics) Add(r *SettlementRecord) {
	if r.SettledAt.After(s.LastPlayed) {
		s.LastPlayed = r.SettledAt
	}
	if r.Result == ResultRefund {
		s.Refunds++
		return
	}

	s.GamesPlayed++
	s.TotalWagered += r.Wager
	s.TotalPaidOut += r.Payout
	switch r.Result {
	case ResultWin:
		s.Wins++
		if net := r.Net(); net > s.BiggestWin {
			s.BiggestWin = net
		}
	case ResultPush:
		s.Pushes++
	default:
		s.Losses++
	}
}

// NetProfit calculates the player's net profit
func (s *PlayerStatistics) NetProfit() int64 {
	return s.TotalPaidOut - s.TotalWagered
}

// WinRate calculates the player's win rate as a percentage
func (s *PlayerStatistics) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0.0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100.0
}
