package statistics

import (
	"context"
	"sort"
	"time"

	"github.com/fadedpez/tucocasino/pkg/clock"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/repositories/history"
)

// Service builds leaderboards and player summaries from settlement history
type Service struct {
	repository history.Repository
	clock      clock.Clock
}

// NewService creates a new statistics service
func NewService(repository history.Repository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		repository: repository,
		clock:      clk,
	}
}

// PlayerRank represents a player's statistics with ranking information
type PlayerRank struct {
	*entities.PlayerStatistics
	Rank        int     `json:"rank"`
	WinRate     float64 `json:"win_rate"`
	ProfitRate  float64 `json:"profit_rate"` // paid out per unit wagered
	IsTopWinner bool    `json:"is_top_winner"`
	IsTopPlayer bool    `json:"is_top_player"`
}

// Leaderboard represents a paginated leaderboard of player statistics
type Leaderboard struct {
	Game           entities.GameKind `json:"game,omitempty"` // empty for all games
	Players        []*PlayerRank     `json:"players"`
	TotalPlayers   int               `json:"total_players"`
	CurrentPage    int               `json:"current_page"`
	TotalPages     int               `json:"total_pages"`
	PlayersPerPage int               `json:"players_per_page"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// Summary is one player's record across every game
type Summary struct {
	Overall *entities.PlayerStatistics
	ByGame  []*entities.PlayerStatistics // games the player has settled, by kind
	Recent  []*entities.SettlementRecord // newest first
}

// GetLeaderboard ranks players by net profit. An empty game ranks across all games.
func (s *Service) GetLeaderboard(ctx context.Context, game entities.GameKind, page, playersPerPage int) (*Leaderboard, error) {
	if playersPerPage < 1 {
		playersPerPage = 10
	}

	stats, err := s.repository.AllPlayerStatistics(ctx, game)
	if err != nil {
		return nil, err
	}
	ranked := rank(stats)

	board := &Leaderboard{
		Game:           game,
		Players:        []*PlayerRank{},
		TotalPlayers:   len(ranked),
		TotalPages:     (len(ranked) + playersPerPage - 1) / playersPerPage,
		PlayersPerPage: playersPerPage,
		LastUpdated:    s.clock.Now(),
	}
	board.CurrentPage = clampPage(page, board.TotalPages)

	from := (board.CurrentPage - 1) * playersPerPage
	if from < len(ranked) {
		board.Players = ranked[from:min(from+playersPerPage, len(ranked))]
	}
	return board, nil
}

// rank orders players with at least one settled game by net profit, player
// ID breaking ties, and flags the top winner and the most active player
func rank(stats []*entities.PlayerStatistics) []*PlayerRank {
	var ranked []*PlayerRank
	for _, st := range stats {
		if st.GamesPlayed == 0 {
			continue // refunds only
		}
		r := &PlayerRank{PlayerStatistics: st, WinRate: st.WinRate()}
		if st.TotalWagered > 0 {
			r.ProfitRate = float64(st.TotalPaidOut) / float64(st.TotalWagered)
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.NetProfit() == b.NetProfit() {
			return a.PlayerID < b.PlayerID
		}
		return a.NetProfit() > b.NetProfit()
	})

	var busiest *PlayerRank
	for i, r := range ranked {
		r.Rank = i + 1
		if busiest == nil || r.GamesPlayed > busiest.GamesPlayed {
			busiest = r
		}
	}
	if busiest != nil {
		ranked[0].IsTopWinner = true
		busiest.IsTopPlayer = true
	}
	return ranked
}

// clampPage keeps page within 1..pages, treating an empty board as one page
func clampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// GetPlayerSummary collects a player's totals, per game breakdown and most
// recent settlements
func (s *Service) GetPlayerSummary(ctx context.Context, playerID string, recent int) (*Summary, error) {
	overall, err := s.repository.PlayerStatistics(ctx, playerID, "")
	if err != nil {
		return nil, err
	}

	summary := &Summary{Overall: overall}
	if overall.GamesPlayed == 0 && overall.Refunds == 0 {
		return summary, nil
	}

	for _, kind := range entities.AllGames {
		stats, err := s.repository.PlayerStatistics(ctx, playerID, kind)
		if err != nil {
			return nil, err
		}
		if stats.GamesPlayed > 0 || stats.Refunds > 0 {
			summary.ByGame = append(summary.ByGame, stats)
		}
	}

	if recent > 0 {
		summary.Recent, err = s.repository.ListByPlayer(ctx, playerID, recent)
		if err != nil {
			return nil, err
		}
	}
	return summary, nil
}
