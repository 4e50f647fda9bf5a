package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/games/session"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
	"github.com/fadedpez/tucocasino/pkg/services/economy"
	"github.com/fadedpez/tucocasino/pkg/services/payout"
	"github.com/fadedpez/tucocasino/pkg/services/statistics"
	"github.com/shopspring/decimal"
)

// Component custom IDs are "<prefix>:<action>:<target>[:<value>]"
const (
	casinoPrefix = "casino"
	statsPrefix  = "stats"

	actionChoose = "choose"
	actionPick   = "pick"
	actionPlay   = "play"
	actionCancel = "cancel"
)

// kenoMenuSize numbers fit in one select menu (discord allows 25 options)
const kenoMenuSize = 20

var gameEmoji = map[entities.GameKind]string{
	entities.GameWheel:    "🎡",
	entities.GameKeno:     "🔢",
	entities.GameBaccarat: "🃏",
	entities.GamePlinko:   "🔻",
	entities.GameDice:     "🎲",
	entities.GameCoinflip: "🪙",
}

func gameTitle(kind entities.GameKind) string {
	name := string(kind)
	if name == "" {
		return "All games"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func customID(parts ...string) string {
	return strings.Join(parts, ":")
}

// renderResult turns a session action into message content and the
// buttons the player can still press
func renderResult(result *session.Result, game games.Game) (string, []discordgo.MessageComponent) {
	s := result.Session
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **%s** · bet %d\n", gameEmoji[s.Game], gameTitle(s.Game), s.Escrow)

	switch result.Phase {
	case entities.PhaseSettled:
		writeOutcome(&sb, result.Outcome, s.Escrow)
	case entities.PhaseCancelled:
		fmt.Fprintf(&sb, "🚪 Cancelled, your %d is back in your pocket.\n", result.Payout)
	case entities.PhaseExpired:
		fmt.Fprintf(&sb, "⌛ Too slow, amigo. The game expired and %d was refunded.\n", result.Payout)
	case entities.PhaseResolving:
		sb.WriteString("⏳ The bank owes you a payout. Press Play to collect it.\n")
		fmt.Fprintf(&sb, "Balance: %d", result.Balance)
		return sb.String(), []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{playButton(s.ID, false)}},
		}
	default:
		return renderOpen(&sb, result, game)
	}

	fmt.Fprintf(&sb, "Balance: %d", result.Balance)
	return sb.String(), nil
}

func writeOutcome(sb *strings.Builder, outcome *entities.Outcome, escrow int64) {
	if outcome == nil {
		return
	}
	if outcome.Detail != "" {
		sb.WriteString(outcome.Detail + "\n")
	}
	switch outcome.Result {
	case entities.ResultWin:
		fmt.Fprintf(sb, "🎉 ¡Ganaste! You won **%d** (%sx).\n", outcome.Payout, outcome.Multiplier.String())
	case entities.ResultPush:
		fmt.Fprintf(sb, "🤝 Push, your %d stake is back.\n", outcome.Payout)
	default:
		if outcome.Payout > 0 {
			fmt.Fprintf(sb, "😬 Only %d of your %d came back (%sx).\n", outcome.Payout, escrow, outcome.Multiplier.String())
		} else {
			fmt.Fprintf(sb, "💀 You lost %d.\n", escrow)
		}
	}
}

func renderOpen(sb *strings.Builder, result *session.Result, game games.Game) (string, []discordgo.MessageComponent) {
	s := result.Session

	if s.Game == entities.GameKeno {
		fmt.Fprintf(sb, "Pick %d numbers from 1-%d. ", payout.KenoPicks, payout.KenoMax)
		fmt.Fprintf(sb, "Picked (%d/%d): %s\n", len(s.Selections.Numbers), payout.KenoPicks, formatNumbers(s.Selections.Numbers))
		fmt.Fprintf(sb, "Balance: %d", result.Balance)
		return sb.String(), kenoComponents(s, game != nil && game.Ready(s.Selections))
	}

	sb.WriteString("Make your choice:\n")
	fmt.Fprintf(sb, "Balance: %d", result.Balance)

	var buttons []discordgo.MessageComponent
	if game != nil {
		for _, choice := range game.Choices() {
			buttons = append(buttons, discordgo.Button{
				Label:    choice,
				Style:    discordgo.PrimaryButton,
				CustomID: customID(casinoPrefix, actionChoose, s.ID, choice),
			})
		}
	}
	var rows []discordgo.MessageComponent
	if len(buttons) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{cancelButton(s.ID)}})
	return sb.String(), rows
}

func kenoComponents(s *entities.Session, ready bool) []discordgo.MessageComponent {
	one := 1
	var rows []discordgo.MessageComponent
	for start := 1; start <= payout.KenoMax; start += kenoMenuSize {
		end := start + kenoMenuSize - 1
		if end > payout.KenoMax {
			end = payout.KenoMax
		}
		options := make([]discordgo.SelectMenuOption, 0, kenoMenuSize)
		for n := start; n <= end; n++ {
			label := strconv.Itoa(n)
			if s.Selections.HasNumber(n) {
				label = "✅ " + label
			}
			options = append(options, discordgo.SelectMenuOption{Label: label, Value: strconv.Itoa(n)})
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    customID(casinoPrefix, actionPick, s.ID, strconv.Itoa(start)),
				Placeholder: fmt.Sprintf("Toggle %d-%d", start, end),
				MinValues:   &one,
				MaxValues:   1,
				Options:     options,
			},
		}})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		playButton(s.ID, !ready),
		cancelButton(s.ID),
	}})
	return rows
}

func playButton(sessionID string, disabled bool) discordgo.Button {
	return discordgo.Button{
		Label:    "Play",
		Style:    discordgo.SuccessButton,
		CustomID: customID(casinoPrefix, actionPlay, sessionID),
		Disabled: disabled,
	}
}

func cancelButton(sessionID string) discordgo.Button {
	return discordgo.Button{
		Label:    "Cancel",
		Style:    discordgo.DangerButton,
		CustomID: customID(casinoPrefix, actionCancel, sessionID),
	}
}

func formatNumbers(numbers []int) string {
	if len(numbers) == 0 {
		return "none"
	}
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func renderBalance(balance int64, active *entities.Session, recent []*entities.Transaction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 Balance: **%d**", balance)
	if active != nil {
		fmt.Fprintf(&sb, "\n%s Active %s game with %d in escrow", gameEmoji[active.Game], active.Game, active.Escrow)
	}
	if len(recent) > 0 {
		sb.WriteString("\n\n**Recent activity**")
		for _, tx := range recent {
			fmt.Fprintf(&sb, "\n%+d %s", tx.Amount, strings.ToLower(string(tx.Type)))
			if tx.Description != "" {
				sb.WriteString(", " + tx.Description)
			}
		}
	}
	return sb.String()
}

func renderHoldings(owned []*entities.Entity) string {
	if len(owned) == 0 {
		return "You don't own anything yet. Try /buy."
	}
	var sb strings.Builder
	sb.WriteString("🏦 **Your holdings**\n")
	for _, e := range owned {
		fmt.Fprintf(&sb, "`%s` %s tier %d", e.ID, e.Kind, e.Tier)
		if e.Kind == entities.EntityVault {
			fmt.Fprintf(&sb, ", %d stored", e.Stored)
		}
		if len(e.Modifiers) > 0 {
			fmt.Fprintf(&sb, ", %d staff", len(e.Modifiers))
		}
		if p := e.Protection(); p.IsPositive() {
			fmt.Fprintf(&sb, ", %s%% protected", percent(p))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderStaff lists an entity's staff with the IDs /fire takes
func renderStaff(e *entities.Entity) string {
	if len(e.Modifiers) == 0 {
		return fmt.Sprintf("Your %s `%s` has no staff.", e.Kind, e.ID)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Staff at your %s `%s`:\n", e.Kind, e.ID)
	for _, m := range e.Modifiers {
		fmt.Fprintf(&sb, "`%s` %s, %s/hr wage", m.ID, m.Name, m.Wage.String())
		if m.Boost.IsPositive() {
			fmt.Fprintf(&sb, ", +%s%% income", percent(m.Boost))
		}
		if m.Protection.IsPositive() {
			fmt.Fprintf(&sb, ", %s%% protection", percent(m.Protection))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderPreview(e *entities.Entity, r accrual.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 Your %s `%s` has **%d** waiting after %s hours (gross %s, wages %s).",
		e.Kind, e.ID, r.Net, r.Hours.StringFixed(2), r.Gross.StringFixed(0), r.Wages.StringFixed(0))
	if e.Kind == entities.EntityVault {
		fmt.Fprintf(&sb, "\nVault holds %d after collecting.", r.Stored)
	}
	if r.Protection.IsPositive() {
		fmt.Fprintf(&sb, "\n%s%% of stored funds protected.", percent(r.Protection))
	}
	return sb.String()
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(0)
}

func renderCollection(c *economy.Collection) string {
	if c.Amount == 0 {
		return fmt.Sprintf("Nothing to collect yet from your %s. Balance: %d", c.Entity.Kind, c.Balance)
	}
	return fmt.Sprintf("💵 Collected **%d** from your %s over %s hours. Balance: %d",
		c.Amount, c.Entity.Kind, c.Accrual.Hours.StringFixed(2), c.Balance)
}

// renderStats shows one leaderboard page followed by the caller's own record
func renderStats(lb *statistics.Leaderboard, summary *statistics.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 **%s leaderboard** (page %d/%d)\n", gameTitle(lb.Game), lb.CurrentPage, max(lb.TotalPages, 1))

	if len(lb.Players) == 0 {
		sb.WriteString("No games played yet.\n")
	}
	for _, p := range lb.Players {
		marker := ""
		if p.IsTopPlayer {
			marker = " 👑"
		}
		fmt.Fprintf(&sb, "%d. <@%s> net %+d, %d games, %.1f%% wins%s\n",
			p.Rank, p.PlayerID, p.NetProfit(), p.GamesPlayed, p.WinRate, marker)
	}

	if summary != nil && summary.Overall != nil {
		o := summary.Overall
		fmt.Fprintf(&sb, "\n**You**: %d games, %d wins, %d losses, %d pushes, net %+d, biggest win %d",
			o.GamesPlayed, o.Wins, o.Losses, o.Pushes, o.NetProfit(), o.BiggestWin)
	}
	return sb.String()
}

func statsComponents(lb *statistics.Leaderboard) []discordgo.MessageComponent {
	game := string(lb.Game)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Previous",
				Style:    discordgo.SecondaryButton,
				CustomID: customID(statsPrefix, strconv.Itoa(lb.CurrentPage-1), game),
				Disabled: lb.CurrentPage <= 1,
				Emoji:    &discordgo.ComponentEmoji{Name: "⬅️"},
			},
			discordgo.Button{
				Label:    "Refresh",
				Style:    discordgo.SecondaryButton,
				CustomID: customID(statsPrefix, strconv.Itoa(lb.CurrentPage), game),
				Emoji:    &discordgo.ComponentEmoji{Name: "🔄"},
			},
			discordgo.Button{
				Label:    "Next",
				Style:    discordgo.SecondaryButton,
				CustomID: customID(statsPrefix, strconv.Itoa(lb.CurrentPage+1), game),
				Disabled: lb.CurrentPage >= lb.TotalPages,
				Emoji:    &discordgo.ComponentEmoji{Name: "➡️"},
			},
		}},
	}
}
