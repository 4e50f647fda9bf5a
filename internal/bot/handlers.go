package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucocasino/internal/discord"
	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/games/session"
)

const (
	handlerTimeout = 10 * time.Second
	statsPageSize  = 10
	statementSize  = 5
)

// handleSlashCommand handles all slash commands
func (b *Bot) handleSlashCommand(s discord.Responder, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	b.log.WithFields(map[string]interface{}{"command": data.Name, "player": playerID(i)}).Debug("Received command")

	switch data.Name {
	case CommandBet:
		b.handleBet(s, i)
	case CommandBalance:
		b.handleBalance(s, i)
	case CommandCancel:
		b.handleCancel(s, i)
	case CommandBuy:
		b.handleBuy(s, i)
	case CommandCollect:
		b.handleCollect(s, i)
	case CommandHire:
		b.handleHire(s, i)
	case CommandFire:
		b.handleFire(s, i)
	case CommandStats:
		b.handleStats(s, i)
	default:
		b.log.Warn("Unknown command: %s", data.Name)
	}
}

// handleMessageComponent handles button clicks and select menus
func (b *Bot) handleMessageComponent(s discord.Responder, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	parts := strings.Split(data.CustomID, ":")

	switch parts[0] {
	case casinoPrefix:
		b.handleCasinoComponent(s, i, parts[1:], data.Values)
	case statsPrefix:
		b.handleStatsPage(s, i, parts[1:])
	default:
		b.log.Warn("Unknown component interaction: %s", data.CustomID)
	}
}

func (b *Bot) handleBet(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	opts := optionMap(i.ApplicationCommandData().Options)
	kind := entities.GameKind(stringOption(opts, "game"))
	amount := intOption(opts, "amount")
	sel := entities.Selections{Choice: strings.ToLower(strings.TrimSpace(stringOption(opts, "choice")))}

	result, err := b.casino.PlaceBet(ctx, playerID(i), kind, amount, sel)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	content, components := renderResult(result, b.game(kind))
	b.respond(i, discord.SendGameResponse(s, i, content, components))
}

func (b *Bot) handleBalance(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	pid := playerID(i)
	balance, err := b.casino.Balance(ctx, pid)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	active, err := b.casino.ActiveSession(pid)
	if err != nil && !types.IsGameError(err, types.ErrNotFound) {
		b.respondError(s, i, err)
		return
	}

	var recent []*entities.Transaction
	if b.statement != nil {
		recent, err = b.statement.Transactions(ctx, pid, statementSize)
		if err != nil {
			b.log.WithField("player", pid).Warn("Cannot load recent transactions: %v", err)
		}
	}
	b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(renderBalance(balance, active, recent), nil)))
}

func (b *Bot) handleCancel(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	result, err := b.casino.Cancel(ctx, playerID(i), "")
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	content, _ := renderResult(result, nil)
	b.respond(i, discord.SendGameResponse(s, i, content, nil))
}

func (b *Bot) handleBuy(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	opts := optionMap(i.ApplicationCommandData().Options)
	kind := entities.EntityKind(stringOption(opts, "kind"))
	level := int(intOption(opts, "tier"))

	entity, err := b.economy.Purchase(ctx, playerID(i), kind, level)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	content := "🏗️ You bought a tier " + strconv.Itoa(entity.Tier) + " " + string(entity.Kind) + ". ID: `" + entity.ID + "`"
	b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(content, nil)))
}

func (b *Bot) handleCollect(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	pid := playerID(i)
	opts := optionMap(i.ApplicationCommandData().Options)
	entityID := strings.TrimSpace(stringOption(opts, "entity"))
	if entityID == "" {
		owned, err := b.economy.ListOwned(ctx, pid)
		if err != nil {
			b.respondError(s, i, err)
			return
		}
		b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(renderHoldings(owned), nil)))
		return
	}

	if boolOption(opts, "preview") {
		entity, result, err := b.economy.Preview(ctx, pid, entityID)
		if err != nil {
			b.respondError(s, i, err)
			return
		}
		b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(renderPreview(entity, result), nil)))
		return
	}

	collection, err := b.economy.CollectAccrual(ctx, pid, entityID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(renderCollection(collection), nil)))
}

func (b *Bot) handleHire(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	opts := optionMap(i.ApplicationCommandData().Options)
	entity, err := b.economy.Hire(ctx, playerID(i), strings.TrimSpace(stringOption(opts, "entity")), stringOption(opts, "staff"))
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	hired := entity.Modifiers[len(entity.Modifiers)-1]
	content := fmt.Sprintf("🤝 Hired a %s (`%s`).\n%s", hired.Name, hired.ID, renderStaff(entity))
	b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(content, nil)))
}

func (b *Bot) handleFire(s discord.Responder, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	opts := optionMap(i.ApplicationCommandData().Options)
	entity, err := b.economy.Fire(ctx, playerID(i), strings.TrimSpace(stringOption(opts, "entity")), strings.TrimSpace(stringOption(opts, "staff")))
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	content := "👋 Staff member let go.\n" + renderStaff(entity)
	b.respond(i, discord.SendResponse(s, i, discord.NewEphemeralResponse(content, nil)))
}

func (b *Bot) handleStats(s discord.Responder, i *discordgo.InteractionCreate) {
	game := entities.GameKind(stringOption(optionMap(i.ApplicationCommandData().Options), "game"))
	content, components, err := b.statsPage(playerID(i), game, 1)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(i, discord.SendGameResponse(s, i, content, components))
}

// handleStatsPage handles "stats:<page>:<game>" pagination buttons
func (b *Bot) handleStatsPage(s discord.Responder, i *discordgo.InteractionCreate, args []string) {
	if len(args) < 2 {
		b.log.Warn("Malformed stats component: %v", args)
		return
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		b.log.Warn("Malformed stats page %q", args[0])
		return
	}
	content, components, err := b.statsPage(playerID(i), entities.GameKind(args[1]), page)
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(i, discord.UpdateGameResponse(s, i, content, components))
}

func (b *Bot) statsPage(pid string, game entities.GameKind, page int) (string, []discordgo.MessageComponent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	leaderboard, err := b.leaderboards.GetLeaderboard(ctx, game, page, statsPageSize)
	if err != nil {
		return "", nil, types.StorageFailure("load leaderboard", err)
	}
	summary, err := b.leaderboards.GetPlayerSummary(ctx, pid, 0)
	if err != nil {
		return "", nil, types.StorageFailure("load player summary", err)
	}
	return renderStats(leaderboard, summary), statsComponents(leaderboard), nil
}

// handleCasinoComponent handles "casino:<action>:<sessionID>[:<value>]".
// Actions on someone else's session are rejected by the machine.
func (b *Bot) handleCasinoComponent(s discord.Responder, i *discordgo.InteractionCreate, args []string, values []string) {
	if len(args) < 2 {
		b.log.Warn("Malformed casino component: %v", args)
		return
	}
	action, sessionID := args[0], args[1]
	pid := playerID(i)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var (
		result *session.Result
		err    error
	)
	switch action {
	case actionChoose:
		if len(args) < 3 {
			b.log.Warn("Choice button without a value: %v", args)
			return
		}
		result, err = b.casino.SelectOption(ctx, pid, sessionID, args[2])
	case actionPick:
		if len(values) == 0 {
			b.log.Warn("Pick menu without a value: %v", args)
			return
		}
		result, err = b.casino.SelectOption(ctx, pid, sessionID, values[0])
	case actionPlay:
		result, err = b.casino.ConfirmPlay(ctx, pid, sessionID)
	case actionCancel:
		result, err = b.casino.Cancel(ctx, pid, sessionID)
	default:
		b.log.Warn("Unknown casino action: %s", action)
		return
	}
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	content, components := renderResult(result, b.game(result.Session.Game))
	b.respond(i, discord.UpdateGameResponse(s, i, content, components))
}

func (b *Bot) game(kind entities.GameKind) games.Game {
	game, err := b.casino.Registry().GetGame(kind)
	if err != nil {
		return nil
	}
	return game
}

func (b *Bot) respondError(s discord.Responder, i *discordgo.InteractionCreate, err error) {
	if types.CodeOf(err) == types.ErrStorageFailure || types.CodeOf(err) == types.ErrInternalError {
		b.log.WithField("player", playerID(i)).LogError(err)
	}
	b.respond(i, discord.SendErrorResponse(s, i, err))
}

func (b *Bot) respond(i *discordgo.InteractionCreate, err error) {
	if err != nil {
		b.log.WithField("interaction", i.ID).Error("Error responding to interaction: %v", err)
	}
}

// playerID returns the invoking user, from the member in guilds or the user in DMs
func playerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		if v, ok := opt.Value.(string); ok {
			return v
		}
	}
	return ""
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := opts[name]; ok {
		v, _ := opt.Value.(bool)
		return v
	}
	return false
}

// intOption reads an integer option; discord delivers numbers as float64
func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	opt, ok := opts[name]
	if !ok {
		return 0
	}
	switch v := opt.Value.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
