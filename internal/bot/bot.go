package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucocasino/internal/config"
	"github.com/fadedpez/tucocasino/internal/discord"
	"github.com/fadedpez/tucocasino/internal/games"
	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/games/session"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
	"github.com/fadedpez/tucocasino/pkg/services/economy"
	"github.com/fadedpez/tucocasino/pkg/services/statistics"
)

// Casino is the wagering surface the bot drives
type Casino interface {
	PlaceBet(ctx context.Context, playerID string, kind entities.GameKind, amount int64, sel entities.Selections) (*session.Result, error)
	SelectOption(ctx context.Context, playerID, sessionID, option string) (*session.Result, error)
	ConfirmPlay(ctx context.Context, playerID, sessionID string) (*session.Result, error)
	Cancel(ctx context.Context, playerID, sessionID string) (*session.Result, error)
	ActiveSession(playerID string) (*entities.Session, error)
	Balance(ctx context.Context, playerID string) (int64, error)
	Registry() *games.Registry
}

// Economy is the passive income surface the bot drives
type Economy interface {
	Purchase(ctx context.Context, ownerID string, kind entities.EntityKind, level int) (*entities.Entity, error)
	Hire(ctx context.Context, ownerID, entityID, staffName string) (*entities.Entity, error)
	Fire(ctx context.Context, ownerID, entityID, modifierID string) (*entities.Entity, error)
	Preview(ctx context.Context, ownerID, entityID string) (*entities.Entity, accrual.Result, error)
	CollectAccrual(ctx context.Context, ownerID, entityID string) (*economy.Collection, error)
	ListOwned(ctx context.Context, ownerID string) ([]*entities.Entity, error)
}

// Leaderboards serves the /stats command
type Leaderboards interface {
	GetLeaderboard(ctx context.Context, game entities.GameKind, page, playersPerPage int) (*statistics.Leaderboard, error)
	GetPlayerSummary(ctx context.Context, playerID string, recent int) (*statistics.Summary, error)
}

// Statement lists a player's recent ledger entries
type Statement interface {
	Transactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error)
}

// Dependencies are the services behind the bot's commands
type Dependencies struct {
	Casino       Casino
	Economy      Economy
	Leaderboards Leaderboards
	Statement    Statement // optional; /balance omits recent activity without it
	Logger       *logging.Logger
}

// Bot represents the Discord bot and its dependencies
type Bot struct {
	config       *config.Config
	session      discord.SessionHandler
	commands     []*discordgo.ApplicationCommand
	casino       Casino
	economy      Economy
	leaderboards Leaderboards
	statement    Statement
	log          *logging.Logger
	shutdownWg   sync.WaitGroup

	// Interaction tracking to prevent duplicates
	interactionMu         sync.Mutex
	processedInteractions map[string]time.Time
}

// New creates a new instance of Bot over an unopened session
func New(cfg *config.Config, dg discord.SessionHandler, deps Dependencies) *Bot {
	if deps.Logger == nil {
		deps.Logger = logging.Default
	}

	bot := &Bot{
		config:                cfg,
		session:               dg,
		commands:              make([]*discordgo.ApplicationCommand, 0),
		casino:                deps.Casino,
		economy:               deps.Economy,
		leaderboards:          deps.Leaderboards,
		statement:             deps.Statement,
		log:                   deps.Logger.WithField("component", "bot"),
		processedInteractions: make(map[string]time.Time),
	}

	// Register handlers
	dg.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		bot.handleInteractionCreate(bot.session, i)
	})
	dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		bot.log.Info("Bot is ready: %s", r.User.Username)
	})

	return bot
}

// Start initializes the bot and connects to Discord
func (b *Bot) Start() error {
	// Open connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the bot
func (b *Bot) Shutdown() {
	// Wait for any ongoing operations to complete
	b.shutdownWg.Wait()

	// Cleanup commands if in development
	if b.config.IsDevelopment() {
		if err := b.cleanupCommands(); err != nil {
			b.log.Warn("Error cleaning up commands: %v", err)
		}
	}

	// Close Discord session
	if err := b.session.Close(); err != nil {
		b.log.Error("Error closing Discord session: %v", err)
	}
}

func (b *Bot) registerCommands() error {
	for _, cmd := range Commands {
		created, err := b.session.ApplicationCommandCreate(b.config.AppID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create %q command: %w", cmd.Name, err)
		}
		b.commands = append(b.commands, created)
		b.log.Debug("Registered command: %s", cmd.Name)
	}
	b.log.Info("Registered %d commands", len(b.commands))
	return nil
}

// cleanupCommands removes every command registered for the app in the guild
func (b *Bot) cleanupCommands() error {
	existing, err := b.session.ApplicationCommands(b.config.AppID, b.config.GuildID)
	if err != nil {
		return fmt.Errorf("cannot list commands: %w", err)
	}
	for _, cmd := range existing {
		if err := b.session.ApplicationCommandDelete(b.config.AppID, b.config.GuildID, cmd.ID); err != nil {
			return fmt.Errorf("cannot delete %q command: %w", cmd.Name, err)
		}
	}
	b.commands = b.commands[:0]
	return nil
}

// handleInteractionCreate handles Discord interaction events
func (b *Bot) handleInteractionCreate(s discord.Responder, i *discordgo.InteractionCreate) {
	if !b.markProcessed(i.ID) {
		b.log.Debug("Skipping already processed interaction: %s", i.ID)
		return
	}

	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlashCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleMessageComponent(s, i)
	}
}

// markProcessed records an interaction ID and reports whether it was new.
// Entries older than ten minutes are dropped once the map grows past 100.
func (b *Bot) markProcessed(id string) bool {
	b.interactionMu.Lock()
	defer b.interactionMu.Unlock()

	if id == "" {
		return true
	}
	if _, seen := b.processedInteractions[id]; seen {
		return false
	}

	now := time.Now()
	b.processedInteractions[id] = now
	if len(b.processedInteractions) > 100 {
		for key, at := range b.processedInteractions {
			if now.Sub(at) > 10*time.Minute {
				delete(b.processedInteractions, key)
			}
		}
	}
	return true
}
