package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Responder answers interactions
type Responder interface {
	InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse) error
}

// CommandRegistry manages the guild's slash commands
type CommandRegistry interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string) error
	ApplicationCommands(appID, guildID string) ([]*discordgo.ApplicationCommand, error)
}

// SessionHandler is the slice of a Discord gateway session the bot uses
type SessionHandler interface {
	Responder
	CommandRegistry

	Open() error
	Close() error
	AddHandler(handler interface{}) func()
}

// DiscordSession adapts a discordgo.Session to SessionHandler.
// Open, Close and AddHandler are promoted from the embedded session.
type DiscordSession struct {
	*discordgo.Session
}

var _ SessionHandler = (*DiscordSession)(nil)

// NewSession creates an unopened bot session for token
func NewSession(token string) (*DiscordSession, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return &DiscordSession{Session: s}, nil
}

func (s *DiscordSession) InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse) error {
	return s.Session.InteractionRespond(i, r)
}

func (s *DiscordSession) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	return s.Session.ApplicationCommandCreate(appID, guildID, cmd)
}

func (s *DiscordSession) ApplicationCommandDelete(appID, guildID, cmdID string) error {
	return s.Session.ApplicationCommandDelete(appID, guildID, cmdID)
}

func (s *DiscordSession) ApplicationCommands(appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return s.Session.ApplicationCommands(appID, guildID)
}
