package mock

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

// SessionHandler is a testify mock of discord.SessionHandler
type SessionHandler struct {
	mock.Mock
}

func (m *SessionHandler) InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse) error {
	return m.Called(i, r).Error(0)
}

func (m *SessionHandler) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, cmd)
	created, _ := args.Get(0).(*discordgo.ApplicationCommand)
	return created, args.Error(1)
}

func (m *SessionHandler) ApplicationCommandDelete(appID, guildID, cmdID string) error {
	return m.Called(appID, guildID, cmdID).Error(0)
}

func (m *SessionHandler) ApplicationCommands(appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID)
	cmds, _ := args.Get(0).([]*discordgo.ApplicationCommand)
	return cmds, args.Error(1)
}

func (m *SessionHandler) Open() error {
	return m.Called().Error(0)
}

func (m *SessionHandler) Close() error {
	return m.Called().Error(0)
}

func (m *SessionHandler) AddHandler(handler interface{}) func() {
	remove, _ := m.Called(handler).Get(0).(func())
	return remove
}
