package bot

import (
	"io"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucocasino/internal/config"
	discordmock "github.com/fadedpez/tucocasino/internal/discord/mock"
	"github.com/fadedpez/tucocasino/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var quietLogger = logging.NewLoggerWithOutput(logging.ERROR, io.Discard)

type BotTestSuite struct {
	suite.Suite
	session *discordmock.SessionHandler
	config  *config.Config
	bot     *Bot
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}

func (s *BotTestSuite) SetupTest() {
	s.session = &discordmock.SessionHandler{}
	s.session.Test(s.T())
	s.config = &config.Config{AppID: "app", GuildID: "guild", Environment: "development"}

	remove := func() {}
	s.session.On("AddHandler", mock.AnythingOfType("func(*discordgo.Session, *discordgo.InteractionCreate)")).Return(remove).Once()
	s.session.On("AddHandler", mock.AnythingOfType("func(*discordgo.Session, *discordgo.Ready)")).Return(remove).Once()

	s.bot = New(s.config, s.session, Dependencies{Logger: quietLogger})
}

func (s *BotTestSuite) registered(ids ...string) {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, &discordgo.ApplicationCommand{ID: id, Name: "cmd-" + id})
	}
	s.session.On("ApplicationCommands", "app", "guild").Return(cmds, nil).Once()
	for _, id := range ids {
		s.session.On("ApplicationCommandDelete", "app", "guild", id).Return(nil).Once()
	}
}

func (s *BotTestSuite) TestNewRegistersHandlers() {
	s.session.AssertNumberOfCalls(s.T(), "AddHandler", 2)
}

func (s *BotTestSuite) TestStart() {
	s.session.On("Open").Return(nil).Once()
	s.session.On("ApplicationCommandCreate", "app", "guild", mock.AnythingOfType("*discordgo.ApplicationCommand")).
		Return(&discordgo.ApplicationCommand{ID: "created"}, nil).Times(len(Commands))

	s.Require().NoError(s.bot.Start())

	s.session.AssertExpectations(s.T())
	s.Len(s.bot.commands, len(Commands))
}

func (s *BotTestSuite) TestStartFailsWhenGatewayIsDown() {
	s.session.On("Open").Return(assert.AnError).Once()

	s.ErrorIs(s.bot.Start(), assert.AnError)
	s.session.AssertNotCalled(s.T(), "ApplicationCommandCreate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *BotTestSuite) TestStartStopsAtFirstRegistrationError() {
	s.session.On("Open").Return(nil).Once()
	s.session.On("ApplicationCommandCreate", "app", "guild", mock.Anything).Return(nil, assert.AnError).Once()

	err := s.bot.Start()

	s.ErrorIs(err, assert.AnError)
	s.Contains(err.Error(), `"bet"`)
	s.Empty(s.bot.commands)
}

func (s *BotTestSuite) TestCleanupCommands() {
	s.registered("1", "2")

	s.Require().NoError(s.bot.cleanupCommands())
	s.session.AssertExpectations(s.T())
}

func (s *BotTestSuite) TestCleanupCommandsListError() {
	s.session.On("ApplicationCommands", "app", "guild").Return(nil, assert.AnError).Once()

	s.ErrorIs(s.bot.cleanupCommands(), assert.AnError)
	s.session.AssertNotCalled(s.T(), "ApplicationCommandDelete", mock.Anything, mock.Anything, mock.Anything)
}

func (s *BotTestSuite) TestShutdown() {
	s.Run("development removes commands", func() {
		s.registered("1")
		s.session.On("Close").Return(nil).Once()

		s.bot.Shutdown()
		s.session.AssertExpectations(s.T())
	})

	s.Run("production keeps commands", func() {
		s.config.Environment = "production"
		s.session.On("Close").Return(nil).Once()

		s.bot.Shutdown()
		s.session.AssertNumberOfCalls(s.T(), "ApplicationCommands", 1)
		s.session.AssertNumberOfCalls(s.T(), "Close", 2)
	})
}

func (s *BotTestSuite) TestMarkProcessed() {
	s.True(s.bot.markProcessed("interaction-1"))
	s.False(s.bot.markProcessed("interaction-1"), "a redelivered interaction is skipped")
	s.True(s.bot.markProcessed("interaction-2"))
	s.True(s.bot.markProcessed(""), "interactions without an ID are never deduplicated")
	s.True(s.bot.markProcessed(""))
}
