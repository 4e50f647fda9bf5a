package discord

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	discordmock "github.com/fadedpez/tucocasino/internal/discord/mock"
	"github.com/fadedpez/tucocasino/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ResponseTestSuite struct {
	suite.Suite
	session     *discordmock.SessionHandler
	interaction *discordgo.InteractionCreate
	board       []discordgo.MessageComponent
}

func TestResponseSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) SetupTest() {
	s.session = &discordmock.SessionHandler{}
	s.session.Test(s.T())
	s.interaction = &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{ID: "interaction-1", Type: discordgo.InteractionMessageComponent},
	}
	s.board = []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Heads", Style: discordgo.PrimaryButton, CustomID: "casino:choose:abc:heads"},
		}},
	}
}

// expectReply captures the single InteractionRespond call
func (s *ResponseTestSuite) expectReply(err error) *discordgo.InteractionResponse {
	var got discordgo.InteractionResponse
	s.session.On("InteractionRespond", s.interaction.Interaction, mock.AnythingOfType("*discordgo.InteractionResponse")).
		Run(func(args mock.Arguments) {
			got = *args.Get(1).(*discordgo.InteractionResponse)
		}).
		Return(err).Once()
	return &got
}

func (s *ResponseTestSuite) TestResponseVisibility() {
	public := NewResponse("pot is 40", s.board)
	private := NewEphemeralResponse("pot is 40", nil)

	s.False(public.Ephemeral)
	s.Equal(s.board, public.Components)
	s.True(private.Ephemeral)
	s.Nil(private.Components)
}

func (s *ResponseTestSuite) TestNewErrorResponse() {
	cases := map[string]struct {
		err  error
		want string
	}{
		"foreign error": {
			err:  errors.New("disk on fire"),
			want: "💥 Something went wrong, try again in a moment.",
		},
		"invalid transition": {
			err:  types.InvalidTransition("that game is already settled"),
			want: "⚠️ that game is already settled",
		},
		"insufficient funds": {
			err:  types.InsufficientFunds(500, 120),
			want: "💸 You need 500 but only have 120.",
		},
		"wrapped cooldown": {
			err:  fmt.Errorf("bet: %w", types.CooldownActive(2500*time.Millisecond)),
			want: "⏱️ Slow down! Try again in 3s.",
		},
	}

	for name, tc := range cases {
		s.Run(name, func() {
			resp := NewErrorResponse(tc.err)
			s.Equal(tc.want, resp.Content)
			s.True(resp.Ephemeral)
		})
	}
}

func (s *ResponseTestSuite) TestSendGameResponse() {
	got := s.expectReply(nil)

	s.Require().NoError(SendGameResponse(s.session, s.interaction, "🪙 Coin flip for 40", s.board))

	s.Equal(discordgo.InteractionResponseChannelMessageWithSource, got.Type)
	s.Equal("🪙 Coin flip for 40", got.Data.Content)
	s.Equal(s.board, got.Data.Components)
	s.Zero(got.Data.Flags)
	s.session.AssertExpectations(s.T())
}

func (s *ResponseTestSuite) TestUpdateGameResponse() {
	got := s.expectReply(nil)

	s.Require().NoError(UpdateGameResponse(s.session, s.interaction, "🎉 won", nil))

	s.Equal(discordgo.InteractionResponseUpdateMessage, got.Type)
	s.Equal("🎉 won", got.Data.Content)
	s.Empty(got.Data.Components)
}

func (s *ResponseTestSuite) TestSendErrorResponseIsEphemeral() {
	got := s.expectReply(nil)

	s.Require().NoError(SendErrorResponse(s.session, s.interaction, types.NotFound("session", "abc")))

	s.Equal(discordgo.InteractionResponseChannelMessageWithSource, got.Type)
	s.Equal(discordgo.MessageFlagsEphemeral, got.Data.Flags)
	s.Equal("🔍 Nothing to act on: session abc not found.", got.Data.Content)
}

func (s *ResponseTestSuite) TestSendPropagatesTransportError() {
	s.expectReply(assert.AnError)

	err := SendResponse(s.session, s.interaction, NewResponse("x", nil))

	s.ErrorIs(err, assert.AnError)
}
