package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucocasino/internal/types"
)

// ResponseEmoji prefixes error replies by code
var ResponseEmoji = map[types.ErrorCode]string{
	types.ErrInsufficientFunds: "💸",
	types.ErrAlreadyActive:     "🎮",
	types.ErrNotFound:          "🔍",
	types.ErrInvalidTransition: "⚠️",
	types.ErrCooldownActive:    "⏱️",
	types.ErrInvalidArgument:   "❗",
	types.ErrStorageFailure:    "💾",
	types.ErrInternalError:     "💥",
}

// Response is the content of an interaction reply
type Response struct {
	Content    string
	Components []discordgo.MessageComponent
	Ephemeral  bool // only the invoking player sees it
}

// NewResponse creates a public Response
func NewResponse(content string, components []discordgo.MessageComponent) *Response {
	return &Response{Content: content, Components: components}
}

// NewEphemeralResponse creates a Response only the invoking player sees
func NewEphemeralResponse(content string, components []discordgo.MessageComponent) *Response {
	return &Response{Content: content, Components: components, Ephemeral: true}
}

// NewErrorResponse words err for the player
func NewErrorResponse(err error) *Response {
	emoji, ok := ResponseEmoji[types.CodeOf(err)]
	if !ok {
		emoji = "❌"
	}
	return NewEphemeralResponse(fmt.Sprintf("%s %s", emoji, types.UserMessage(err)), nil)
}

// SendResponse replies to the interaction with a new message
func SendResponse(s Responder, i *discordgo.InteractionCreate, r *Response) error {
	return respond(s, i, discordgo.InteractionResponseChannelMessageWithSource, r)
}

// UpdateResponse edits the message the interaction's component belongs to
func UpdateResponse(s Responder, i *discordgo.InteractionCreate, r *Response) error {
	return respond(s, i, discordgo.InteractionResponseUpdateMessage, r)
}

// SendGameResponse posts a public game board
func SendGameResponse(s Responder, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) error {
	return SendResponse(s, i, NewResponse(content, components))
}

// UpdateGameResponse redraws a game board in place
func UpdateGameResponse(s Responder, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) error {
	return UpdateResponse(s, i, NewResponse(content, components))
}

// SendErrorResponse replies privately with the player-facing wording of err
func SendErrorResponse(s Responder, i *discordgo.InteractionCreate, err error) error {
	return SendResponse(s, i, NewErrorResponse(err))
}

func respond(s Responder, i *discordgo.InteractionCreate, kind discordgo.InteractionResponseType, r *Response) error {
	var flags discordgo.MessageFlags
	if r.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: kind,
		Data: &discordgo.InteractionResponseData{
			Content:    r.Content,
			Components: r.Components,
			Flags:      flags,
		},
	})
}
