package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/tucocasino/pkg/entities"
	"github.com/fadedpez/tucocasino/pkg/services/accrual"
)

// Command names
const (
	CommandBet     = "bet"
	CommandBalance = "balance"
	CommandCancel  = "cancel"
	CommandBuy     = "buy"
	CommandCollect = "collect"
	CommandHire    = "hire"
	CommandFire    = "fire"
	CommandStats   = "stats"
)

var minAmount = 1.0

// Commands defines all slash commands for the bot
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandBet,
		Description: "¡Apuesta, amigo! Place a bet on one of the games",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "game",
				Description: "Which game to play",
				Required:    true,
				Choices:     gameChoices(),
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "How much to wager",
				Required:    true,
				MinValue:    &minAmount,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "choice",
				Description: "Side, color or risk tier; leave empty to pick with buttons",
			},
		},
	},
	{
		Name:        CommandBalance,
		Description: "Check your balance and active game",
	},
	{
		Name:        CommandCancel,
		Description: "Cancel your active game and get your stake back",
	},
	{
		Name:        CommandBuy,
		Description: "Buy a business or vault",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "kind",
				Description: "What to buy",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Business", Value: string(entities.EntityBusiness)},
					{Name: "Vault", Value: string(entities.EntityVault)},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "tier",
				Description: "Tier level, starting at 1",
				Required:    true,
				MinValue:    &minAmount,
			},
		},
	},
	{
		Name:        CommandCollect,
		Description: "Collect income from a business or vault; lists your holdings without an id",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "entity",
				Description: "ID of the business or vault",
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "preview",
				Description: "Show what collecting now would pay without collecting",
			},
		},
	},
	{
		Name:        CommandHire,
		Description: "Hire staff onto a business or vault",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "entity",
				Description: "ID of the business or vault",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "staff",
				Description: "Who to hire",
				Required:    true,
				Choices:     staffChoices(),
			},
		},
	},
	{
		Name:        CommandFire,
		Description: "Let a staff member go; hire costs are not refunded",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "entity",
				Description: "ID of the business or vault",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "staff",
				Description: "Staff ID, as listed by /collect",
				Required:    true,
			},
		},
	},
	{
		Name:        CommandStats,
		Description: "View the leaderboard and your record",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "game",
				Description: "Limit to one game",
				Choices:     gameChoices(),
			},
		},
	},
}

func staffChoices() []*discordgo.ApplicationCommandOptionChoice {
	staff := accrual.DefaultStaff()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(staff))
	for _, t := range staff {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%s (%d, %s/hr wage)", t.Name, t.HireCost, t.Wage.String()),
			Value: t.Name,
		})
	}
	return choices
}

func gameChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(entities.AllGames))
	for _, kind := range entities.AllGames {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  gameTitle(kind),
			Value: string(kind),
		})
	}
	return choices
}
