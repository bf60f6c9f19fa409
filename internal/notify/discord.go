// Package notify sends outbound announcements about tips and messages.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// Embed colors per category
const (
	colorSingle   = 0x2ecc71
	colorOdd2Plus = 0x3498db
	colorOdd4Plus = 0xf1c40f
)

// DiscordConfig identifies the channel webhook tips are posted to
type DiscordConfig struct {
	WebhookID    string
	WebhookToken string
	Username     string // display name for the webhook, e.g. "Maestro"
}

// DiscordNotifier posts new tips to a Discord channel through a webhook
type DiscordNotifier struct {
	execute  func(ctx context.Context, params *discordgo.WebhookParams) error
	username string
	logger   zerolog.Logger
}

// NewDiscordNotifier creates a webhook notifier. No bot token is needed;
// the webhook token authorizes the call.
func NewDiscordNotifier(config DiscordConfig, logger zerolog.Logger) (*DiscordNotifier, error) {
	if config.WebhookID == "" || config.WebhookToken == "" {
		return nil, fmt.Errorf("discord webhook id and token are required")
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	execute := func(ctx context.Context, params *discordgo.WebhookParams) error {
		_, err := session.WebhookExecute(config.WebhookID, config.WebhookToken, false, params, discordgo.WithContext(ctx))
		return err
	}
	return newDiscordNotifier(execute, config.Username, logger), nil
}

func newDiscordNotifier(execute func(context.Context, *discordgo.WebhookParams) error, username string, logger zerolog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		execute:  execute,
		username: username,
		logger:   logger.With().Str("component", "discord_notifier").Logger(),
	}
}

// TipPublished announces a new tip
func (n *DiscordNotifier) TipPublished(ctx context.Context, tip *models.Tip) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &discordgo.WebhookParams{
		Username: n.username,
		Embeds:   []*discordgo.MessageEmbed{TipEmbed(tip)},
	}
	if err := n.execute(ctx, params); err != nil {
		return fmt.Errorf("failed to post tip %s to discord: %w", tip.ID, err)
	}

	n.logger.Debug().Str("tip_id", tip.ID).Msg("tip announced")
	return nil
}

// MessageReceived is not announced publicly
func (n *DiscordNotifier) MessageReceived(context.Context, *models.Message) error {
	return nil
}

// TipEmbed renders a tip as a Discord embed
func TipEmbed(tip *models.Tip) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     tip.Teams,
		Color:     categoryColor(tip.Category),
		Timestamp: tip.CreatedAt.UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: categoryLabel(tip.Category)},
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Odds", Value: tip.Odds.StringFixed(2), Inline: true},
		{Name: "Kickoff", Value: fmt.Sprintf("<t:%d:f>", tip.KickoffTime.Unix()), Inline: true},
	}

	if tip.IsMulti() {
		var legs strings.Builder
		for i, leg := range tip.Legs {
			fmt.Fprintf(&legs, "**%d.** %s (%s): %s\n", i+1, leg.Teams, leg.League, leg.Prediction)
		}
		embed.Description = strings.TrimSuffix(legs.String(), "\n")
	} else {
		embed.Description = fmt.Sprintf("%s\n**%s**", tip.League, tip.Prediction)
	}

	if tip.BettingCode != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Betting code", Value: "`" + tip.BettingCode + "`", Inline: true})
	}
	if tip.Analysis != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Analysis", Value: truncate(tip.Analysis, 1024)})
	}

	embed.Fields = fields
	return embed
}

func categoryColor(c models.Category) int {
	switch c {
	case models.CategoryOdd2Plus:
		return colorOdd2Plus
	case models.CategoryOdd4Plus:
		return colorOdd4Plus
	default:
		return colorSingle
	}
}

func categoryLabel(c models.Category) string {
	switch c {
	case models.CategoryOdd2Plus:
		return "Odd 2+"
	case models.CategoryOdd4Plus:
		return "Odd 4+"
	default:
		return "Single"
	}
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
