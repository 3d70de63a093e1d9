package out

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"studypact/internal/modules/wallet/domain"
)

var noticeEmoji = map[domain.NoticeKind]string{
	domain.NoticeInfo:    "ℹ️",
	domain.NoticeSuccess: "🏆",
	domain.NoticeWarning: "⚠️",
	domain.NoticePenalty: "💸",
}

// DiscordNotifier posts notices through a channel webhook.
type DiscordNotifier struct {
	session *discordgo.Session
	id      string
	token   string
}

// NewDiscordNotifier accepts a full webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>.
func NewDiscordNotifier(webhookURL string) (*DiscordNotifier, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, id: id, token: token}, nil
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q has no /webhooks/<id>/<token> path", raw)
}

func (n *DiscordNotifier) Notify(ctx context.Context, notice domain.Notice) error {
	content := fmt.Sprintf("%s **%s** %s", noticeEmoji[notice.Kind], notice.UserID, notice.Message)
	_, err := n.session.WebhookExecute(n.id, n.token, false, &discordgo.WebhookParams{
		Content: strings.TrimSpace(content),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
