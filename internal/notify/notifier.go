// Package notify delivers qualified leads to a Telegram channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"dexlead/internal/domain"
)

const maxRetryAfter = 60 * time.Second

var chainEmoji = map[string]string{
	"ethereum": "⟠",
	"bsc":      "🟡",
	"base":     "🔵",
	"solana":   "🟣",
}

// Notifier sends formatted lead messages to a channel.
type Notifier struct {
	bot       *tele.Bot
	channelID int64
	log       zerolog.Logger
}

// New creates a Notifier for the given channel.
func New(token string, channelID int64, log zerolog.Logger) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if channelID == 0 {
		return nil, errors.New("telegram channel id is empty")
	}
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, err
	}
	return &Notifier{
		bot:       bot,
		channelID: channelID,
		log:       log.With().Str("component", "notifier").Logger(),
	}, nil
}

// SendLead posts the lead to the channel. Rate limiting is retried
// once after the server-requested wait; any other failure is final.
func (n *Notifier) SendLead(ctx context.Context, lead *domain.LeadRecord) bool {
	message := formatMessage(lead)

	err := n.send(message)
	if err == nil {
		n.log.Info().
			Str("chain", strings.ToUpper(lead.Chain)).
			Str("symbol", lead.TokenSymbol).
			Msg("notification sent")
		return true
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		wait := time.Duration(flood.RetryAfter) * time.Second
		if wait <= 0 || wait > maxRetryAfter {
			wait = maxRetryAfter
		}
		n.log.Warn().Dur("wait", wait).Msg("rate limited by telegram")

		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}

		if err := n.send(message); err != nil {
			n.log.Error().Err(err).Msg("retry failed")
			return false
		}
		return true
	}

	n.log.Error().Err(err).Msg("failed to send notification")
	return false
}

func (n *Notifier) send(message string) error {
	_, err := n.bot.Send(tele.ChatID(n.channelID), message, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	return err
}

// formatMessage renders the lead as a Telegram HTML message.
func formatMessage(lead *domain.LeadRecord) string {
	emoji, ok := chainEmoji[lead.Chain]
	if !ok {
		emoji = "🔗"
	}

	var socialLines []string
	if lead.Telegram != "" {
		socialLines = append(socialLines, "💬 <b>Telegram:</b> "+formatLink(lead.Telegram))
	}
	if lead.Twitter != "" {
		socialLines = append(socialLines, "🐦 <b>Twitter:</b> "+formatLink(lead.Twitter))
	}
	if lead.Website != "" {
		socialLines = append(socialLines, "🌐 <b>Website:</b> "+formatLink(lead.Website))
	}
	socialSection := ""
	if len(socialLines) > 0 {
		socialSection = strings.Join(socialLines, "\n") + "\n\n"
	}

	var b strings.Builder
	b.WriteString("🚀 <b>New Dexscreener Lead Detected</b>\n\n")
	fmt.Fprintf(&b, "%s <b>Chain:</b> %s\n", emoji, escape(strings.ToUpper(lead.Chain)))
	fmt.Fprintf(&b, "📛 <b>Name:</b> %s\n", escape(lead.TokenName))
	fmt.Fprintf(&b, "🏷 <b>Symbol:</b> $%s\n", escape(lead.TokenSymbol))
	fmt.Fprintf(&b, "📋 <b>Contract:</b> <code>%s</code>\n\n", escape(lead.TokenAddress))
	b.WriteString(socialSection)
	b.WriteString(walletSection(lead.DeployerWallet))
	b.WriteString("📊 <b>Dexscreener:</b>\n")
	b.WriteString(formatLink(lead.URL) + "\n")
	return b.String()
}

func escape(text string) string {
	return html.EscapeString(text)
}

// formatLink wraps http(s) URLs in an anchor; anything else is plain
// escaped text.
func formatLink(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return escape(raw)
	}
	safe := escape(raw)
	return fmt.Sprintf(`<a href="%s">%s</a>`, safe, safe)
}

func walletSection(wallet string) string {
	if wallet == "" {
		return ""
	}
	return fmt.Sprintf("💳 <b>Deployer Wallet:</b>\n<code>%s</code>\n\n", escape(wallet))
}
