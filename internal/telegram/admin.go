// Package telegram extracts admin and group metadata from public
// Telegram groups through the Bot API.
package telegram

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"dexlead/internal/domain"
)

var tgUsernamePattern = regexp.MustCompile(`^https?://t\.me/([A-Za-z0-9_]+)`)

const maxFloodWait = 60 * time.Second

// AdminExtractor resolves a t.me link to its group and pulls the
// visible admin list plus the description and pinned message text.
type AdminExtractor struct {
	bot *tele.Bot
	log zerolog.Logger
}

// NewAdminExtractor creates an AdminExtractor. The token is validated
// against the API immediately.
func NewAdminExtractor(token string, log zerolog.Logger) (*AdminExtractor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: nil, // outbound calls only
	})
	if err != nil {
		return nil, err
	}
	return &AdminExtractor{
		bot: bot,
		log: log.With().Str("component", "tg_admin").Logger(),
	}, nil
}

// usernameFromLink extracts the group username from a t.me link. Bare
// usernames pass through with any leading @ stripped.
func usernameFromLink(tgLink string) string {
	if m := tgUsernamePattern.FindStringSubmatch(tgLink); m != nil {
		return m[1]
	}
	return strings.TrimPrefix(tgLink, "@")
}

// ExtractAdmins returns the admin roster for the group behind tgLink.
// Unresolvable or private groups yield an empty result; a hidden or
// unfetchable admin list sets AdminsHidden. The error is non-nil only
// when the API itself misbehaves, which callers treat as a signal to
// stop extracting for the rest of the run.
func (e *AdminExtractor) ExtractAdmins(ctx context.Context, tgLink string) (*domain.AdminResult, error) {
	username := usernameFromLink(tgLink)
	result := &domain.AdminResult{}

	chat, err := e.bot.ChatByUsername("@" + username)
	if err != nil {
		if flood := floodWait(err); flood > 0 {
			e.log.Error().Dur("wait", flood).Str("group", username).Msg("telegram flood wait")
			if sleepErr := sleepCtx(ctx, flood); sleepErr != nil {
				return result, sleepErr
			}
			return result, nil
		}
		var apiErr *tele.Error
		if errors.As(err, &apiErr) {
			// Invalid, private or deleted group. Not a service fault.
			e.log.Warn().Str("group", username).Err(err).Msg("could not resolve telegram group")
			return result, nil
		}
		return result, err
	}

	result.GroupTitle = chat.Title
	result.GroupDescription = chat.Description
	if chat.PinnedMessage != nil {
		result.PinnedMessageText = chat.PinnedMessage.Text
		if result.PinnedMessageText == "" {
			result.PinnedMessageText = chat.PinnedMessage.Caption
		}
	}

	members, err := e.bot.AdminsOf(chat)
	if err != nil {
		if flood := floodWait(err); flood > 0 {
			e.log.Error().Dur("wait", flood).Str("group", username).Msg("flood wait during admin extraction")
			if sleepErr := sleepCtx(ctx, flood); sleepErr != nil {
				return result, sleepErr
			}
		} else {
			e.log.Info().Str("group", username).Err(err).Msg("admin list hidden")
		}
		result.AdminsHidden = true
		return result, nil
	}

	for _, member := range members {
		if member.User == nil || member.User.Username == "" {
			continue
		}
		result.Admins = append(result.Admins, domain.TelegramAdmin{
			Username:  member.User.Username,
			IsCreator: member.Role == tele.Creator,
		})
	}
	e.log.Info().Int("admins", len(result.Admins)).Str("group", username).Msg("extracted admins")
	return result, nil
}

// floodWait returns the capped wait duration when err is a Telegram
// flood error, zero otherwise.
func floodWait(err error) time.Duration {
	var flood tele.FloodError
	if !errors.As(err, &flood) {
		return 0
	}
	wait := time.Duration(flood.RetryAfter) * time.Second
	if wait > maxFloodWait {
		wait = maxFloodWait
	}
	if wait <= 0 {
		wait = time.Second
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
