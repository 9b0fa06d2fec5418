package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	bot     Sender
	channel string
	botName string
	botIcon string
}

// New creates a notifier posting to channel, which is either a numeric chat
// id or a public channel username.
func New(bot Sender, channel, botName, botIcon string) *Notifier {
	return &Notifier{
		bot:     bot,
		channel: channel,
		botName: botName,
		botIcon: botIcon,
	}
}

// PostListing sends one message for the posting. There is no retry.
func (n *Notifier) PostListing(ctx context.Context, posting model.Posting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := n.bot.Send(n.message(FormatPosting(posting, n.botName, n.botIcon))); err != nil {
		return fmt.Errorf("send cl_id %d: %w", posting.ID, err)
	}

	log.Debug().Int64("cl_id", posting.ID).Str("channel", n.channel).Msg("Posted listing")
	return nil
}

// FormatPosting renders the single-line notification text.
func FormatPosting(posting model.Posting, botName, botIcon string) string {
	const msgFormat = "%s | %s | %s | <%s>"

	text := fmt.Sprintf(msgFormat, posting.Datetime, posting.Price, posting.Name, posting.URL)

	prefix := strings.TrimSpace(strings.Join([]string{botIcon, botName}, " "))
	if prefix == "" {
		return text
	}
	return prefix + ": " + text
}

func (n *Notifier) message(text string) tgbotapi.MessageConfig {
	if chatID, err := strconv.ParseInt(n.channel, 10, 64); err == nil {
		return tgbotapi.NewMessage(chatID, text)
	}

	username := n.channel
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	return tgbotapi.NewMessageToChannel(username, text)
}
