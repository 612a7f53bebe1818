// Package notify delivers renewal reports and new-offer alerts to operators.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/aristath/freightwatch/internal/domain"
)

// Telegram rejects messages longer than this many characters
const maxMessageLength = 4096

// Telegram sends notifications through the Bot API to each operator's chat
type Telegram struct {
	bot   *bot.Bot
	token string
	now   func() time.Time
	log   zerolog.Logger
}

// NewTelegram creates a Telegram notifier. No request is made until the first message.
// Extra options are applied last, e.g. bot.WithServerURL to point at another endpoint.
func NewTelegram(token string, timeout time.Duration, log zerolog.Logger, opts ...bot.Option) (*Telegram, error) {
	options := append([]bot.Option{
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(timeout, &http.Client{Timeout: timeout}),
	}, opts...)

	b, err := bot.New(token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", redact(err, token))
	}

	return &Telegram{
		bot:   b,
		token: token,
		now:   time.Now,
		log:   log.With().Str("client", "telegram").Logger(),
	}, nil
}

// NotifyRenewal sends the renewal report of one cycle
func (t *Telegram) NotifyRenewal(ctx context.Context, operator domain.Operator, results []domain.RenewalResult) error {
	if operator.ChatID == 0 {
		t.log.Warn().Str("operator", operator.Key).Msg("No chat id configured, renewal report not sent")
		return nil
	}
	return t.send(ctx, operator.ChatID, RenderRenewal(operator, results, t.now()))
}

// NotifyNewOffers sends a new-offer alert for one listing
func (t *Telegram) NotifyNewOffers(ctx context.Context, operator domain.Operator, n domain.OfferNotification) error {
	if operator.ChatID == 0 {
		t.log.Warn().Str("operator", operator.Key).Msg("No chat id configured, offer alert not sent")
		return nil
	}
	return t.send(ctx, operator.ChatID, RenderNewOffers(n))
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      chunk,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			// Transport errors carry the request URL, which embeds the bot token
			return fmt.Errorf("telegram sendMessage failed: %w", redact(err, t.token))
		}
		t.log.Debug().Int64("chat_id", chatID).Int("length", utf8.RuneCountInString(chunk)).Msg("Message sent")
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit characters, preferring line boundaries.
// Lines longer than limit are cut where no HTML tag, entity or element is open.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		if currentLen+len(runes) > limit {
			flush()
		}
		for len(runes) > limit {
			cut := htmlSafeCut(runes, limit)
			chunks = append(chunks, string(runes[:cut]))
			runes = runes[cut:]
		}
		current.WriteString(string(runes))
		currentLen += len(runes)
	}
	flush()
	return chunks
}

// htmlSafeCut returns the largest cut position <= limit that is outside every tag and entity,
// preferring positions where no element is open. Falls back to limit when none exists.
func htmlSafeCut(runes []rune, limit int) int {
	inTag, inEntity := false, false
	depth := 0
	tagStart := 0
	outside, closed := 0, 0

	for i := 0; i <= limit && i <= len(runes); i++ {
		if i > 0 && !inTag && !inEntity {
			outside = i
			if depth == 0 {
				closed = i
			}
		}
		if i == limit || i == len(runes) {
			break
		}

		switch r := runes[i]; {
		case inTag:
			if r == '>' {
				inTag = false
				switch {
				case runes[tagStart+1] == '/':
					if depth > 0 {
						depth--
					}
				case runes[i-1] != '/':
					depth++
				}
			}
		case inEntity:
			if r == ';' || r == ' ' || r == '\n' {
				inEntity = false
			}
		case r == '<':
			inTag = true
			tagStart = i
		case r == '&':
			inEntity = true
		}
	}

	switch {
	case closed > 0:
		return closed
	case outside > 0:
		return outside
	default:
		return limit
	}
}

type redactedError struct {
	msg string
}

func (r *redactedError) Error() string { return r.msg }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "<redacted>")}
}
