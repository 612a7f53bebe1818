package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/freightwatch/internal/domain"
)

const sentMessage = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`

type sentForm struct {
	chatID    string
	text      string
	parseMode string
}

func newTestTelegram(t *testing.T, handler http.HandlerFunc) *Telegram {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tg, err := NewTelegram("123:secret", 5*time.Second, zerolog.Nop(), bot.WithServerURL(server.URL))
	require.NoError(t, err)
	tg.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return tg
}

func readForm(r *http.Request) sentForm {
	return sentForm{
		chatID:    r.FormValue("chat_id"),
		text:      r.FormValue("text"),
		parseMode: r.FormValue("parse_mode"),
	}
}

func TestTelegram_NotifyRenewal(t *testing.T) {
	var got sentForm
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot123:secret/sendMessage", r.URL.Path)
		got = readForm(r)
		_, _ = w.Write([]byte(sentMessage))
	})

	op := domain.Operator{Key: "igor", Name: "Igor", ChatID: 42}
	err := tg.NotifyRenewal(context.Background(), op, []domain.RenewalResult{{ListingID: "L1", Success: true}})

	require.NoError(t, err)
	assert.Equal(t, "42", got.chatID)
	assert.Equal(t, "HTML", got.parseMode)
	assert.Contains(t, got.text, "Listing renewal for <b>Igor</b>")
	assert.Contains(t, got.text, "01 Mar, 12:00")
}

func TestTelegram_SplitsLongMessages(t *testing.T) {
	var texts []string
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		texts = append(texts, readForm(r).text)
		_, _ = w.Write([]byte(sentMessage))
	})

	results := make([]domain.RenewalResult, 0, 200)
	for i := 0; i < 200; i++ {
		results = append(results, domain.RenewalResult{
			ListingID:       "L",
			OriginCity:      strings.Repeat("Nizhny Novgorod ", 2),
			DestinationCity: "Vladivostok",
			Reason:          "Renewal is available once per hour",
		})
	}

	op := domain.Operator{Key: "igor", Name: "Igor", ChatID: 42}
	require.NoError(t, tg.NotifyRenewal(context.Background(), op, results))

	require.Greater(t, len(texts), 1)
	for _, text := range texts {
		assert.LessOrEqual(t, len([]rune(text)), maxMessageLength)
	}
	assert.Contains(t, texts[0], "<b>Igor</b>")
}

func TestTelegram_SkipsOperatorWithoutChat(t *testing.T) {
	called := false
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	op := domain.Operator{Key: "igor"}
	assert.NoError(t, tg.NotifyRenewal(context.Background(), op, nil))
	assert.NoError(t, tg.NotifyNewOffers(context.Background(), op, domain.OfferNotification{}))
	assert.False(t, called)
}

func TestTelegram_APIError(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	})

	err := tg.NotifyNewOffers(context.Background(), domain.Operator{Key: "igor", ChatID: 1}, domain.OfferNotification{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegram_TransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	tg, err := NewTelegram("123:secret", time.Second, zerolog.Nop(), bot.WithServerURL(server.URL))
	require.NoError(t, err)

	err = tg.NotifyRenewal(context.Background(), domain.Operator{Key: "igor", ChatID: 1}, nil)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc"}, chunks)

	long := strings.Repeat("я", 25)
	chunks = splitMessage(long, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("я", 10), chunks[0])
	assert.Equal(t, strings.Repeat("я", 5), chunks[2])
}

func TestSplitMessage_KeepsMarkupIntact(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected []string
	}{
		{
			name:     "never cuts inside a tag",
			text:     "abcdef<b>xy</b>",
			limit:    9,
			expected: []string{"abcdef", "<b>xy</b>"},
		},
		{
			name:     "never cuts inside an entity",
			text:     "abcd&amp;efgh",
			limit:    6,
			expected: []string{"abcd", "&amp;e", "fgh"},
		},
		{
			name:     "prefers cuts outside elements",
			text:     "ab <b>cd</b> efghij",
			limit:    10,
			expected: []string{"ab ", "<b>cd</b> ", "efghij"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitMessage(tt.text, tt.limit)
			assert.Equal(t, tt.expected, chunks)
			assert.Equal(t, tt.text, strings.Join(chunks, ""))
		})
	}
}
