// Package notify envia avisos de liquidação para o canal de operadores no Telegram.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

// Telegram implementa o sink de liquidação enviando uma mensagem por aposta
type Telegram struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// sendTimeout limita cada chamada HTTP ao Bot API
const sendTimeout = 5 * time.Second

func NewTelegram(botToken, chatID string) (*Telegram, error) {
	return NewTelegramWithClient(botToken, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
}

// NewTelegramWithClient permite trocar endpoint e cliente HTTP (ex.: servidor de teste)
func NewTelegramWithClient(botToken, chatID, endpoint string, client *http.Client) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %w", err)
	}
	return &Telegram{bot: bot, chatID: id, maxRetries: 3, retryDelayBase: time.Second}, nil
}

func (t *Telegram) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSettlement(e))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := t.send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("telegram send after %d retries: %w", t.maxRetries, lastErr)
}

// send devolve assim que ctx expira; a requisição em voo termina pelo timeout do cliente
func (t *Telegram) send(ctx context.Context, msg tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FormatSettlement monta a mensagem em MarkdownV2
func FormatSettlement(e events.BetSettled) string {
	action := "refund"
	head := "✅ *Commitment won*"
	if e.Outcome == "failure" {
		action = "charity payout"
		head = "❌ *Commitment lost*"
	}
	var b strings.Builder
	b.WriteString(head + "\n")
	fmt.Fprintf(&b, "Bet: `%s`\n", escape(e.BetID))
	fmt.Fprintf(&b, "Owner: `%s`\n", escape(e.OwnerID))
	if e.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", escape(e.Category))
	}
	fmt.Fprintf(&b, "Stake: %s → %s\n", escape(e.StakeAmount), escape(action))
	if !e.SettledAt.IsZero() {
		fmt.Fprintf(&b, "Settled: %s\n", escape(e.SettledAt.UTC().Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

// escape trata os caracteres reservados do MarkdownV2
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
