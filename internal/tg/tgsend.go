package tg

import (
	"errors"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/curriculum-sync/internal/observability"
)

// Sender часть BotAPI, которой хватает уведомлениям.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// isSystemErr: ответ API с 429 или 5xx, либо сетевой сбой. Ошибки валидации
// (chat not found, 400) в Sentry не шлём, это проблема конфигурации ADMIN_IDS.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	s := err.Error()
	return strings.Contains(s, "timeout") || strings.Contains(s, "connection refused")
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}
