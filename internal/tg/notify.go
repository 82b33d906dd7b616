package tg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/ingest"
)

// maxErrorsInSummary дальше отчёт смотрят в xlsx или логах.
const maxErrorsInSummary = 10

// Notifier рассылает итог запуска администраторам.
type Notifier struct {
	bot    Sender
	admins []int64
	log    *zap.Logger
}

func NewNotifier(token string, admins []int64, log *zap.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewNotifierWith(bot, admins, log), nil
}

func NewNotifierWith(bot Sender, admins []int64, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{bot: bot, admins: admins, log: log}
}

// NotifyResult отправляет сводку каждому админу; ошибки отправки
// собираются, остальным сообщение всё равно уходит.
func (n *Notifier) NotifyResult(res *ingest.Result) error {
	text := Summary(res)
	var errs []error
	for _, id := range n.admins {
		msg := tgbotapi.NewMessage(id, text)
		if _, err := Send(n.bot, msg); err != nil {
			n.log.Warn("notify admin", zap.Int64("chat_id", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Summary текст сводки запуска.
func Summary(res *ingest.Result) string {
	var b strings.Builder
	mark := "✅"
	if res.Failed() {
		mark = "⚠️"
	}
	fmt.Fprintf(&b, "%s %s (%s)\n", mark, res.Op, res.Duration().Round(time.Second))
	fmt.Fprintf(&b, "ok %d, skipped %d, failed %d\n",
		res.Count(ingest.ItemOK), res.Count(ingest.ItemSkipped), res.Count(ingest.ItemFailed))
	for _, kind := range res.Stats.Kinds() {
		t := res.Stats[kind]
		fmt.Fprintf(&b, "• %s: +%d ~%d =%d skip %d\n", kind, t.Created, t.Updated, t.Unchanged, t.Skipped)
	}
	for i, e := range res.Errors {
		if i == maxErrorsInSummary {
			fmt.Fprintf(&b, "… ещё %d\n", len(res.Errors)-i)
			break
		}
		fmt.Fprintf(&b, "✗ %s [%s]: %s\n", e.Key, e.Class, e.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
