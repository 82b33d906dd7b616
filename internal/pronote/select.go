package pronote

import (
	"context"
	"errors"
	"fmt"

	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/models"
)

// ErrSelection явно запрошенную интеграцию нельзя синхронизировать.
// Запуск с такой ошибкой фатален.
var ErrSelection = errors.New("integration selection")

// Selection: IntegrationID, иначе StudentID, иначе все активные.
type Selection struct {
	IntegrationID int64
	StudentID     int64
}

// Select интеграции для запуска. Пустой список без ошибки: нечего делать.
func Select(ctx context.Context, q db.Querier, sel Selection) ([]models.Integration, error) {
	switch {
	case sel.IntegrationID > 0:
		in, err := db.GetIntegration(ctx, q, sel.IntegrationID)
		if err != nil {
			return nil, err
		}
		if in == nil {
			return nil, fmt.Errorf("%w: integration %d not found", ErrSelection, sel.IntegrationID)
		}
		if in.Type != models.IntegrationPronote {
			return nil, fmt.Errorf("%w: integration %d is %s, not pronote", ErrSelection, in.ID, in.Type)
		}
		return []models.Integration{*in}, nil
	case sel.StudentID > 0:
		id := sel.StudentID
		return db.ListActiveIntegrations(ctx, q, models.IntegrationPronote, &id)
	}
	return db.ListActiveIntegrations(ctx, q, models.IntegrationPronote, nil)
}
