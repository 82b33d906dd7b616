package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/logging"
	"github.com/Spok95/curriculum-sync/internal/models"
	"github.com/Spok95/curriculum-sync/internal/normalize"
)

// NodeStore одна явная операция на каждую форму поиска.
// FindByNameAndParent без строки возвращает nil, nil.
type NodeStore interface {
	FindByNameAndParent(ctx context.Context, level models.Level, parentID int64, name string) (*models.Node, error)
	CreateNode(ctx context.Context, n *models.Node) error
	UpdateNode(ctx context.Context, n *models.Node) error
}

type UpsertOptions struct {
	// Force перезаписывает найденные узлы (имя, промпты, updated_at).
	Force bool
	// UpdateOnly не создаёт узлы: отсутствующие считаются skipped вместе
	// с поддеревом. Так грузятся промпты.
	UpdateOnly bool
}

// nodeRecord ограничения записи до вставки; совпадают со схемой.
type nodeRecord struct {
	Name    string `validate:"required,max=255"`
	Payload []byte `validate:"omitempty,json"`
}

type Engine struct {
	norm     normalize.Normalizer
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewEngine(n normalize.Normalizer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{norm: n, log: log, validate: validator.New(), now: time.Now}
}

// WithClock для тестов.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// UpsertLevel приводит детей parentID на уровне level к состоянию
// источника и спускается в их поддеревья.
//
// Поиск делается заново для каждого ребёнка, без предзагруженного индекса:
// повтор имени среди соседей в одном ответе находит только что созданный
// узел, а не плодит дубль. Ошибки хранилища не глотаются.
func (e *Engine) UpsertLevel(ctx context.Context, store NodeStore, level models.Level, parentID int64, children []RawNode, opts UpsertOptions) (Stats, error) {
	stats := Stats{}
	if err := e.upsertLevel(ctx, store, level, parentID, children, opts, stats); err != nil {
		return stats, err
	}
	return stats, nil
}

func (e *Engine) upsertLevel(ctx context.Context, store NodeStore, level models.Level, parentID int64, children []RawNode, opts UpsertOptions, stats Stats) error {
	kind := level.Kind()
	stats.touch(kind)
	log := logging.FromContext(ctx, e.log)

	for _, raw := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := e.norm.Normalize(raw.Name)
		if !normalize.IsUsable(name) {
			// без имени нет и потомков
			stats.Skipped(kind)
			log.Debug("unusable name skipped", zap.String("kind", kind), zap.String("raw", raw.Name),
				zap.Int("subtree", raw.Count()-1))
			continue
		}
		if err := e.check(kind, name, raw.Payload); err != nil {
			stats.Skipped(kind)
			log.Warn("record skipped", zap.Error(err))
			continue
		}

		node, err := store.FindByNameAndParent(ctx, level, parentID, name)
		if err != nil {
			return persistErr("find "+kind, err)
		}

		switch {
		case node == nil && opts.UpdateOnly:
			stats.Skipped(kind)
			log.Info("node not found, skipped", zap.String("kind", kind), zap.String("name", name), zap.Int64("parent_id", parentID))
			continue

		case node == nil:
			node = &models.Node{Level: level, ParentID: parentID, Name: name, Prompts: clonePayload(raw.Payload), CreatedAt: e.now()}
			if err := store.CreateNode(ctx, node); err != nil {
				return persistErr("create "+kind, err)
			}
			stats.Created(kind)

		case opts.Force:
			node.Name = name
			if len(raw.Payload) > 0 {
				node.Prompts = clonePayload(raw.Payload)
			}
			node.UpdatedAt = e.now()
			if err := store.UpdateNode(ctx, node); err != nil {
				return persistErr("update "+kind, err)
			}
			stats.Updated(kind)

		case !emptyPayload(raw.Payload) && emptyPayload(node.Prompts):
			node.Prompts = clonePayload(raw.Payload)
			node.UpdatedAt = e.now()
			if err := store.UpdateNode(ctx, node); err != nil {
				return persistErr("update "+kind, err)
			}
			stats.Updated(kind)

		default:
			stats.Unchanged(kind)
		}

		childLevel, ok := level.Child()
		if !ok || len(raw.Children) == 0 {
			continue
		}
		if err := e.upsertLevel(ctx, store, childLevel, node.ID, raw.Children, opts, stats); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) check(kind, name string, payload json.RawMessage) error {
	rec := nodeRecord{Name: name}
	if len(payload) > 0 {
		rec.Payload = payload
	}
	if err := e.validate.Struct(rec); err != nil {
		reason := err.Error()
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			reason = verrs[0].Field() + " failed " + verrs[0].Tag()
		}
		return &ValidationError{Kind: kind, Record: name, Reason: reason}
	}
	return nil
}

func emptyPayload(p json.RawMessage) bool {
	switch strings.TrimSpace(string(p)) {
	case "", "null", "[]", "{}", `""`:
		return true
	}
	return false
}

func clonePayload(p json.RawMessage) json.RawMessage {
	if len(p) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), p...)
}
