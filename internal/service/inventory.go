// Package service implements the multi-step inventory procedures on top
// of the repositories: inserting a display together with a missing model,
// deleting a display and pruning a model nobody references any more, and
// updating a display.  Each step is its own auto-committed statement;
// nothing here opens a transaction.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/displaydb/internal/model"
	"github.com/iliyamo/displaydb/internal/queue"
	"github.com/iliyamo/displaydb/internal/repository"
)

// ModelCache keeps model details close to the console.  Misses and
// backend failures are both reported as a miss.
type ModelCache interface {
	Get(ctx context.Context, modelNo string) (*model.Model, bool)
	Set(ctx context.Context, m model.Model)
	Evict(ctx context.Context, modelNo string)
}

// ModelDetailsFunc supplies the physical attributes of a model that does
// not exist yet.  It is only called when Insert needs to create the model.
type ModelDetailsFunc func(modelNo string) (model.Model, error)

// Inventory groups the repositories of one session with the optional
// event publisher and model cache.
type Inventory struct {
	Displays *repository.DisplayRepo
	Models   *repository.ModelRepo

	events Publisher
	cache  ModelCache
	log    *zap.Logger
	now    func() time.Time
}

// Option customises an Inventory.
type Option func(*Inventory)

// WithPublisher sends inventory events through p.
func WithPublisher(p Publisher) Option { return func(s *Inventory) { s.events = p } }

// WithCache serves model details through c.
func WithCache(c ModelCache) Option { return func(s *Inventory) { s.cache = c } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Inventory) { s.log = l } }

// NewInventory builds an Inventory over db.
func NewInventory(db *sql.DB, opts ...Option) *Inventory {
	s := &Inventory{
		Displays: repository.NewDisplayRepo(db),
		Models:   repository.NewModelRepo(db),
		events:   nopPublisher{},
		cache:    nopCache{},
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertResult reports what Insert wrote, also when it failed half way.
type InsertResult struct {
	ModelCreated   bool
	DisplayCreated bool
}

// Insert adds d.  When d.ModelNo is unknown, details is asked for the
// model attributes and the model row is written first.  A failure after
// the model was created leaves the model in place; the result says so.
func (s *Inventory) Insert(ctx context.Context, d model.Display, details ModelDetailsFunc) (InsertResult, error) {
	var res InsertResult

	_, err := s.Models.GetByModelNo(ctx, d.ModelNo)
	switch {
	case errors.Is(err, repository.ErrModelNotFound):
		m, err := details(d.ModelNo)
		if err != nil {
			return res, err
		}
		m.ModelNo = d.ModelNo
		if err := s.Models.Create(ctx, &m); err != nil {
			return res, fmt.Errorf("create model %s: %w", m.ModelNo, err)
		}
		res.ModelCreated = true
		s.cache.Set(ctx, m)
		s.publish(ctx, queue.InventoryEvent{Kind: queue.KindModelCreated, ModelNo: m.ModelNo})
	case err != nil:
		return res, fmt.Errorf("look up model %s: %w", d.ModelNo, err)
	}

	if err := s.Displays.Create(ctx, &d); err != nil {
		return res, fmt.Errorf("create display %s: %w", d.SerialNo, err)
	}
	res.DisplayCreated = true
	s.publish(ctx, queue.InventoryEvent{
		Kind:            queue.KindDisplayCreated,
		SerialNo:        d.SerialNo,
		SchedulerSystem: d.SchedulerSystem,
		ModelNo:         d.ModelNo,
	})
	return res, nil
}

// DeleteResult reports how far Delete got.
type DeleteResult struct {
	ModelNo        string // model the display referenced; empty when not resolved
	DisplayDeleted bool
	ModelRemoved   bool
}

// Delete removes the display with serialNo and then its model when no
// other display references it.  repository.ErrDisplayNotFound is returned
// untouched when the serial is unknown, in which case nothing is written.
func (s *Inventory) Delete(ctx context.Context, serialNo string) (DeleteResult, error) {
	var res DeleteResult

	d, err := s.Displays.GetBySerial(ctx, serialNo)
	if err != nil {
		if errors.Is(err, repository.ErrDisplayNotFound) {
			return res, err
		}
		return res, fmt.Errorf("resolve model of %s: %w", serialNo, err)
	}
	res.ModelNo = d.ModelNo

	if err := s.Displays.DeleteBySerial(ctx, serialNo); err != nil {
		return res, fmt.Errorf("delete display %s: %w", serialNo, err)
	}
	res.DisplayDeleted = true
	s.publish(ctx, queue.InventoryEvent{
		Kind:            queue.KindDisplayDeleted,
		SerialNo:        d.SerialNo,
		SchedulerSystem: d.SchedulerSystem,
		ModelNo:         d.ModelNo,
	})

	removed, err := s.pruneModel(ctx, d.ModelNo)
	res.ModelRemoved = removed
	return res, err
}

// UpdateResult reports the side effects of Update.
type UpdateResult struct {
	PreviousModelNo string
	Updated         bool
	ModelRemoved    bool
}

// Update overwrites the scheduler system and model number of the display
// identified by d.SerialNo.  The display must exist
// (repository.ErrDisplayNotFound) and so must the new model
// (repository.ErrModelNotFound); nothing is written otherwise.  When the
// previous model lost its last reference it is removed.
func (s *Inventory) Update(ctx context.Context, d model.Display) (UpdateResult, error) {
	var res UpdateResult

	cur, err := s.Displays.GetBySerial(ctx, d.SerialNo)
	if err != nil {
		if errors.Is(err, repository.ErrDisplayNotFound) {
			return res, err
		}
		return res, fmt.Errorf("look up display %s: %w", d.SerialNo, err)
	}
	res.PreviousModelNo = cur.ModelNo

	if _, err := s.Models.GetByModelNo(ctx, d.ModelNo); err != nil {
		if errors.Is(err, repository.ErrModelNotFound) {
			return res, err
		}
		return res, fmt.Errorf("look up model %s: %w", d.ModelNo, err)
	}

	if err := s.Displays.UpdateBySerial(ctx, &d); err != nil {
		if errors.Is(err, repository.ErrDisplayNotFound) {
			return res, err
		}
		return res, fmt.Errorf("update display %s: %w", d.SerialNo, err)
	}
	res.Updated = true
	s.publish(ctx, queue.InventoryEvent{
		Kind:            queue.KindDisplayUpdated,
		SerialNo:        d.SerialNo,
		SchedulerSystem: d.SchedulerSystem,
		ModelNo:         d.ModelNo,
	})

	if cur.ModelNo == d.ModelNo {
		return res, nil
	}
	removed, err := s.pruneModel(ctx, cur.ModelNo)
	res.ModelRemoved = removed
	return res, err
}

// ModelDetail looks a model up by exact number, through the cache.
// repository.ErrModelNotFound is a normal outcome.
func (s *Inventory) ModelDetail(ctx context.Context, modelNo string) (*model.Model, error) {
	if m, ok := s.cache.Get(ctx, modelNo); ok {
		return m, nil
	}
	m, err := s.Models.GetByModelNo(ctx, modelNo)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, *m)
	return m, nil
}

// pruneModel deletes modelNo when no display references it.
func (s *Inventory) pruneModel(ctx context.Context, modelNo string) (bool, error) {
	n, err := s.Displays.CountByModel(ctx, modelNo)
	if err != nil {
		return false, fmt.Errorf("count displays of model %s: %w", modelNo, err)
	}
	if n > 0 {
		return false, nil
	}
	if err := s.Models.Delete(ctx, modelNo); err != nil {
		return false, fmt.Errorf("delete model %s: %w", modelNo, err)
	}
	s.cache.Evict(ctx, modelNo)
	s.publish(ctx, queue.InventoryEvent{Kind: queue.KindModelDeleted, ModelNo: modelNo})
	return true, nil
}

func (s *Inventory) publish(ctx context.Context, ev queue.InventoryEvent) {
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish inventory event failed",
			zap.String("kind", ev.Kind),
			zap.String("serial_no", ev.SerialNo),
			zap.String("model_no", ev.ModelNo),
			zap.Error(err))
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*model.Model, bool) { return nil, false }
func (nopCache) Set(context.Context, model.Model) {}
func (nopCache) Evict(context.Context, string) {}
