package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/displaydb/internal/model"
	"github.com/iliyamo/displaydb/internal/queue"
	"github.com/iliyamo/displaydb/internal/repository"
	"github.com/iliyamo/displaydb/internal/testutil"
)

type recordingPublisher struct {
	events []queue.InventoryEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.InventoryEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

type mapCache struct {
	entries map[string]model.Model
	hits    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]model.Model{}} }

func (c *mapCache) Get(_ context.Context, modelNo string) (*model.Model, bool) {
	m, ok := c.entries[modelNo]
	if ok {
		c.hits++
		return &m, true
	}
	return nil, false
}
func (c *mapCache) Set(_ context.Context, m model.Model) { c.entries[m.ModelNo] = m }
func (c *mapCache) Evict(_ context.Context, modelNo string) { delete(c.entries, modelNo) }

var m1 = model.Model{ModelNo: "M1", Width: 10, Height: 20, Weight: 5, Depth: 3, ScreenSize: 15}

func noDetails(t *testing.T) ModelDetailsFunc {
	return func(string) (model.Model, error) {
		t.Fatal("model details requested for an existing model")
		return model.Model{}, nil
	}
}

func TestInventory_InsertCreatesMissingModel(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	pub := &recordingPublisher{}
	cache := newMapCache()
	inv := NewInventory(db, WithPublisher(pub), WithCache(cache), WithLogger(zaptest.NewLogger(t)))
	inv.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }

	var asked string
	res, err := inv.Insert(ctx, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"},
		func(modelNo string) (model.Model, error) {
			asked = modelNo
			return model.Model{Width: 10, Height: 20, Weight: 5, Depth: 3, ScreenSize: 15}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, InsertResult{ModelCreated: true, DisplayCreated: true}, res)
	assert.Equal(t, "M1", asked)

	got, err := inv.Models.GetByModelNo(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, m1, *got)

	list, err := inv.Displays.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Display{{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"}}, list)

	assert.Equal(t, []string{queue.KindModelCreated, queue.KindDisplayCreated}, pub.kinds())
	assert.Equal(t, "2026-10-17T09:00:00Z", pub.events[0].OccurredAt)
	assert.Contains(t, cache.entries, "M1")
}

func TestInventory_InsertWithExistingModel(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	testutil.SeedModel(t, db, m1)
	testutil.SeedDisplay(t, db, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"})
	inv := NewInventory(db)

	res, err := inv.Insert(ctx, model.Display{SerialNo: "S2", SchedulerSystem: "Sched-B", ModelNo: "M1"}, noDetails(t))
	require.NoError(t, err)
	assert.False(t, res.ModelCreated)
	assert.True(t, res.DisplayCreated)

	assert.Equal(t, 1, testutil.CountRows(t, db, "Model"))
	assert.Equal(t, 2, testutil.CountRows(t, db, "DigitalDisplay"))
	got, err := inv.Models.GetByModelNo(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, m1, *got)
}

func TestInventory_InsertDuplicateSerial(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	testutil.SeedModel(t, db, m1)
	testutil.SeedDisplay(t, db, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"})
	inv := NewInventory(db)

	res, err := inv.Insert(ctx, model.Display{SerialNo: "S1", SchedulerSystem: "Other", ModelNo: "M1"}, noDetails(t))
	require.Error(t, err)
	assert.False(t, res.DisplayCreated)

	d, err := inv.Displays.GetBySerial(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Sched-A", d.SchedulerSystem)
}

func TestInventory_InsertDetailsAbort(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	inv := NewInventory(db)
	stop := errors.New("input closed")

	_, err := inv.Insert(context.Background(), model.Display{SerialNo: "S1", SchedulerSystem: "A", ModelNo: "M9"},
		func(string) (model.Model, error) { return model.Model{}, stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 0, testutil.CountRows(t, db, "Model"))
	assert.Equal(t, 0, testutil.CountRows(t, db, "DigitalDisplay"))
}

func TestInventory_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	testutil.SeedModel(t, db, m1)
	testutil.SeedDisplay(t, db, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"})
	testutil.SeedDisplay(t, db, model.Display{SerialNo: "S2", SchedulerSystem: "Sched-A", ModelNo: "M1"})
	pub := &recordingPublisher{}
	cache := newMapCache()
	cache.Set(ctx, m1)
	inv := NewInventory(db, WithPublisher(pub), WithCache(cache))

	res, err := inv.Delete(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{ModelNo: "M1", DisplayDeleted: true}, res)
	_, err = inv.Models.GetByModelNo(ctx, "M1")
	require.NoError(t, err, "M1 is still referenced by S2")

	res, err = inv.Delete(ctx, "S2")
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{ModelNo: "M1", DisplayDeleted: true, ModelRemoved: true}, res)
	_, err = inv.Models.GetByModelNo(ctx, "M1")
	assert.ErrorIs(t, err, repository.ErrModelNotFound)

	assert.Equal(t, 0, testutil.CountRows(t, db, "DigitalDisplay"))
	assert.NotContains(t, cache.entries, "M1")
	assert.Equal(t, []string{queue.KindDisplayDeleted, queue.KindDisplayDeleted, queue.KindModelDeleted}, pub.kinds())
}

func TestInventory_DeleteUnknownSerial(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.SeedModel(t, db, m1)
	testutil.SeedDisplay(t, db, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"})
	pub := &recordingPublisher{}
	inv := NewInventory(db, WithPublisher(pub))

	res, err := inv.Delete(context.Background(), "S404")
	assert.ErrorIs(t, err, repository.ErrDisplayNotFound)
	assert.Equal(t, DeleteResult{}, res)
	assert.Equal(t, 1, testutil.CountRows(t, db, "Model"))
	assert.Equal(t, 1, testutil.CountRows(t, db, "DigitalDisplay"))
	assert.Empty(t, pub.events)
}

func TestInventory_Update(t *testing.T) {
	m2 := model.Model{ModelNo: "M2", Width: 1, Height: 2, Weight: 3, Depth: 4, ScreenSize: 5}

	setup := func(t *testing.T) *Inventory {
		db := testutil.NewSQLiteDB(t)
		testutil.SeedModel(t, db, m1)
		testutil.SeedModel(t, db, m2)
		testutil.SeedDisplay(t, db, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"})
		testutil.SeedDisplay(t, db, model.Display{SerialNo: "S2", SchedulerSystem: "Sched-A", ModelNo: "M1"})
		testutil.SeedDisplay(t, db, model.Display{SerialNo: "S3", SchedulerSystem: "Sched-C", ModelNo: "M2"})
		return NewInventory(db)
	}

	t.Run("changes only the target row", func(t *testing.T) {
		ctx := context.Background()
		inv := setup(t)

		res, err := inv.Update(ctx, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-B", ModelNo: "M2"})
		require.NoError(t, err)
		assert.Equal(t, UpdateResult{PreviousModelNo: "M1", Updated: true}, res)

		list, err := inv.Displays.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.Display{
			{SerialNo: "S1", SchedulerSystem: "Sched-B", ModelNo: "M2"},
			{SerialNo: "S2", SchedulerSystem: "Sched-A", ModelNo: "M1"},
			{SerialNo: "S3", SchedulerSystem: "Sched-C", ModelNo: "M2"},
		}, list)
	})

	t.Run("same values still match", func(t *testing.T) {
		inv := setup(t)
		_, err := inv.Update(context.Background(), model.Display{SerialNo: "S3", SchedulerSystem: "Sched-C", ModelNo: "M2"})
		assert.NoError(t, err)
	})

	t.Run("prunes the previous model", func(t *testing.T) {
		ctx := context.Background()
		inv := setup(t)

		res, err := inv.Update(ctx, model.Display{SerialNo: "S3", SchedulerSystem: "Sched-C", ModelNo: "M1"})
		require.NoError(t, err)
		assert.Equal(t, UpdateResult{PreviousModelNo: "M2", Updated: true, ModelRemoved: true}, res)
		_, err = inv.Models.GetByModelNo(ctx, "M2")
		assert.ErrorIs(t, err, repository.ErrModelNotFound)
	})

	t.Run("unknown model writes nothing", func(t *testing.T) {
		ctx := context.Background()
		inv := setup(t)

		_, err := inv.Update(ctx, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-Z", ModelNo: "M404"})
		assert.ErrorIs(t, err, repository.ErrModelNotFound)
		d, err := inv.Displays.GetBySerial(ctx, "S1")
		require.NoError(t, err)
		assert.Equal(t, model.Display{SerialNo: "S1", SchedulerSystem: "Sched-A", ModelNo: "M1"}, *d)
	})

	t.Run("unknown serial", func(t *testing.T) {
		inv := setup(t)
		_, err := inv.Update(context.Background(), model.Display{SerialNo: "S404", SchedulerSystem: "X", ModelNo: "M1"})
		assert.ErrorIs(t, err, repository.ErrDisplayNotFound)
	})
}

func TestInventory_ModelDetail(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	testutil.SeedModel(t, db, m1)
	cache := newMapCache()
	inv := NewInventory(db, WithCache(cache))

	_, err := inv.ModelDetail(ctx, "M404")
	assert.ErrorIs(t, err, repository.ErrModelNotFound)

	got, err := inv.ModelDetail(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, m1, *got)
	assert.Equal(t, 0, cache.hits)

	got, err = inv.ModelDetail(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, m1, *got)
	assert.Equal(t, 1, cache.hits)
}

func TestInventory_PublishFailureDoesNotFailInsert(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	testutil.SeedModel(t, db, m1)
	pub := &recordingPublisher{err: errors.New("broker down")}
	inv := NewInventory(db, WithPublisher(pub), WithLogger(zaptest.NewLogger(t)))

	res, err := inv.Insert(context.Background(), model.Display{SerialNo: "S1", SchedulerSystem: "A", ModelNo: "M1"}, noDetails(t))
	require.NoError(t, err)
	assert.True(t, res.DisplayCreated)
	assert.Len(t, pub.events, 1)
}
