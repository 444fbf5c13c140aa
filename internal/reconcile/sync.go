package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/graphmirror/internal/coerce"
	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/query"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/remote"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// BatchSizes is the number of friends fetched per batch request, by entity.
type BatchSizes struct {
	User  int `mapstructure:"user"`
	Like  int `mapstructure:"like"`
	Album int `mapstructure:"album"`
	Photo int `mapstructure:"photo"`
	Link  int `mapstructure:"link"`
}

// DefaultBatchSizes returns the stock batch sizes. Photos and links are
// fetched a few friends at a time since a single friend can have thousands.
func DefaultBatchSizes() BatchSizes {
	return BatchSizes{User: 100, Like: 100, Album: 100, Photo: 2, Link: 3}
}

func (b BatchSizes) forEntity(entity string) int {
	var n int
	switch entity {
	case schema.EntityUser:
		n = b.User
	case schema.EntityLike:
		n = b.Like
	case schema.EntityAlbum:
		n = b.Album
	case schema.EntityPhoto:
		n = b.Photo
	case schema.EntityLink:
		n = b.Link
	}
	if n <= 0 {
		n = 1
	}
	return n
}

// SyncStore is the storage the Syncer reads friend lists and viewer
// identities from.
type SyncStore interface {
	Filter(ctx context.Context, entity string, pred queryir.Predicate) ([]ir.LocalRecord, error)
	Get(ctx context.Context, entity string, pred queryir.Predicate) (ir.LocalRecord, error)
	SetViewerUID(ctx context.Context, viewer, uid string) error
	ViewerUID(ctx context.Context, viewer string) (string, error)
}

var _ SyncStore = (*store.Store)(nil)

// Step is the outcome of one reconcile within a sync.
type Step struct {
	Entity  string `json:"entity"`
	Friends bool   `json:"friends"`
	Result  Result `json:"result"`
}

// Step order of a full sync. A true Friends flag fetches per friend.
var pipeline = []struct {
	entity  string
	friends bool
}{
	{schema.EntityUser, false},
	{schema.EntityFriend, false},
	{schema.EntityUser, true},
	{schema.EntityLike, false},
	{schema.EntityLike, true},
	{schema.EntityAlbum, false},
	{schema.EntityAlbum, true},
	{schema.EntityPhoto, false},
	{schema.EntityPhoto, true},
	{schema.EntityLink, false},
	{schema.EntityLink, true},
	{schema.EntityNotification, false},
	{schema.EntityStream, false},
}

// Syncer runs the import pipeline for a viewer.
type Syncer struct {
	engine *Engine
	store  SyncStore
	client remote.Client
	batch  BatchSizes
	logger *slog.Logger
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithBatchSizes sets the per-entity friend batch sizes.
func WithBatchSizes(b BatchSizes) SyncOption {
	return func(s *Syncer) {
		s.batch = b
	}
}

// WithSyncLogger sets the syncer's logger. Default: slog.Default().
func WithSyncLogger(l *slog.Logger) SyncOption {
	return func(s *Syncer) {
		s.logger = l
	}
}

// NewSyncer creates a Syncer that fetches through client and reconciles
// through engine.
func NewSyncer(engine *Engine, st SyncStore, client remote.Client, opts ...SyncOption) *Syncer {
	s := &Syncer{
		engine: engine,
		store:  st,
		client: client,
		batch:  DefaultBatchSizes(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the full pipeline in order and stops at the first error.
// Steps completed before the error stay applied and are returned.
func (s *Syncer) Run(ctx context.Context, viewer string) ([]Step, error) {
	var steps []Step
	for _, p := range pipeline {
		got, err := s.SyncEntity(ctx, viewer, p.entity, p.friends)
		steps = append(steps, got...)
		if err != nil {
			return steps, err
		}
	}
	s.logger.Info("sync complete", "viewer", viewer, "steps", len(steps))
	return steps, nil
}

// SyncEntity runs one pipeline step: entity for the viewer, or for each
// of the viewer's stored friends when friends is set.
func (s *Syncer) SyncEntity(ctx context.Context, viewer, entity string, friends bool) ([]Step, error) {
	sch, ok := s.engine.registry.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("sync: unknown entity %q", entity)
	}
	clauses, ok := query.ClausesFor(entity)
	if !ok {
		return nil, fmt.Errorf("sync: no fetch clauses for %q", entity)
	}

	if friends {
		if !clauses.HasFriend() {
			return nil, fmt.Errorf("sync: %s cannot be fetched per friend", entity)
		}
		return s.syncFriends(ctx, viewer, sch, clauses)
	}
	step, err := s.syncSelf(ctx, viewer, sch, clauses)
	if err != nil {
		return nil, err
	}
	return []Step{step}, nil
}

func (s *Syncer) syncSelf(ctx context.Context, viewer string, sch *schema.Schema, clauses query.Clauses) (Step, error) {
	recs, err := s.client.Fetch(ctx, query.Build(sch, clauses.Self))
	if err != nil {
		return Step{}, fmt.Errorf("fetch %s: %w", sch.Name, err)
	}

	var opts Options
	if sch.Name == schema.EntityUser {
		if len(recs) == 0 {
			return Step{}, fmt.Errorf("sync: remote returned no user record for viewer %s", viewer)
		}
	} else if !sch.SessionScoped() {
		uid, err := s.store.ViewerUID(ctx, viewer)
		if err != nil {
			return Step{}, err
		}
		opts.Context = uid
	}

	res, err := s.engine.Reconcile(ctx, sch.Name, viewer, recs, opts)
	if err != nil {
		return Step{}, err
	}

	if sch.Name == schema.EntityUser {
		if err := s.recordViewer(ctx, viewer, recs[0]); err != nil {
			return Step{}, err
		}
	}
	return Step{Entity: sch.Name, Result: res}, nil
}

func (s *Syncer) recordViewer(ctx context.Context, viewer string, self ir.RemoteRecord) error {
	v, err := coerce.Scalar(schema.EntityUser, "uid", schema.KindInteger64, self["uid"])
	if err != nil {
		return err
	}
	uid, ok := ir.KeyString(v)
	if !ok {
		return ir.NewTypeMismatch(schema.EntityUser, "uid", self["uid"], errors.New("null uid"))
	}
	return s.store.SetViewerUID(ctx, viewer, uid)
}

func (s *Syncer) syncFriends(ctx context.Context, viewer string, sch *schema.Schema, clauses query.Clauses) ([]Step, error) {
	friends, err := s.friendUIDs(ctx, viewer, sch.Name != schema.EntityUser)
	if err != nil {
		return nil, err
	}

	size := s.batch.forEntity(sch.Name)
	steps := []Step{}
	for start := 0; start < len(friends); start += size {
		chunk := friends[start:min(start+size, len(friends))]

		queries := make(map[string]string, len(chunk))
		for _, uid := range chunk {
			id, err := coerce.Scalar(sch.Name, "context", schema.KindInteger64, uid)
			if err != nil {
				return steps, err
			}
			queries[uid] = query.Build(sch, clauses.ForFriend(int64(id.(ir.IRInt))))
		}

		batches, err := s.client.FetchBatch(ctx, queries)
		if err != nil {
			return steps, fmt.Errorf("fetch %s for friends: %w", sch.Name, err)
		}

		for _, uid := range chunk {
			res, err := s.engine.Reconcile(ctx, sch.Name, viewer, batches[uid], Options{Context: uid})
			if err != nil {
				return steps, err
			}
			steps = append(steps, Step{Entity: sch.Name, Friends: true, Result: res})
		}
	}

	s.logger.Debug("friend step complete", "entity", sch.Name, "friends", len(friends), "batch", size)
	return steps, nil
}

// friendUIDs lists the viewer's stored friends in storage order. With
// requireUser set, friends whose user record was never stored are
// skipped, since owner-scoped reconciles need it.
func (s *Syncer) friendUIDs(ctx context.Context, viewer string, requireUser bool) ([]string, error) {
	selfUID, err := s.store.ViewerUID(ctx, viewer)
	if err != nil {
		return nil, err
	}
	self, err := s.store.Get(ctx, schema.EntityUser, queryir.All(store.ByViewer(viewer), store.ByKey(selfUID)))
	if err != nil {
		return nil, err
	}
	friends, err := s.store.Filter(ctx, schema.EntityFriend, queryir.All(store.ByViewer(viewer), store.ByOwner(self.ID)))
	if err != nil {
		return nil, err
	}

	known := map[string]bool{}
	if requireUser {
		users, err := s.store.Filter(ctx, schema.EntityUser, store.ByViewer(viewer))
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			known[u.Key] = true
		}
	}

	uids := make([]string, 0, len(friends))
	for _, f := range friends {
		if requireUser && !known[f.Key] {
			s.logger.Warn("skipping friend without a stored user record", "viewer", viewer, "uid", f.Key)
			continue
		}
		uids = append(uids, f.Key)
	}
	return uids, nil
}
