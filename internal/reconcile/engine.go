package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/graphmirror/internal/coerce"
	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/queryir"
	"github.com/roach88/graphmirror/internal/schema"
	"github.com/roach88/graphmirror/internal/store"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	Filter(ctx context.Context, entity string, pred queryir.Predicate) ([]ir.LocalRecord, error)
	Latest(ctx context.Context, entity string, pred queryir.Predicate, n int) ([]ir.LocalRecord, error)
	Get(ctx context.Context, entity string, pred queryir.Predicate) (ir.LocalRecord, error)
	Create(ctx context.Context, rec ir.LocalRecord) (ir.LocalRecord, error)
	Save(ctx context.Context, rec ir.LocalRecord) (ir.LocalRecord, error)
	Delete(ctx context.Context, rec ir.LocalRecord) error
	GetOrCreateStruct(ctx context.Context, kind string, fields ir.IRObject) (int64, error)
	WriteRun(ctx context.Context, run ir.Run) (int64, error)
}

var _ Store = (*store.Store)(nil)

// Options adjust a single reconcile.
type Options struct {
	// Context is the natural key of the owner the batch belongs to. Empty
	// means "take it from the first record". Ignored for session-scoped
	// entities.
	Context string

	// Stream overrides the entity policy's stream flag when set.
	Stream *bool
}

// Result lists the primary keys touched by a reconcile, in processing
// order. Resolved keys hit a uniqueness conflict on create and were saved
// over the existing record instead.
type Result struct {
	RunID    string   `json:"run_id"`
	Context  string   `json:"context,omitempty"`
	Added    []string `json:"added"`
	Updated  []string `json:"updated"`
	Deleted  []string `json:"deleted"`
	Resolved []string `json:"resolved"`
}

func newResult(runID string) Result {
	return Result{
		RunID:    runID,
		Added:    []string{},
		Updated:  []string{},
		Deleted:  []string{},
		Resolved: []string{},
	}
}

// Engine reconciles remote batches into one store.
//
// Not safe for concurrent use: one reconcile at a time.
type Engine struct {
	registry *schema.Registry
	store    Store
	coercer  *coerce.Coercer
	policies map[string]EntityPolicy
	runIDs   RunIDGenerator
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithMetrics enables metric collection.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithPolicy overrides the policy of one entity.
func WithPolicy(entity string, p EntityPolicy) Option {
	return func(e *Engine) {
		e.policies[entity] = p
	}
}

// New creates an Engine over st for the entities in registry.
func New(registry *schema.Registry, st Store, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		store:    st,
		coercer:  coerce.New(registry, st, coerce.NewStructCache(st)),
		policies: DefaultPolicies(registry),
		runIDs:   UUIDv7Generator{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile merges batch, the remote records of entity for viewer, into
// local storage and logs the run.
//
// Errors are *ir.Error values for contract violations (SCHEMA_MISMATCH,
// CONTEXT_MISMATCH, TYPE_MISMATCH, NOT_FOUND, INTEGRITY_CONFLICT) and
// wrapped store errors otherwise. Errors raised before the first write
// leave storage untouched.
func (e *Engine) Reconcile(ctx context.Context, entity, viewer string, batch []ir.RemoteRecord, opts Options) (Result, error) {
	s, ok := e.registry.Lookup(entity)
	if !ok {
		return Result{}, fmt.Errorf("reconcile: unknown entity %q", entity)
	}
	policy, ok := e.policies[entity]
	if !ok {
		return Result{}, fmt.Errorf("reconcile: no policy for entity %q", entity)
	}

	stream := policy.IsStream()
	if opts.Stream != nil {
		stream = *opts.Stream
	}

	start := e.now()
	res := newResult(e.runIDs.Generate())
	logger := e.logger.With("run_id", res.RunID, "entity", entity, "viewer", viewer)

	err := e.reconcile(ctx, s, policy, viewer, batch, opts.Context, stream, &res, logger)

	status := ir.RunStatusOK
	if err != nil {
		status = ir.RunStatusError
	}
	e.metrics.observe(entity, res, status, e.now().Sub(start))
	e.logRun(ctx, logger, entity, viewer, stream, res, err)

	if err != nil {
		logger.Error("reconcile failed",
			"context", res.Context,
			"added", len(res.Added),
			"updated", len(res.Updated),
			"error", err,
		)
		return res, err
	}

	logger.Info("reconcile complete",
		"context", res.Context,
		"stream", stream,
		"added", len(res.Added),
		"updated", len(res.Updated),
		"deleted", len(res.Deleted),
		"resolved", len(res.Resolved),
	)
	return res, nil
}

func (e *Engine) reconcile(
	ctx context.Context,
	s *schema.Schema,
	policy EntityPolicy,
	viewer string,
	batch []ir.RemoteRecord,
	explicitContext string,
	stream bool,
	res *Result,
	logger *slog.Logger,
) error {
	for i, rec := range batch {
		if err := s.CheckKeys(i, rec); err != nil {
			return err
		}
	}

	contextKey, err := e.batchContext(s, batch, explicitContext)
	if err != nil {
		return err
	}
	res.Context = contextKey

	if !s.SessionScoped() && contextKey == "" {
		// Nothing names an owner, so there is no scope to compare against.
		logger.Debug("empty batch without context, nothing to do")
		return nil
	}

	scope, err := LoadScope(ctx, e.store, s, viewer, contextKey)
	if err != nil {
		return err
	}

	keys := make([]string, len(batch))
	remote := make(map[string]bool, len(batch))
	for i, rec := range batch {
		key, ok, err := e.coercer.NaturalKey(s.Name, s.Primary(), rec[s.PrimaryIdentifier])
		if err != nil {
			return err
		}
		if !ok {
			return ir.NewTypeMismatch(s.Name, s.PrimaryIdentifier, rec[s.PrimaryIdentifier],
				errors.New("null primary identifier"))
		}
		keys[i] = key
		remote[key] = true
	}

	var toDelete []ir.LocalRecord
	if !stream {
		for _, local := range scope.Records {
			if !remote[local.Key] {
				toDelete = append(toDelete, local)
			}
		}
	}

	logger.Debug("scope loaded",
		"context", contextKey,
		"local", len(scope.Records),
		"remote", len(batch),
		"to_delete", len(toDelete),
	)

	for i, rec := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := e.coercer.Record(ctx, viewer, s, rec)
		if err != nil {
			return err
		}
		local := ir.LocalRecord{
			Entity: s.Name,
			Viewer: viewer,
			Key:    keys[i],
			Owner:  scope.Owner,
			Fields: fields,
		}

		if scope.Has(keys[i]) {
			if err := e.update(ctx, local); err != nil {
				return err
			}
			res.Updated = append(res.Updated, keys[i])
			continue
		}

		resolved, err := e.create(ctx, policy, local, logger)
		if err != nil {
			return err
		}
		if resolved {
			res.Resolved = append(res.Resolved, keys[i])
		} else {
			res.Added = append(res.Added, keys[i])
		}
	}

	for _, local := range toDelete {
		if err := e.store.Delete(ctx, local); err != nil {
			return fmt.Errorf("delete %s %s: %w", s.Name, local.Key, err)
		}
		res.Deleted = append(res.Deleted, local.Key)
	}
	return nil
}

// batchContext returns the owner natural key the batch belongs to and
// checks that every record names that owner.
func (e *Engine) batchContext(s *schema.Schema, batch []ir.RemoteRecord, explicit string) (string, error) {
	owner, ok := s.Owner()
	if !ok {
		return "", nil
	}

	want := explicit
	for _, rec := range batch {
		got, ok, err := e.coercer.NaturalKey(s.Name, owner, rec[owner.Name])
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ir.NewTypeMismatch(s.Name, owner.Name, rec[owner.Name], errors.New("null owner"))
		}
		if want == "" {
			want = got
		}
		if got != want {
			return "", ir.NewContextMismatch(s.Name, owner.Name, want, got)
		}
	}
	return want, nil
}

func (e *Engine) update(ctx context.Context, rec ir.LocalRecord) error {
	existing, err := e.store.Get(ctx, rec.Entity, queryir.All(
		store.ByViewer(rec.Viewer),
		store.ByKey(rec.Key),
		store.ByOwner(rec.Owner),
	))
	if err != nil {
		return err
	}
	rec.ID = existing.ID
	if _, err := e.store.Save(ctx, rec); err != nil {
		return err
	}
	return nil
}

// create inserts rec, handing a uniqueness conflict to the policy's
// resolver when it has one. resolved reports whether that happened.
func (e *Engine) create(ctx context.Context, policy EntityPolicy, rec ir.LocalRecord, logger *slog.Logger) (resolved bool, err error) {
	_, err = e.store.Create(ctx, rec)
	if err == nil {
		return false, nil
	}
	if !ir.IsIntegrityConflict(err) {
		return false, err
	}

	e.metrics.conflict(rec.Entity)
	resolver, ok := policy.(ConflictResolver)
	if !ok {
		return false, err
	}

	logger.Warn("resolving conflict by reusing existing record", "key", rec.Key)
	if _, err := resolver.Resolve(ctx, e.store, rec); err != nil {
		return false, fmt.Errorf("resolve conflict on %s %s: %w", rec.Entity, rec.Key, err)
	}
	return true, nil
}

func (e *Engine) logRun(ctx context.Context, logger *slog.Logger, entity, viewer string, stream bool, res Result, runErr error) {
	run := ir.Run{
		ID:            res.RunID,
		Entity:        entity,
		Viewer:        viewer,
		Context:       res.Context,
		Stream:        stream,
		Added:         len(res.Added),
		Updated:       len(res.Updated),
		Deleted:       len(res.Deleted),
		Resolved:      len(res.Resolved),
		Status:        ir.RunStatusOK,
		EngineVersion: ir.EngineVersion,
	}
	if runErr != nil {
		run.Status = ir.RunStatusError
		run.Error = runErr.Error()
	}

	// A cancelled reconcile still gets its run row.
	if _, err := e.store.WriteRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("failed to write run log", "error", err)
	}
}
