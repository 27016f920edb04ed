// Package syncer reconciles one entity collection between the local cache
// and the remote store. Reads favor the cache and refresh it from the
// remote when reachable; writes commit locally first and journal any remote
// divergence for a later flush. The user is never blocked by a transient
// network failure, but the remote stays long-run authoritative.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/swapcycle/swapcycle-api/internal/remote"
)

// WriteOutcome reports how far a write-through propagated.
type WriteOutcome int

const (
	// OutcomeLocal means only the local cache was written; no remote write
	// was attempted.
	OutcomeLocal WriteOutcome = iota
	// OutcomeSynced means both the local cache and the remote accepted the
	// write.
	OutcomeSynced
	// OutcomePendingRemote means the local cache accepted the write but the
	// remote did not; the divergence is journaled for a later flush.
	OutcomePendingRemote
)

// Report summarizes a full bidirectional sync pass.
type Report struct {
	Pulled int
	Pushed int
	Failed int
}

// Journal records local writes awaiting a remote replay.
type Journal interface {
	EnqueuePending(ctx context.Context, collection, entityID string) error
	PendingIDs(ctx context.Context, collection string) ([]string, error)
	ClearPending(ctx context.Context, collection, entityID string) error
}

// Funcs binds a coordinator to one entity type's cache accessors and wire
// encoding.
type Funcs[T any] struct {
	// Key returns the entity's id in string form.
	Key func(T) string
	// Encode serializes the entity into its remote document.
	Encode func(T) ([]byte, error)
	// Decode parses a remote document into the entity.
	Decode func([]byte) (T, error)
	// SaveLocal replaces the cached copy of the entity.
	SaveLocal func(context.Context, T) error
	// LoadLocal returns the cached entity by id, reporting absence.
	LoadLocal func(context.Context, string) (T, bool, error)
	// ListLocal returns every cached entity of the collection.
	ListLocal func(context.Context) ([]T, error)
	// DeleteLocal removes the cached entity by id. Nil for collections whose
	// entities are never deleted.
	DeleteLocal func(context.Context, string) error
}

// Coordinator synchronizes a single collection.
type Coordinator[T any] struct {
	name    string
	remote  remote.Store
	journal Journal
	fn      Funcs[T]
}

// New creates a coordinator for one collection.
func New[T any](name string, store remote.Store, journal Journal, fn Funcs[T]) *Coordinator[T] {
	return &Coordinator[T]{name: name, remote: store, journal: journal, fn: fn}
}

// Name returns the collection name.
func (c *Coordinator[T]) Name() string { return c.name }

// ReadThrough serves the local selection, refreshed from the remote when
// reachable. A remote failure is logged and the local result stands; it is
// not surfaced as an error because the cached data remains valid.
func (c *Coordinator[T]) ReadThrough(ctx context.Context, filter remote.Filter, readLocal func(context.Context) ([]T, error)) ([]T, error) {
	local, err := readLocal(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s from cache: %w", c.name, err)
	}

	docs, err := c.remote.Query(ctx, c.name, filter)
	if err != nil {
		log.Printf("syncer: remote read of %s failed, serving cached copy: %v", c.name, err)
		return local, nil
	}

	for _, doc := range docs {
		entity, err := c.fn.Decode(doc)
		if err != nil {
			log.Printf("syncer: dropping undecodable remote %s document: %v", c.name, err)
			continue
		}
		if err := c.fn.SaveLocal(ctx, entity); err != nil {
			return nil, fmt.Errorf("refreshing %s cache: %w", c.name, err)
		}
	}

	return readLocal(ctx)
}

// WriteThrough commits the entity locally, then attempts the remote write.
// A remote failure journals the entity and still reports success with
// OutcomePendingRemote. A local failure is an error; nothing is committed.
func (c *Coordinator[T]) WriteThrough(ctx context.Context, entity T) (WriteOutcome, error) {
	if err := c.fn.SaveLocal(ctx, entity); err != nil {
		return OutcomeLocal, fmt.Errorf("writing %s to cache: %w", c.name, err)
	}

	key := c.fn.Key(entity)
	doc, err := c.fn.Encode(entity)
	if err != nil {
		return OutcomeLocal, fmt.Errorf("encoding %s %s: %w", c.name, key, err)
	}

	if err := c.remote.Set(ctx, c.name, key, doc); err != nil {
		log.Printf("syncer: remote write of %s/%s failed, journaled for retry: %v", c.name, key, err)
		if jerr := c.journal.EnqueuePending(ctx, c.name, key); jerr != nil {
			return OutcomePendingRemote, jerr
		}
		return OutcomePendingRemote, nil
	}

	// A successful write supersedes any journaled divergence for the entity.
	if err := c.journal.ClearPending(ctx, c.name, key); err != nil {
		return OutcomeSynced, err
	}
	return OutcomeSynced, nil
}

// DeleteThrough removes the entity locally and from the remote. A remote
// failure journals the id so the deletion propagates on the next flush; the
// vanished local row is what marks the journal entry as a deletion.
func (c *Coordinator[T]) DeleteThrough(ctx context.Context, id string) (WriteOutcome, error) {
	if c.fn.DeleteLocal == nil {
		return OutcomeLocal, fmt.Errorf("%s entities cannot be deleted", c.name)
	}
	if err := c.fn.DeleteLocal(ctx, id); err != nil {
		return OutcomeLocal, fmt.Errorf("deleting %s from cache: %w", c.name, err)
	}

	if err := c.remote.Delete(ctx, c.name, id); err != nil {
		log.Printf("syncer: remote delete of %s/%s failed, journaled for retry: %v", c.name, id, err)
		if jerr := c.journal.EnqueuePending(ctx, c.name, id); jerr != nil {
			return OutcomePendingRemote, jerr
		}
		return OutcomePendingRemote, nil
	}

	if err := c.journal.ClearPending(ctx, c.name, id); err != nil {
		return OutcomeSynced, err
	}
	return OutcomeSynced, nil
}

// FullSync pulls every remote entity into the cache, then pushes every
// cached entity back out. Each item syncs independently and idempotently;
// successes are never rolled back. Any failed item makes the pass report an
// error alongside the counts.
func (c *Coordinator[T]) FullSync(ctx context.Context) (Report, error) {
	var report Report

	// Journaled ids carry unflushed local intent (a write or a deletion);
	// the remote copy must not overwrite them.
	pending, err := c.journal.PendingIDs(ctx, c.name)
	if err != nil {
		return report, err
	}
	journaled := make(map[string]bool, len(pending))
	for _, id := range pending {
		journaled[id] = true
	}

	docs, err := c.remote.Query(ctx, c.name, remote.All())
	if err != nil {
		return report, fmt.Errorf("pulling %s: %w", c.name, err)
	}
	for _, doc := range docs {
		entity, err := c.fn.Decode(doc)
		if err != nil {
			log.Printf("syncer: full sync skipping undecodable %s document: %v", c.name, err)
			report.Failed++
			continue
		}
		if journaled[c.fn.Key(entity)] {
			continue
		}
		if err := c.fn.SaveLocal(ctx, entity); err != nil {
			report.Failed++
			continue
		}
		report.Pulled++
	}

	local, err := c.fn.ListLocal(ctx)
	if err != nil {
		return report, fmt.Errorf("listing cached %s: %w", c.name, err)
	}
	for _, entity := range local {
		key := c.fn.Key(entity)
		doc, err := c.fn.Encode(entity)
		if err != nil {
			report.Failed++
			continue
		}
		if err := c.remote.Set(ctx, c.name, key, doc); err != nil {
			log.Printf("syncer: full sync push of %s/%s failed: %v", c.name, key, err)
			report.Failed++
			continue
		}
		report.Pushed++
	}

	if report.Failed > 0 {
		return report, fmt.Errorf("syncing %s: %d items failed", c.name, report.Failed)
	}
	return report, nil
}

// Flush replays the pending-write journal against the remote and returns
// how many entries landed. An entry whose entity vanished from the cache is
// a journaled deletion and is replayed as a remote delete.
func (c *Coordinator[T]) Flush(ctx context.Context) (int, error) {
	ids, err := c.journal.PendingIDs(ctx, c.name)
	if err != nil {
		return 0, err
	}

	flushed := 0
	for _, id := range ids {
		entity, ok, err := c.fn.LoadLocal(ctx, id)
		if err != nil {
			return flushed, err
		}
		if !ok {
			if err := c.remote.Delete(ctx, c.name, id); err != nil {
				log.Printf("syncer: flush delete of %s/%s failed, keeping journal entry: %v", c.name, id, err)
				continue
			}
			if err := c.journal.ClearPending(ctx, c.name, id); err != nil {
				return flushed, err
			}
			flushed++
			continue
		}

		doc, err := c.fn.Encode(entity)
		if err != nil {
			return flushed, fmt.Errorf("encoding journaled %s %s: %w", c.name, id, err)
		}
		if err := c.remote.Set(ctx, c.name, id, doc); err != nil {
			// Still unreachable; keep the entry for the next pass.
			log.Printf("syncer: flush of %s/%s failed, keeping journal entry: %v", c.name, id, err)
			continue
		}
		if err := c.journal.ClearPending(ctx, c.name, id); err != nil {
			return flushed, err
		}
		flushed++
	}
	return flushed, nil
}

// CleanupOrphans deletes remote documents whose owning parent no longer
// exists. The cache is untouched; this is backend hygiene, not workflow
// correctness.
func (c *Coordinator[T]) CleanupOrphans(ctx context.Context, parentID func(T) string, parentExists func(context.Context, string) (bool, error)) (int, error) {
	docs, err := c.remote.Query(ctx, c.name, remote.All())
	if err != nil {
		return 0, fmt.Errorf("querying %s for orphans: %w", c.name, err)
	}

	removed := 0
	for _, doc := range docs {
		entity, err := c.fn.Decode(doc)
		if err != nil {
			continue
		}
		exists, err := parentExists(ctx, parentID(entity))
		if err != nil {
			return removed, err
		}
		if exists {
			continue
		}
		if err := c.remote.Delete(ctx, c.name, c.fn.Key(entity)); err != nil {
			return removed, fmt.Errorf("deleting orphaned %s: %w", c.name, err)
		}
		removed++
	}
	return removed, nil
}

// IsGuardFailure reports whether an error is the remote status guard
// rejecting a stale transition.
func IsGuardFailure(err error) bool {
	return errors.Is(err, remote.ErrGuardFailed)
}
