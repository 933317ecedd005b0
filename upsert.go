package clubsync

import (
	"context"

	"github.com/hazuki/clubsync/workspace"
)

// UpsertResult reports where a natural-key write landed.
type UpsertResult struct {
	ID      string
	Created bool
}

// upsert looks a record up by its natural key and updates it, or creates
// it when the key is unseen. After it returns there is at most one live
// record per key, assuming no concurrent writer.
//
// The lookup-then-write pair is not atomic: two runs racing on the same
// week can each miss the other's create and leave duplicates behind. The
// store offers no transactions, so this is an accepted limitation rather
// than something the engine papers over; see TestUpsertRace.
func upsert(ctx context.Context, store workspace.Store, collection string, key workspace.Filter, props workspace.Properties) (UpsertResult, error) {
	return upsertWith(ctx, store, collection, key, props, props)
}

// upsertWith writes createProps on first sighting and updateProps on
// later runs. Agents use it to keep workspace-owned fields (fee rate,
// remark) out of the update payload.
func upsertWith(ctx context.Context, store workspace.Store, collection string, key workspace.Filter, createProps, updateProps workspace.Properties) (UpsertResult, error) {
	existing, err := store.Query(ctx, collection, key)
	if err != nil {
		return UpsertResult{}, &StoreOperationError{Op: "query " + collection, Err: err}
	}
	if len(existing) > 0 {
		if err := store.Update(ctx, existing[0].ID, updateProps); err != nil {
			return UpsertResult{}, &StoreOperationError{Op: "update " + collection, Err: err}
		}
		return UpsertResult{ID: existing[0].ID}, nil
	}
	id, err := store.Create(ctx, collection, createProps)
	if err != nil {
		return UpsertResult{}, &StoreOperationError{Op: "create " + collection, Err: err}
	}
	return UpsertResult{ID: id, Created: true}, nil
}
