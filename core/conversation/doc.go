// Package conversation persists chat conversations as whole-record JSON
// documents in a kvstore.Store.
//
// Each conversation is keyed by a UUID and holds an ordered history of
// exchanges, each serialized as [user, assistant]. Mutations load the record,
// change it and write it back in full; concurrent appends to one conversation
// resolve as last writer wins.
//
//	store := conversation.NewStore(kv, conversation.WithLogger(log))
//
//	rec, created, err := store.GetOrCreate(ctx, cookieID)
//	rec, err = store.Append(ctx, rec.ID, "hello", "hi there")
//	summaries, err := store.List(ctx) // prunes empty conversations first
//
// Conversations without exchanges are abandoned drafts. List and PruneEmpty
// delete them, and GetOrCreate refuses to resume one, so a pruned id can never
// come back.
package conversation
