// Package kvstore provides the crash-safe key/value primitive that session and
// conversation persistence are built on.
//
// FileStore keeps one file per key in a flat directory. A write serializes to
// a uniquely named temporary file in the same directory, fsyncs it and renames
// it over the destination; rename within one filesystem is indivisible for
// readers, so Get observes either the previous or the new value. Temporary
// files left behind by a crashed writer are dot-prefixed and never surface
// through Get or List. Keys are sanitized to [A-Za-z0-9_-] so they cannot
// traverse out of the root.
//
// MemoryStore offers the identical contract in process memory for tests and
// ephemeral deployments.
//
// Collection layers JSON encoding on top of either store:
//
//	fs, err := kvstore.NewFileStore("data/sessions")
//	if err != nil {
//		return err
//	}
//	records := kvstore.NewCollection[session.Record](fs)
//	if err := records.Put(ctx, rec.ID, rec); err != nil {
//		return err
//	}
//	rec, ok, err := records.Get(ctx, id)
//
// The store offers no cross-key transactions: concurrent load-modify-save
// sequences on one key resolve as last writer wins.
package kvstore
