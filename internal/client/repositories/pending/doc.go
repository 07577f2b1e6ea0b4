// Package pending stores stories that were composed while offline and still
// wait to be uploaded.
//
// Items are keyed by their caller-chosen temporary id. Put is an upsert, so
// re-enqueueing the same id replaces the earlier draft instead of producing a
// duplicate upload. GetAll returns the queue in enqueue order, which is the
// order the sync pass uploads in.
package pending
