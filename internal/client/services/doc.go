// Package services contains the application services of the UStory client:
// the pending-write queue, the sync engine, session handling, the story
// feed with its local fallback, favorites and interactive story submission.
//
// Services depend on small storage interfaces satisfied by *storage.Store
// and on the client.Client transport, so they can be exercised with fakes.
package services
