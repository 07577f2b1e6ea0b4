package models

import "time"

// PendingStory is a story submission that failed to reach the server and
// waits in the local queue for replay.
type PendingStory struct {
	// TempID is the local queue key. It never overlaps with server ids
	// because it lives in its own collection.
	TempID      int64
	Description string
	Lat         *float64
	Lon         *float64
	CreatedAt   time.Time
	Photo       Photo
}
