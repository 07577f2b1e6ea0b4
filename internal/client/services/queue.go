package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
)

// RawPayload is a story write as handed over by the caller. At most one
// photo field is used, checked in the order PhotoBlob, PhotoBase64,
// PhotoFile.
type RawPayload struct {
	// TempID is optional. Zero means "assign one from the clock", which can
	// collide for calls within the same millisecond; callers needing strict
	// uniqueness supply their own.
	TempID      int64
	Description string
	Lat         *float64
	Lon         *float64
	CreatedAt   time.Time

	PhotoBlob   []byte
	PhotoBase64 string
	PhotoFile   io.Reader
}

// EnqueueResult reports whether a write reached the queue. Storage problems
// are reported here instead of as an error so the caller's main flow is
// never blocked by local persistence.
type EnqueueResult struct {
	Saved  bool  `json:"saved"`
	TempID int64 `json:"tempId,omitempty"`
	Err    error `json:"-"`
}

type Queue struct {
	store PendingStore
	log   logging.Logger
	now   func() time.Time
}

func NewQueue(store PendingStore, log logging.Logger) *Queue {
	return &Queue{store: store, log: log, now: time.Now}
}

// Enqueue validates raw and stores it in the pending collection. The error
// return is reserved for invalid input (a *common.ValidationError); nothing
// is persisted in that case.
func (q *Queue) Enqueue(ctx context.Context, raw RawPayload) (EnqueueResult, error) {
	if strings.TrimSpace(raw.Description) == "" {
		return EnqueueResult{}, &common.ValidationError{Field: "description", Reason: "is required"}
	}

	now := q.now()
	p := models.PendingStory{
		TempID:      raw.TempID,
		Description: raw.Description,
		Lat:         raw.Lat,
		Lon:         raw.Lon,
		CreatedAt:   raw.CreatedAt,
	}
	if p.TempID == 0 {
		p.TempID = now.UnixMilli()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now.UTC()
	}

	switch {
	case raw.PhotoBlob != nil:
		p.Photo = models.BlobPhoto(raw.PhotoBlob)
	case raw.PhotoBase64 != "":
		p.Photo = models.DataURIPhoto(raw.PhotoBase64)
	case raw.PhotoFile != nil:
		b, err := io.ReadAll(raw.PhotoFile)
		if err != nil {
			q.log.Error(ctx, "read photo for offline story failed", "temp_id", p.TempID, "error", err)
			return EnqueueResult{Err: fmt.Errorf("read photo: %w", err)}, nil
		}
		p.Photo = models.BlobPhoto(b)
	}

	if err := q.store.PutPending(ctx, p); err != nil {
		q.log.Error(ctx, "offline story not saved", "temp_id", p.TempID, "error", err)
		return EnqueueResult{Err: err}, nil
	}

	q.log.Info(ctx, "offline story queued", "temp_id", p.TempID)
	return EnqueueResult{Saved: true, TempID: p.TempID}, nil
}

// ListPending returns the queue in enqueue order.
func (q *Queue) ListPending(ctx context.Context) ([]models.PendingStory, error) {
	return q.store.GetAllPending(ctx)
}

// RemovePending drops one item. Removing an absent item is not an error.
func (q *Queue) RemovePending(ctx context.Context, tempID int64) error {
	return q.store.DeletePending(ctx, tempID)
}
