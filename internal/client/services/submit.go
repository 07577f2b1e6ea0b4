package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ustory/internal/client/client"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
)

// Submission is a story composed by the user.
type Submission struct {
	// Author, when set, is prefixed to the description as "[Author] ".
	Author      string
	Description string
	Lat         *float64
	Lon         *float64
	Photo       []byte
	PhotoName   string
	PhotoType   string
}

// SubmitResult tells whether the story went online or into the queue.
type SubmitResult struct {
	Queued bool
	TempID int64
	// Err is the online failure that caused queueing.
	Err error
}

type Submitter struct {
	client client.Client
	queue  *Queue
	log    logging.Logger
}

func NewSubmitter(client client.Client, queue *Queue, log logging.Logger) *Submitter {
	return &Submitter{client: client, queue: queue, log: log}
}

// Submit tries to post s online. Network and HTTP failures fall back to the
// pending queue. Invalid input and a failed fallback are returned as errors.
func (u *Submitter) Submit(ctx context.Context, s Submission) (*SubmitResult, error) {
	desc := strings.TrimSpace(s.Description)
	if desc == "" {
		return nil, &common.ValidationError{Field: "description", Reason: "is required"}
	}
	if a := strings.TrimSpace(s.Author); a != "" {
		desc = fmt.Sprintf("[%s] %s", a, desc)
	}

	err := u.client.CreateStory(ctx, models.NewStory{
		Description: desc,
		Lat:         s.Lat,
		Lon:         s.Lon,
		Photo:       s.Photo,
		PhotoName:   s.PhotoName,
		PhotoType:   s.PhotoType,
	})
	if err == nil {
		return &SubmitResult{}, nil
	}
	if ctx.Err() != nil || errors.Is(err, common.ErrValidation) {
		return nil, err
	}

	u.log.Warn(ctx, "post story online failed, queueing", "error", err)
	res, verr := u.queue.Enqueue(ctx, RawPayload{
		Description: desc,
		Lat:         s.Lat,
		Lon:         s.Lon,
		PhotoBlob:   s.Photo,
	})
	if verr != nil {
		return nil, verr
	}
	if !res.Saved {
		return nil, errors.Join(err, fmt.Errorf("save offline: %w", res.Err))
	}
	return &SubmitResult{Queued: true, TempID: res.TempID, Err: err}, nil
}
