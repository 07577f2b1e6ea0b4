package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/ustory/internal/client/client"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
	"github.com/google/uuid"
)

const (
	SyncErrNoToken   = "no-token"
	SyncErrStoreFail = "store-fail"
	SyncErrCanceled  = "canceled"
)

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Synced int    `json:"synced"`
	Total  int    `json:"total"`
	Error  string `json:"error,omitempty"`
}

// StoryCreator is the part of client.Client the sync engine needs.
type StoryCreator interface {
	CreateStory(ctx context.Context, s models.NewStory) error
}

// pendingNamespace scopes idempotency keys derived from temp ids.
var pendingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://ustory.local/pending"))

// IdempotencyKey derives a stable request key from a temp id, so a replay
// of the same queued item always carries the same key.
func IdempotencyKey(tempID int64) string {
	return uuid.NewSHA1(pendingNamespace, []byte(strconv.FormatInt(tempID, 10))).String()
}

type syncRun struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	done    chan struct{}
	res     SyncResult
}

// Syncer drains the pending queue against the remote API. It is
// single-flight: a call arriving while a pass is running does not start a
// second concurrent pass. All such calls share one follow-up pass that starts
// after the running one finishes, and they receive its result. The follow-up
// pass is cancelled once every caller waiting on it has given up.
type Syncer struct {
	store  PendingStore
	api    StoryCreator
	tokens client.TokenSource
	log    logging.Logger

	mu       sync.Mutex
	inflight *syncRun
	next     *syncRun
}

func NewSyncer(store PendingStore, api StoryCreator, tokens client.TokenSource, log logging.Logger) *Syncer {
	return &Syncer{store: store, api: api, tokens: tokens, log: log}
}

// SyncPending runs one pass, or joins the follow-up pass if one is running.
// A caller whose ctx ends while waiting gets SyncErrCanceled.
func (s *Syncer) SyncPending(ctx context.Context) SyncResult {
	s.mu.Lock()
	if s.inflight == nil {
		run := &syncRun{done: make(chan struct{})}
		s.inflight = run
		s.mu.Unlock()
		s.execute(ctx, run)
		return run.res
	}
	if s.next == nil {
		rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.next = &syncRun{ctx: rctx, cancel: cancel, done: make(chan struct{})}
	}
	run := s.next
	run.waiters++
	s.mu.Unlock()

	select {
	case <-run.done:
		return run.res
	case <-ctx.Done():
		s.mu.Lock()
		run.waiters--
		if run.waiters == 0 {
			run.cancel()
		}
		s.mu.Unlock()
		return SyncResult{Error: SyncErrCanceled}
	}
}

func (s *Syncer) execute(ctx context.Context, run *syncRun) {
	defer s.finish(run)
	run.res = s.pass(ctx)
}

// finish publishes run's result and starts the follow-up pass, if anyone is
// still waiting for one. It runs even when the pass panics.
func (s *Syncer) finish(run *syncRun) {
	if run.cancel != nil {
		run.cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	close(run.done)

	next := s.next
	s.next = nil
	if next != nil && next.waiters == 0 {
		next.cancel()
		close(next.done)
		next = nil
	}
	s.inflight = next
	if next != nil {
		go s.execute(next.ctx, next)
	}
}

func (s *Syncer) pass(ctx context.Context) SyncResult {
	items, err := s.store.GetAllPending(ctx)
	if err != nil {
		s.log.Warn(ctx, "sync: list pending failed", "error", err)
		return SyncResult{Error: SyncErrStoreFail}
	}
	if len(items) == 0 {
		s.log.Debug(ctx, "sync: nothing pending")
		return SyncResult{}
	}

	if _, err := s.tokens.Token(ctx); err != nil {
		if !errors.Is(err, common.ErrNoToken) {
			s.log.Warn(ctx, "sync: read session failed", "error", err)
			return SyncResult{Error: SyncErrStoreFail}
		}
		s.log.Info(ctx, "sync: no session, queue kept", "pending", len(items), "error", err)
		return SyncResult{Error: SyncErrNoToken}
	}

	s.log.Info(ctx, "sync: start", "pending", len(items))
	synced := 0
	for _, item := range items {
		if err := s.replay(ctx, item); err != nil {
			s.log.Warn(ctx, "sync: story not sent", "temp_id", item.TempID, "error", err)
			continue
		}
		synced++
		s.log.Info(ctx, "sync: story sent", "temp_id", item.TempID)
	}

	s.log.Info(ctx, "sync: done", "synced", synced, "total", len(items))
	return SyncResult{Synced: synced, Total: len(items)}
}

// replay uploads one item and removes it from the queue. The item stays
// queued unless both steps succeed.
func (s *Syncer) replay(ctx context.Context, item models.PendingStory) error {
	photo, ctype, err := item.Photo.Bytes()
	if err != nil {
		return fmt.Errorf("decode photo: %w", err)
	}

	req := models.NewStory{
		Description:    item.Description,
		Lat:            item.Lat,
		Lon:            item.Lon,
		Photo:          photo,
		PhotoType:      ctype,
		IdempotencyKey: IdempotencyKey(item.TempID),
	}
	if photo != nil {
		req.PhotoName = fmt.Sprintf("offline-%d.jpg", item.TempID)
	}

	if err := s.api.CreateStory(ctx, req); err != nil {
		return err
	}
	if err := s.store.DeletePending(ctx, item.TempID); err != nil {
		return fmt.Errorf("sent but not removed from queue: %w", err)
	}
	return nil
}
