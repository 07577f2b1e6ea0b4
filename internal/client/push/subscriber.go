package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
)

const metaSubscription = "push_subscription"

// Permission is the notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionFunc asks for, or reports, notification permission.
type PermissionFunc func(ctx context.Context) (Permission, error)

// SubscriptionAPI is the server side of push subscriptions.
type SubscriptionAPI interface {
	Subscribe(ctx context.Context, sub models.PushSubscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

// MetaStore persists the local subscription.
type MetaStore interface {
	GetMeta(ctx context.Context, key string) ([]byte, bool, error)
	SetMeta(ctx context.Context, pairs map[string][]byte) error
	DeleteMeta(ctx context.Context, keys ...string) error
}

type Subscriber struct {
	api        SubscriptionAPI
	store      MetaStore
	permission PermissionFunc
	log        logging.Logger

	attempts   int
	retryDelay time.Duration
}

func NewSubscriber(api SubscriptionAPI, store MetaStore, permission PermissionFunc, log logging.Logger) *Subscriber {
	return &Subscriber{
		api:        api,
		store:      store,
		permission: permission,
		log:        log,
		attempts:   2,
		retryDelay: 400 * time.Millisecond,
	}
}

// Status is the local view of the push subscription.
type Status struct {
	Permission Permission `json:"permission"`
	Subscribed bool       `json:"subscribed"`
	Endpoint   string     `json:"endpoint,omitempty"`
}

// Subscribe stores sub locally and registers it with the server. Without
// granted permission it returns common.ErrPermission and does nothing else.
// A server failure after the retry is logged; the local subscription is
// kept and synced reports false.
func (s *Subscriber) Subscribe(ctx context.Context, sub models.PushSubscription) (synced bool, err error) {
	perm, err := s.permission(ctx)
	if err != nil {
		return false, err
	}
	if perm != PermissionGranted {
		return false, fmt.Errorf("%w: notification permission is %s", common.ErrPermission, perm)
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return false, err
	}
	if err := s.store.SetMeta(ctx, map[string][]byte{metaSubscription: data}); err != nil {
		return false, err
	}

	var lastErr error
	for i := 0; i < s.attempts; i++ {
		if lastErr = s.api.Subscribe(ctx, sub); lastErr == nil {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	s.log.Warn(ctx, "push subscription saved locally but failed on server", "endpoint", sub.Endpoint, "error", lastErr)
	return false, nil
}

// Resync re-sends the stored subscription to the server, e.g. after a
// subscription change. It reports false when nothing is stored or the
// server call failed.
func (s *Subscriber) Resync(ctx context.Context) bool {
	sub, err := s.current(ctx)
	if err != nil || sub == nil {
		return false
	}
	if err := s.api.Subscribe(ctx, *sub); err != nil {
		s.log.Warn(ctx, "push subscription resync failed", "error", err)
		return false
	}
	return true
}

// Unsubscribe tells the server first and then forgets the subscription
// locally even if the server call failed. It reports false when there was
// no subscription.
func (s *Subscriber) Unsubscribe(ctx context.Context) (bool, error) {
	sub, err := s.current(ctx)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	if err := s.api.Unsubscribe(ctx, sub.Endpoint); err != nil {
		s.log.Warn(ctx, "server unsubscribe failed, continuing locally", "error", err)
	}
	if err := s.store.DeleteMeta(ctx, metaSubscription); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Subscriber) Status(ctx context.Context) (Status, error) {
	perm, err := s.permission(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{Permission: perm}
	sub, err := s.current(ctx)
	if err != nil {
		return st, err
	}
	if sub != nil {
		st.Subscribed = true
		st.Endpoint = sub.Endpoint
	}
	return st, nil
}

func (s *Subscriber) current(ctx context.Context) (*models.PushSubscription, error) {
	data, found, err := s.store.GetMeta(ctx, metaSubscription)
	if err != nil || !found {
		return nil, err
	}
	var sub models.PushSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("decode stored subscription: %w", err)
	}
	return &sub, nil
}

// Granted is a PermissionFunc for environments where permission is given
// up front.
func Granted(context.Context) (Permission, error) { return PermissionGranted, nil }
