package cachepolicy

import (
	"context"
	"fmt"
	"net/http"
)

// Install precaches the app-shell URLs into the app-shell generation. A URL
// that cannot be fetched is logged and skipped. It returns how many were
// stored.
func (p *Policy) Install(ctx context.Context) (int, error) {
	stored := 0
	for _, ref := range p.cfg.PrecacheURLs {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		target := p.resolve(ref)
		if err := p.precache(ctx, target); err != nil {
			p.log.Warn(ctx, "precache skip", "url", target, "error", err)
			continue
		}
		stored++
	}
	p.log.Info(ctx, "app shell precached", "cache", p.cfg.AppShellCache, "stored", stored, "total", len(p.cfg.PrecacheURLs))
	return stored, nil
}

func (p *Policy) precache(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.next.RoundTrip(req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.Request == nil {
		resp.Request = req
	}
	snap, resp, err := snapshotOf(resp, p.now())
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return p.store.Put(p.cfg.AppShellCache, cacheKey(http.MethodGet, target), snap)
}

// Activate deletes every cache generation that is not one of the two
// current ones and returns the deleted names.
func (p *Policy) Activate(ctx context.Context) ([]string, error) {
	names, err := p.store.Caches()
	if err != nil {
		return nil, err
	}
	var purged []string
	for _, name := range names {
		if name == p.cfg.AppShellCache || name == p.cfg.RuntimeCache {
			continue
		}
		if _, err := p.store.DeleteCache(name); err != nil {
			return purged, err
		}
		p.log.Info(ctx, "stale cache purged", "cache", name)
		purged = append(purged, name)
	}
	return purged, nil
}
