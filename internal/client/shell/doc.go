// Package shell serves the app shell on a local address.
//
// Page and asset requests are proxied to the app origin and API requests
// under /api/ to the story API; both go through the request-cache policy,
// so the shell keeps working from cache while offline. The app origin
// itself is backed by files on disk (see OriginTransport).
//
// The package also hosts the push endpoints the page's worker script posts
// to, and an event stream (/__events) through which open pages receive
// PUSH_CLICK and PUSH_SUBSCRIPTION_CHANGE messages.
package shell
