// Package cachepolicy decides, per outgoing request, whether the answer
// comes from the network, from a local cache or from a synthesized fallback.
//
// Policy is an http.RoundTripper. Every GET is put into exactly one class,
// first match wins:
//
//	bypass        dev-server traffic and the policy's own script; never touched
//	cache-first   images served by the story API host
//	network-first the story API list/detail paths
//	navigation    full page loads; offline falls back to the app shell
//	same-origin   other app assets; cache, then network
//
// Anything else, and every non-GET request, goes to the wrapped transport
// unchanged.
//
// Responses are kept in named cache generations (an app-shell precache and a
// runtime cache) stored in bbolt, one bucket per generation. Install fills
// the app-shell generation; Activate deletes every generation whose name is
// not current, which is how a release forces a clean cutover.
package cachepolicy
