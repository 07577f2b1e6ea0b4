// Package app is the composition root of the ustory client.
//
// New opens the local store and the request cache, builds the API client
// on top of the cache policy, and wires the services the commands use.
// Serve runs the long-lived side: cache install and activation, a
// cold-start sync, the connectivity watcher, and the app shell server.
//
// One-time initialisation goes through a Registry so that each piece is
// started at most once per process.
package app
