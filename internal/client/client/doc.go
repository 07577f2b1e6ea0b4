// Package client contains the transport to the remote story API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): Login,
//     Register, story list/get/create/delete, push subscription management
//     and a liveness Ping.
//  2. A concrete REST implementation (see HTTPClient) that attaches the
//     bearer token from a TokenSource, encodes story uploads as multipart
//     forms and maps HTTP outcomes to sentinel errors.
//
// HTTPClient does not cache anything itself. Callers wanting offline
// behavior pass an http.RoundTripper from the cachepolicy package; an
// {"offline": true} body produced by that layer is reported as
// common.ErrOffline.
//
// # Error Handling
//
// Transport failures wrap common.ErrNetwork. Non-2xx answers are returned
// as *common.HTTPError carrying the API's message, which also matches
// common.ErrUnauthorized (401/403) and common.ErrNotFound (404). A missing
// session token is common.ErrNoToken and no request is sent.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
