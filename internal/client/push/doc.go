// Package push delivers push messages to the user and keeps the push
// subscription registered with the story API.
//
// Bridge turns a raw push payload into a Notification, shows it through a
// Notifier and routes notification clicks to an app window. Subscriber
// manages the subscription: it refuses to work without notification
// permission (ErrPermission, never retried), retries the server
// registration once, and on unsubscribe tells the server first but always
// forgets the subscription locally.
package push
