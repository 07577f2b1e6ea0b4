package models

// Session is the result of a successful login.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// NewStory is one create-story request.
type NewStory struct {
	Description string
	Lat         *float64
	Lon         *float64

	Photo          []byte
	PhotoName      string
	PhotoType      string
	IdempotencyKey string
}

// PushSubscription mirrors the browser PushSubscription JSON the story API
// expects on /notifications/subscribe.
type PushSubscription struct {
	Endpoint string   `json:"endpoint"`
	Keys     PushKeys `json:"keys"`
}

type PushKeys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}
