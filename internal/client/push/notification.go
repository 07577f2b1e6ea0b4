package push

import (
	"encoding/json"
	"strings"
)

const (
	DefaultTitle = "UStory"
	DefaultBody  = "Notifikasi baru dari UStory."
	DefaultIcon  = "/images/icons/icon-192.png"
	DefaultTag   = "ustory-push"
	DefaultURL   = "/"
)

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Options follows the Notification options of the web push payload.
type Options struct {
	Body     string         `json:"body,omitempty"`
	Icon     string         `json:"icon,omitempty"`
	Badge    string         `json:"badge,omitempty"`
	Actions  []Action       `json:"actions,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Tag      string         `json:"tag,omitempty"`
	Renotify *bool          `json:"renotify,omitempty"`
	Image    string         `json:"image,omitempty"`
}

type Notification struct {
	Title   string  `json:"title"`
	Options Options `json:"options"`
}

// URL is the app path a click on n navigates to.
func (n Notification) URL() string {
	if u, ok := n.Options.Data["url"].(string); ok && u != "" {
		return u
	}
	return DefaultURL
}

// Normalize parses a push payload. A JSON object is used as the
// notification; any other non-empty text becomes the body. Missing fields
// get their defaults.
func Normalize(payload []byte) Notification {
	n := Notification{Title: DefaultTitle, Options: Options{Body: DefaultBody}}

	text := strings.TrimSpace(string(payload))
	if text != "" {
		var raw any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			n.Options.Body = string(payload)
		} else if _, isObject := raw.(map[string]any); isObject {
			var parsed Notification
			if err := json.Unmarshal([]byte(text), &parsed); err == nil {
				n = parsed
			}
		}
	}

	if n.Title == "" {
		n.Title = DefaultTitle
	}
	o := &n.Options
	if o.Icon == "" {
		o.Icon = DefaultIcon
	}
	if o.Badge == "" {
		o.Badge = DefaultIcon
	}
	if len(o.Actions) == 0 {
		o.Actions = []Action{{Action: "open", Title: "Lihat Detail"}}
	}
	if o.Data == nil {
		o.Data = map[string]any{}
	}
	if u, _ := o.Data["url"].(string); u == "" {
		o.Data["url"] = DefaultURL
	}
	if o.Tag == "" {
		o.Tag = DefaultTag
	}
	if o.Renotify == nil {
		renotify := true
		o.Renotify = &renotify
	}
	return n
}
