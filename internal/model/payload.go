package model

import (
	"encoding/json"
	"unicode/utf8"
)

// Push payload defaults, applied when the server omits a field.
const (
	DefaultPushTitle = "💊 복약 시간입니다!"
	DefaultPushIcon  = "/icon-192.png"
	DefaultPushBadge = "/icon-192.png"
	DefaultPushTag   = "alarm-default"
)

// DefaultVibratePattern is the vibration pattern used when the payload
// carries none: pulse, pause, pulse, pause, pulse (milliseconds).
func DefaultVibratePattern() []int {
	return []int{200, 100, 200, 100, 200}
}

// PushPayload is the typed form of a server-sent push message body. The set
// of recognized fields is closed; anything else in the JSON body is ignored.
type PushPayload struct {
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Icon               string           `json:"icon"`
	Badge              string           `json:"badge"`
	Tag                string           `json:"tag"`
	Data               NotificationData `json:"data"`
	RequireInteraction bool             `json:"requireInteraction"`
	Vibrate            []int            `json:"vibrate"`
}

// rawPushPayload mirrors PushPayload with pointers so absent fields are
// distinguishable from zero values when filling defaults.
type rawPushPayload struct {
	Title              *string          `json:"title"`
	Body               *string          `json:"body"`
	Icon               *string          `json:"icon"`
	Badge              *string          `json:"badge"`
	Tag                *string          `json:"tag"`
	Data               NotificationData `json:"data"`
	RequireInteraction *bool            `json:"requireInteraction"`
	Vibrate            []int            `json:"vibrate"`
}

// ParsePushPayload decodes a push message body into a PushPayload, filling
// defaults for absent fields. A body that is not a JSON object is treated as
// plain text and becomes the notification body.
func ParsePushPayload(body []byte) PushPayload {
	p := PushPayload{
		Title:              DefaultPushTitle,
		Icon:               DefaultPushIcon,
		Badge:              DefaultPushBadge,
		Tag:                DefaultPushTag,
		RequireInteraction: true,
		Vibrate:            DefaultVibratePattern(),
	}

	var raw rawPushPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		if utf8.Valid(body) {
			p.Body = string(body)
		}
		return p
	}

	if raw.Title != nil {
		p.Title = *raw.Title
	}
	if raw.Body != nil {
		p.Body = *raw.Body
	}
	if raw.Icon != nil {
		p.Icon = *raw.Icon
	}
	if raw.Badge != nil {
		p.Badge = *raw.Badge
	}
	if raw.Tag != nil {
		p.Tag = *raw.Tag
	}
	if raw.RequireInteraction != nil {
		p.RequireInteraction = *raw.RequireInteraction
	}
	if raw.Vibrate != nil {
		p.Vibrate = raw.Vibrate
	}
	p.Data = raw.Data

	return p
}
