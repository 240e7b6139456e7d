package model

// EnvelopeType identifies a message crossing the foreground/worker boundary.
type EnvelopeType string

// Envelope types. The foreground posts ShowNotification to the worker; the
// worker broadcasts MedicineTaken back to every attached window.
const (
	TypeShowNotification EnvelopeType = "SHOW_NOTIFICATION"
	TypeMedicineTaken    EnvelopeType = "MEDICINE_TAKEN"
)

// NotificationData is the structured payload carried alongside a
// notification: which trigger group it belongs to and what it covers.
type NotificationData struct {
	GroupID       string   `json:"group_id"`
	MedicineNames []string `json:"medicines"`
	Time          string   `json:"time"` // "HH:MM"
}

// Envelope is the single message type exchanged between the foreground
// scheduler task and the background delivery task. All coordination between
// the two goes through envelopes; they share no other state.
type Envelope struct {
	Type  EnvelopeType     `json:"type"`
	Title string           `json:"title,omitempty"`
	Body  string           `json:"body,omitempty"`
	Tag   string           `json:"tag,omitempty"`
	Data  NotificationData `json:"data"`
}

// NewShowNotification builds a notification request envelope.
func NewShowNotification(title, body, tag string, data NotificationData) Envelope {
	return Envelope{
		Type:  TypeShowNotification,
		Title: title,
		Body:  body,
		Tag:   tag,
		Data:  data,
	}
}

// NewMedicineTaken builds a taken-acknowledgment broadcast envelope.
func NewMedicineTaken(data NotificationData) Envelope {
	return Envelope{
		Type: TypeMedicineTaken,
		Data: data,
	}
}
