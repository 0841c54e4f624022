package models

// UpdateKind discriminates the inbound Telegram events the relay cares
// about. The webhook handler decodes Telegram's update envelope exactly once
// and produces one of these; everything downstream switches on Kind.
type UpdateKind int

const (
	// UpdateContact is a plain message from a user. Its only effect is
	// making sure the sender's identity record exists.
	UpdateContact UpdateKind = iota
	// UpdateDecision is an inline-keyboard button press carrying a
	// decision token in CallbackData.
	UpdateDecision
)

// Update is the tagged form of an inbound Telegram event.
type Update struct {
	Kind         UpdateKind
	UserID       int64
	Username     string
	LanguageCode string

	// Text is set for UpdateContact.
	Text string

	// CallbackID and CallbackData are set for UpdateDecision.
	CallbackID   string
	CallbackData string
}
