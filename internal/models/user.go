package models

// PendingJoinRequest is one outstanding decision sitting in a trip admin's
// queue. MessageID is the Telegram message carrying the accept/reject
// keyboard; it is kept so the prompt can be deleted once the admin answers.
type PendingJoinRequest struct {
	TripID      int64  `json:"trip_id"`
	SenderID    int64  `json:"sender_id"` // requester's Telegram ID
	MessageID   int    `json:"message_id"`
	RawTripDesc string `json:"raw_trip_desc"`
	CreatedAt   int64  `json:"created_at,omitempty"` // unix seconds
}

// User is an identity record keyed by Telegram user ID, together with the
// ordered list of join requests awaiting that user's decision. The record is
// loaded and fully rewritten on each mutation.
type User struct {
	ID           int64                `json:"id"`
	Username     string               `json:"username"`
	LanguageCode string               `json:"language_code"`
	Pending      []PendingJoinRequest `json:"pending_trip_requests"`
}

// LanguageIndex maps the user's Telegram language code onto the message
// tables: 0 for English (the default), 1 for Russian.
func (u *User) LanguageIndex() int {
	if u.LanguageCode == "ru" {
		return 1
	}
	return 0
}
