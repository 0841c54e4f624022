package models

// Decision is an audit row recorded after a pending request is resolved.
type Decision struct {
	ID              string `json:"id"`
	TripID          int64  `json:"trip_id"`
	AdminID         int64  `json:"admin_id"`
	AskerTelegramID int64  `json:"asker_tg_id"`
	AskerInternalID int64  `json:"asker_internal_id"`
	Accepted        bool   `json:"accepted"`
	DecidedAt       int64  `json:"decided_at"` // unix milliseconds
}
