package models

// JoinRequest is the backend's submission asking us to relay a join request
// to a trip admin. Field names follow the backend's wire format.
type JoinRequest struct {
	TripAdminID     int64  `json:"trip_admin_tg_id"`
	SecretToken     string `json:"secret_token"`
	TripID          int64  `json:"trip_id"`
	AskerInternalID int64  `json:"id_of_person_asking_to_join"`
	AskerTelegramID int64  `json:"tg_id_of_person_asking_to_join"`
	TripName        string `json:"trip_name"`
}

// DecisionReport is the payload posted back to the backend once the admin
// has accepted or rejected the requester.
type DecisionReport struct {
	TripID          int64  `json:"trip_id"`
	AskerInternalID int64  `json:"id_of_person_asking_to_join"`
	SecretToken     string `json:"secret_token"`
	Accepted        bool   `json:"accepted"`
}
