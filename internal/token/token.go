// Package token encodes the identity of a pending join request into the
// opaque string Telegram round-trips through an inline-keyboard button.
//
// Telegram keeps no server-side session for callback buttons: the only state
// that survives from prompt to button press is the callback_data string
// attached at send time. Everything needed to correlate the press back to a
// pending entry is therefore packed into the token itself.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Decision is the admin's answer embedded in a token.
type Decision int

const (
	Reject Decision = iota
	Accept
)

// ErrMalformed is returned when a callback payload does not parse as a
// decision token.
var ErrMalformed = errors.New("token: malformed decision token")

const (
	sep        = "_"
	acceptTag  = "y"
	rejectTag  = "n"
	fieldCount = 4
)

// Token is the decoded form of a callback payload.
type Token struct {
	Decision        Decision
	TripID          int64
	AskerTelegramID int64
	AskerInternalID int64
}

// Encode packs a decision and the pending request's identity into the wire
// form "<y|n>_<tripID>_<tgID>_<internalID>". All fields are numeric, so the
// separator cannot collide with field contents.
func Encode(d Decision, tripID, askerTelegramID, askerInternalID int64) string {
	tag := rejectTag
	if d == Accept {
		tag = acceptTag
	}
	return fmt.Sprintf("%s%s%d%s%d%s%d", tag, sep, tripID, sep, askerTelegramID, sep, askerInternalID)
}

// Decode parses a callback payload. It fails with ErrMalformed if the field
// count, the decision tag, or any numeric field does not match.
func Decode(s string) (Token, error) {
	parts := strings.Split(s, sep)
	if len(parts) != fieldCount {
		return Token{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, fieldCount, len(parts))
	}

	var t Token
	switch parts[0] {
	case acceptTag:
		t.Decision = Accept
	case rejectTag:
		t.Decision = Reject
	default:
		return Token{}, fmt.Errorf("%w: unknown decision tag %q", ErrMalformed, parts[0])
	}

	var err error
	if t.TripID, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return Token{}, fmt.Errorf("%w: trip id: %v", ErrMalformed, err)
	}
	if t.AskerTelegramID, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
		return Token{}, fmt.Errorf("%w: telegram id: %v", ErrMalformed, err)
	}
	if t.AskerInternalID, err = strconv.ParseInt(parts[3], 10, 64); err != nil {
		return Token{}, fmt.Errorf("%w: internal id: %v", ErrMalformed, err)
	}
	return t, nil
}
