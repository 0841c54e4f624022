// Package i18n holds the message tables and trip-descriptor localization for
// the two languages the bot speaks, English and Russian. The language is
// chosen per recipient from their Telegram language code.
package i18n

import (
	"fmt"
	"strings"
	"time"
)

// catalog is one language's message strings.
type catalog struct {
	tripAsk     string
	rejected    string
	accepted    string
	rejectBtn   string
	acceptBtn   string
	inMessageAt string
	inMSK       string
}

var catalogs = [2]catalog{
	// English
	{
		tripAsk:     "requests to join the trip",
		rejected:    "rejected you for the trip",
		accepted:    "accepted you for the trip",
		rejectBtn:   "Reject",
		acceptBtn:   "Accept",
		inMessageAt: "at",
		inMSK:       "(MSK)",
	},
	// Russian
	{
		tripAsk:     "хотят принять участие в вашей поездке",
		rejected:    "отказались принимать вас в поездку",
		accepted:    "приняли вас в поездку",
		rejectBtn:   "Отказать",
		acceptBtn:   "Принять",
		inMessageAt: "в",
		inMSK:       "(МСК)",
	},
}

// destinations maps the numeric destination codes used in raw trip
// descriptors onto city names.
var destinations = [2]map[string]string{
	{"0": "Innopolis", "1": "Kazan", "2": "Verkhniy Uslon"},
	{"0": "Иннополис", "1": "Казань", "2": "Верхний Услон"},
}

// Moscow is UTC+3 year-round; a fixed zone avoids depending on the host's
// tzdata.
var moscow = time.FixedZone("MSK", 3*60*60)

// AcceptButton returns the accept button label for a language index.
func AcceptButton(lang int) string { return catalogs[lang].acceptBtn }

// RejectButton returns the reject button label for a language index.
func RejectButton(lang int) string { return catalogs[lang].rejectBtn }

// JoinPrompt builds the MarkdownV2 text of the interactive prompt sent to a
// trip admin.
func JoinPrompt(askerUsername, rawTripDesc string, lang int) string {
	return fmt.Sprintf("%s %s %s", userLink(askerUsername), catalogs[lang].tripAsk, LocalizeTripDesc(rawTripDesc, lang))
}

// Accepted builds the notification sent to the requester after an accept.
func Accepted(adminUsername, rawTripDesc string, lang int) string {
	return fmt.Sprintf("%s %s %s", userLink(adminUsername), catalogs[lang].accepted, LocalizeTripDesc(rawTripDesc, lang))
}

// Rejected builds the notification sent to the requester after a reject.
func Rejected(adminUsername, rawTripDesc string, lang int) string {
	return fmt.Sprintf("%s %s %s", userLink(adminUsername), catalogs[lang].rejected, LocalizeTripDesc(rawTripDesc, lang))
}

// userLink renders a MarkdownV2 mention of a Telegram user.
func userLink(username string) string {
	return fmt.Sprintf("[@%s](https://t.me/%s)", username, username)
}

// LocalizeTripDesc turns a raw trip descriptor like
// "0 -> 1 at: 2026-08-28T07:15:00.000Z" into display text: destination codes
// become city names, the trailing ISO timestamp is shown in Moscow time, and
// the result is escaped for MarkdownV2. The descriptor is passed through as
// opaquely as possible; anything that doesn't parse is kept verbatim.
func LocalizeTripDesc(raw string, lang int) string {
	out := raw
	dest := destinations[lang]

	// The descriptor begins with the source code, with the target code at
	// offset 5 ("X -> Y ...").
	if len(raw) > 5 {
		if name, ok := dest[raw[0:1]]; ok {
			out = strings.Replace(out, raw[0:1], name, 1)
		}
		if name, ok := dest[raw[5:6]]; ok {
			out = strings.Replace(out, raw[5:6], name, 1)
		}
	}

	out = localizeTimestamp(out, lang) + " " + catalogs[lang].inMSK
	out = strings.Replace(out, "at:", catalogs[lang].inMessageAt, 1)
	return EscapeMarkdownV2(out)
}

// localizeTimestamp rewrites the ISO 8601 timestamp at the end of the line
// into Moscow time. Descriptor timestamps all start with '2' (good until the
// year 3000).
func localizeTimestamp(line string, lang int) string {
	start := strings.Index(line, "2")
	if start < 0 {
		return line
	}
	iso := line[start:]
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return line
	}
	return line[:start] + ts.In(moscow).Format("2006-01-02 03:04 PM")
}

// markdownV2Escapes are the MarkdownV2 special characters that can occur in
// a localized descriptor.
var markdownV2Escapes = []string{"-", ">", ".", "(", ")"}

// EscapeMarkdownV2 escapes descriptor text for parse_mode=MarkdownV2.
func EscapeMarkdownV2(s string) string {
	for _, c := range markdownV2Escapes {
		s = strings.ReplaceAll(s, c, `\`+c)
	}
	return s
}
