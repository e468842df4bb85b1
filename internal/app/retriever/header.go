package retriever

import (
	"io"
	"mime"
	netmail "net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: lossyCharsetReader}

// lossyCharsetReader hands unknown charsets' bytes through as is,
// leaving invalid sequences for DecodeHeader to drop.
func lossyCharsetReader(cs string, input io.Reader) (io.Reader, error) {
	r, err := charset.Reader(cs, input)
	if err != nil {
		return input, nil
	}

	return r, nil
}

// DecodeHeader decodes RFC 2047 encoded-words of a header value and
// concatenates them with the unencoded text in order.
// Bytes which are not valid UTF-8 after decoding are dropped.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}

	decoded, err := wordDecoder.DecodeHeader(raw)
	if err != nil {
		decoded = raw
	}

	return strings.ToValidUTF8(decoded, "")
}

// Layouts tried for dates lacking zone information, which is then UTC.
var zonelessDateLayouts = []string{
	"Mon, _2 Jan 2006 15:04:05",
	"Mon, _2 Jan 2006 15:04",
	"_2 Jan 2006 15:04:05",
	"_2 Jan 2006 15:04",
}

// Offsets of RFC 5322 obsolete zone names. net/mail resolves them to a
// fabricated zone with zero offset, so they are rewritten before parsing.
var obsoleteZoneOffsets = map[string]string{
	"UT":  "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

var obsoleteZoneRe = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}(?::\d{2})?\s+)(UT|EST|EDT|CST|CDT|MST|MDT|PST|PDT)\b`)

// ParseDate parses Date header value and normalizes it to UTC.
// Missing or malformed values result in zero time.
func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	raw = obsoleteZoneRe.ReplaceAllStringFunc(raw, func(match string) string {
		groups := obsoleteZoneRe.FindStringSubmatch(match)
		return groups[1] + obsoleteZoneOffsets[strings.ToUpper(groups[2])]
	})

	if date, err := netmail.ParseDate(raw); err == nil {
		return date.UTC()
	}

	for _, layout := range zonelessDateLayouts {
		if date, err := time.Parse(layout, raw); err == nil {
			return date.UTC()
		}
	}

	return time.Time{}
}
