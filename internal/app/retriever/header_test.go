package retriever

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "plain ascii", raw: "Weekly report <ops@example.com>", want: "Weekly report <ops@example.com>"},
		{name: "utf-8 base64", raw: "=?UTF-8?B?SGVsbG8=?=", want: "Hello"},
		{name: "iso-8859-1 quoted printable", raw: "=?ISO-8859-1?Q?Caf=E9?=", want: "Café"},
		{name: "windows-1251", raw: "=?windows-1251?B?z/Do4uXy?=", want: "Привет"},
		{name: "adjacent words", raw: "=?UTF-8?Q?Hello?= =?UTF-8?Q?_World?=", want: "Hello World"},
		{name: "mixed segments", raw: "=?UTF-8?Q?Caf=C3=A9?= <cafe@example.com>", want: "Café <cafe@example.com>"},
		{name: "unknown charset", raw: "=?x-unknown?Q?abc?=", want: "abc"},
		{name: "invalid utf-8 dropped", raw: "=?UTF-8?Q?ok=FF!?=", want: "ok!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeHeader(tt.raw))
		})
	}
}

func TestDecodeHeader_Idempotent(t *testing.T) {
	for _, raw := range []string{"Hello", "a@b.com", "Re: [list] 50% off & more"} {
		once := DecodeHeader(raw)
		assert.Equal(t, raw, once)
		assert.Equal(t, once, DecodeHeader(once))
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "positive offset",
			raw:  "Mon, 1 Jan 2024 10:00:00 +0200",
			want: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "negative offset crossing day",
			raw:  "Sun, 31 Dec 2023 22:30:00 -0500",
			want: time.Date(2024, time.January, 1, 3, 30, 0, 0, time.UTC),
		},
		{
			name: "comment after zone",
			raw:  "Tue, 2 Jan 2024 09:15:00 +0000 (UTC)",
			want: time.Date(2024, time.January, 2, 9, 15, 0, 0, time.UTC),
		},
		{
			name: "no zone assumed utc",
			raw:  "Mon, 1 Jan 2024 10:00:00",
			want: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "eastern standard time",
			raw:  "1 Jan 2024 10:00:00 EST",
			want: time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "pacific daylight time",
			raw:  "Mon, 1 Jul 2024 10:00:00 PDT",
			want: time.Date(2024, time.July, 1, 17, 0, 0, 0, time.UTC),
		},
		{
			name: "central daylight time with comment",
			raw:  "Mon, 1 Jul 2024 10:00 CDT (Central)",
			want: time.Date(2024, time.July, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "mountain standard time lowercase",
			raw:  "Mon, 1 Jan 2024 10:00:00 mst",
			want: time.Date(2024, time.January, 1, 17, 0, 0, 0, time.UTC),
		},
		{
			name: "universal time",
			raw:  "Mon, 1 Jan 2024 10:00:00 UT",
			want: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		},
		{name: "empty", raw: "", want: time.Time{}},
		{name: "garbage", raw: "yesterday-ish", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.raw)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			if !got.IsZero() {
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}
