package mailer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2024, time.January, 1, hour, 0, 0, 0, time.UTC)
}

func subjects(messages []Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Subject)
	}
	return out
}

func TestRank_Empty(t *testing.T) {
	summary := Rank(nil, 5)

	assert.Equal(t, 0, summary.Count)
	assert.Empty(t, summary.Latest)
}

func TestRank_FewerThanLimit(t *testing.T) {
	summary := Rank([]Message{
		{Subject: "old", Date: at(1)},
		{Subject: "new", Date: at(2)},
	}, 5)

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, []string{"new", "old"}, subjects(summary.Latest))
}

func TestRank_AcrossMailboxes(t *testing.T) {
	var messages []Message
	for i, hour := range []int{3, 9, 1, 7} {
		messages = append(messages, Message{Mailbox: "INBOX", Subject: fmt.Sprintf("inbox-%d", i), Date: at(hour)})
	}
	for i, hour := range []int{8, 2, 10} {
		messages = append(messages, Message{Mailbox: "Work", Subject: fmt.Sprintf("work-%d", i), Date: at(hour)})
	}

	summary := Rank(messages, 5)

	assert.Equal(t, 7, summary.Count)
	assert.Equal(t, []string{"work-2", "inbox-1", "work-0", "inbox-3", "inbox-0"}, subjects(summary.Latest))
}

func TestRank_MissingDatesSortLast(t *testing.T) {
	summary := Rank([]Message{
		{Subject: "undated-1"},
		{Subject: "dated", Date: at(0)},
		{Subject: "undated-2"},
	}, 5)

	assert.Equal(t, []string{"dated", "undated-1", "undated-2"}, subjects(summary.Latest))
}

func TestRank_TiesKeepCollectionOrder(t *testing.T) {
	summary := Rank([]Message{
		{Mailbox: "INBOX", Subject: "a", Date: at(5)},
		{Mailbox: "INBOX", Subject: "b", Date: at(5)},
		{Mailbox: "Work", Subject: "c", Date: at(5)},
		{Mailbox: "Work", Subject: "d", Date: at(6)},
	}, 3)

	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, []string{"d", "a", "b"}, subjects(summary.Latest))
}

func TestRank_DoesNotReorderInput(t *testing.T) {
	messages := []Message{
		{Subject: "old", Date: at(1)},
		{Subject: "new", Date: at(2)},
	}

	Rank(messages, 1)

	assert.Equal(t, []string{"old", "new"}, subjects(messages))
}
