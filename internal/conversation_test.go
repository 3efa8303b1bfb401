package internal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationLog_AppendOrderAndTimestamps(t *testing.T) {
	log := NewConversationLog()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	log.now = func() time.Time { return fixed }

	i, err := log.Append(UserEntry("q1"))
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	explicit := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	bot := Interpret(&ResponsePayload{Stdout: StringPtr("42")})
	bot.Timestamp = explicit
	i, err = log.Append(bot)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.Equal(t, RoleBot, entries[1].Role)
	assert.Equal(t, explicit, entries[1].Timestamp)
	assert.Equal(t, 2, log.Len())
}

func TestConversationLog_RejectsUnknownRole(t *testing.T) {
	log := NewConversationLog()
	_, err := log.Append(MessageEntry{Role: "system"})
	assert.Error(t, err)
	assert.Equal(t, 0, log.Len())
}

func TestConversationLog_EntriesAreCopies(t *testing.T) {
	log := NewConversationLog()
	entry := MessageEntry{
		Role:   RoleBot,
		Text:   StringPtr("hello"),
		Table:  []Row{RowOf("a", 1)},
		Charts: []string{"/c.png"},
	}
	_, err := log.Append(entry)
	require.NoError(t, err)

	// mutating the caller's value after append must not leak in
	*entry.Text = "changed"
	entry.Charts[0] = "changed"

	got, ok := log.At(0)
	require.True(t, ok)
	assert.Equal(t, "hello", got.TextValue())
	assert.Equal(t, "/c.png", got.Charts[0])

	// nor must mutating what we read back
	got.Charts[0] = "again"
	got.Table[0].Set("b", 2)
	again, _ := log.At(0)
	assert.Equal(t, "/c.png", again.Charts[0])
	assert.Equal(t, 1, again.Table[0].Len())

	_, ok = log.At(1)
	assert.False(t, ok)
	_, ok = log.At(-1)
	assert.False(t, ok)
}

func TestConversationLog_ConcurrentAppend(t *testing.T) {
	log := NewConversationLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = log.Append(UserEntry("q"))
			_ = log.Entries()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, log.Len())
}

func TestMessageEntry_Accessors(t *testing.T) {
	var empty MessageEntry
	assert.Equal(t, "", empty.TextValue())
	assert.Equal(t, "", empty.CodeValue())
	assert.Equal(t, "", empty.StderrValue())
	assert.Equal(t, "", empty.ErrorValue())
	assert.False(t, empty.IsError())
	assert.False(t, empty.HasStderr())
	assert.Nil(t, empty.TableColumns())

	blank := MessageEntry{Stderr: StringPtr("  \n")}
	assert.False(t, blank.HasStderr())

	failure := FailureEntry("Network error: refused")
	assert.Equal(t, RoleBot, failure.Role)
	assert.True(t, failure.IsError())
	assert.Equal(t, "Network error: refused", failure.TextValue())
	assert.Equal(t, "Network error: refused", failure.ErrorValue())

	user := UserEntry("how many rows?")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "how many rows?", user.TextValue())
}

func TestMessageEntry_TableColumns(t *testing.T) {
	withRows := MessageEntry{Table: []Row{RowOf("b", 1, "a", 2)}}
	assert.Equal(t, []string{"b", "a"}, withRows.TableColumns())

	explicit := MessageEntry{Table: []Row{RowOf("b", 1, "a", 2)}, Columns: []string{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, explicit.TableColumns())
}

func TestMessageEntry_ClonePreservesAbsence(t *testing.T) {
	c := MessageEntry{Role: RoleBot, Text: StringPtr("x")}.Clone()
	assert.Nil(t, c.Table)
	assert.Nil(t, c.Columns)
	assert.Nil(t, c.Charts)
	assert.Nil(t, c.Code)
	assert.Nil(t, c.Stderr)
	assert.Nil(t, c.Error)

	e := MessageEntry{Role: RoleBot, Charts: []string{}}.Clone()
	assert.NotNil(t, e.Charts)
	assert.Empty(t, e.Charts)
}
