package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageAppendsToMailLog(t *testing.T) {
	t.Chdir(t.TempDir())

	ev := MailRequestedEvent{
		To:          "ada@example.com",
		Subject:     "Confirm your account",
		Body:        "<p>click the link</p>",
		Kind:        "confirmation",
		RequestedAt: "2025-06-01T12:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, handleMessage(body))
	require.NoError(t, handleMessage(body)) // appends, does not truncate

	data, err := os.ReadFile(filepath.Join("logs", "mail.log"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "kind=confirmation")
	assert.Contains(t, content, "to=ada@example.com")
	assert.Contains(t, content, "2025-06-01T12:00:00Z")
	assert.Equal(t, 2, countLines(content))
}

func TestHandleMessageRejectsBadJSON(t *testing.T) {
	t.Chdir(t.TempDir())

	err := handleMessage([]byte("not json"))
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join("logs", "mail.log"))
	assert.True(t, os.IsNotExist(statErr))
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
