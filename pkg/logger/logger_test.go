package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"webchat/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level Level) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	l, err := NewWithConfig(Config{Output: buf, Level: level})
	require.NoError(t, err)
	return l, buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(t, WARN)

	l.Info("hidden")
	l.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN: shown 1")

	l.SetLevel(DEBUG)
	l.WithComponent("transport").Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestFieldsAreSortedAndInherited(t *testing.T) {
	l, buf := newBufferLogger(t, DEBUG)

	child := l.WithComponent("router").WithUserID(7)
	child.WithField("b", 2).WithField("a", 1).Info("routed")
	l.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "routed | a=1 | b=2 | component=router | user_id=7"))
	assert.True(t, strings.HasSuffix(lines[1], "INFO: parent"))
}

func TestLogAppError(t *testing.T) {
	l, buf := newBufferLogger(t, DEBUG)
	prev := GetDefault()
	SetDefault(l)
	defer SetDefault(prev)

	LogAppError(apperrors.NewSocketExhaustedError("ws://host/ws", 5), ERROR)
	out := buf.String()
	assert.Contains(t, out, "ERROR: 无法连接到服务器，请刷新页面重试")
	assert.Contains(t, out, "code=SOCKET_EXHAUSTED")

	buf.Reset()
	LogAppErrorWithContext(errors.New("plain"), WARN, map[string]any{"user_id": 3})
	out = buf.String()
	assert.Contains(t, out, "Unstructured error occurred")
	assert.Contains(t, out, "user_id=3")
}
