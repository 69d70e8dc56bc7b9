package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scicalc/internal/keymap"
	"github.com/ternarybob/scicalc/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func runLines(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	err := run(strings.NewReader(strings.Join(lines, "\n")), &out, keymap.New())
	require.NoError(t, err)
	return out.String()
}

func TestRun_Arithmetic(t *testing.T) {
	out := runLines(t, "5 +", "3 Enter")
	assert.Equal(t, "  5 +\n= \n= 8\n", out)
}

func TestRun_Scientific(t *testing.T) {
	out := runLines(t, "2 x^y 10 =")
	assert.Equal(t, "= 1024\n", out)

	out = runLines(t, "9 sqrt")
	assert.Equal(t, "= 3\n", out)
}

func TestRun_ErrorIsShownThenCleared(t *testing.T) {
	out := runLines(t, "1 / 0 =", "7")
	assert.Equal(t, "= Error\n! Cannot divide by zero!\n= 7\n", out)
}

func TestRun_UnresolvedToken(t *testing.T) {
	out := runLines(t, "1 + banana", "4")
	assert.Contains(t, out, "? unresolved token")
	assert.True(t, strings.HasSuffix(out, "= 4\n"))
}

func TestRun_Quit(t *testing.T) {
	out := runLines(t, "1", "quit", "2")
	assert.Equal(t, "= 1\n", out)
}

func TestRun_BlankLinesIgnored(t *testing.T) {
	out := runLines(t, "", "   ", "6")
	assert.Equal(t, "= 6\n", out)
}
