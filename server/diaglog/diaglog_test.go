package diaglog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndDownload(t *testing.T) {
	log := New(nil)
	log.Append("login", "duplicate credential match for login %q", "joao.silva")
	log.Append("cep", "service responded 500")

	require.Equal(t, 2, log.Len())

	buf := strings.Builder{}
	_, err := log.WriteTo(&buf)
	require.Nil(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[login]")
	assert.Contains(t, lines[0], `"joao.silva"`)
	assert.Contains(t, lines[1], "[cep]")
}

func TestEntriesReturnsSnapshot(t *testing.T) {
	log := New(nil)
	log.Append("a", "first")

	snapshot := log.Entries()
	log.Append("b", "second")

	assert.Len(t, snapshot, 1, "snapshot must not grow with later appends")
	assert.Equal(t, 2, log.Len())
}
