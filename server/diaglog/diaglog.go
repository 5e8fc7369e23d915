// Package diaglog keeps the append-only in-memory diagnostic log the
// operator can download as a flat text file. Every classified failure
// lands here with a timestamp and a context tag.
package diaglog

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Entry struct {
	At      time.Time
	Tag     string
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s [%s] %s", e.At.Format(time.RFC3339), e.Tag, e.Message)
}

type Log struct {
	mu      sync.Mutex
	entries []Entry
	logg    *zap.SugaredLogger
}

func New(logg *zap.SugaredLogger) *Log {
	return &Log{logg: logg}
}

// Append records a tagged entry and mirrors it to the server log.
func (l *Log) Append(tag string, format string, args ...interface{}) {
	entry := Entry{
		At:      time.Now(),
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	if l.logg != nil {
		l.logg.Errorf("[%s] %s", entry.Tag, entry.Message)
	}
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make([]Entry, len(l.entries))
	copy(snapshot, l.entries)
	return snapshot
}

// WriteTo dumps the log as flat text, one entry per line.
func (l *Log) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, entry := range l.Entries() {
		b.WriteString(entry.String())
		b.WriteByte('\n')
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
