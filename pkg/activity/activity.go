// Package activity keeps the user-visible operation trace: an append-only,
// capped sequence of timestamped entries that mirrors into the main logger
// and fans out to live subscribers (the web UI streams it over a websocket).
package activity

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// MaxEntries caps in-memory retention; the oldest entries are evicted first.
const MaxEntries = 500

type Entry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

type Log struct {
	mu      sync.Mutex
	entries []Entry
	subs    map[int]chan Entry
	nextSub int
	logger  *logrus.Logger
	now     func() time.Time
}

// New returns an empty activity log. logger is optional; when set, every
// entry is mirrored to it at the matching logrus level.
func New(logger *logrus.Logger) *Log {
	return &Log{
		subs:   make(map[int]chan Entry),
		logger: logger,
		now:    time.Now,
	}
}

func (l *Log) Append(level Level, msg string) Entry {
	l.mu.Lock()
	e := Entry{Time: l.now(), Level: level, Message: msg}
	l.entries = append(l.entries, e)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[len(l.entries)-MaxEntries:]
	}
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default: // slow subscriber, drop rather than block the operation
		}
	}
	l.mu.Unlock()

	if l.logger != nil {
		switch level {
		case LevelWarning:
			l.logger.Warn(msg)
		case LevelError:
			l.logger.Error(msg)
		default:
			l.logger.Info(msg)
		}
	}
	return e
}

func (l *Log) Infof(format string, args ...interface{}) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Log) Successf(format string, args ...interface{}) {
	l.Append(LevelSuccess, fmt.Sprintf(format, args...))
}

func (l *Log) Warnf(format string, args ...interface{}) {
	l.Append(LevelWarning, fmt.Sprintf(format, args...))
}

func (l *Log) Errorf(format string, args ...interface{}) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Subscribe registers a live feed of future entries. The returned cancel
// function must be called to release the subscription.
func (l *Log) Subscribe() (<-chan Entry, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	ch := make(chan Entry, 64)
	l.subs[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
}
