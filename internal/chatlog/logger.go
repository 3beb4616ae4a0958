// Package chatlog persists conversation transcripts as NDJSON for
// operator review, independently of the in-memory session store.
package chatlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
)

// Config controls NDJSON transcript logging.
type Config struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Entry is one NDJSON line in a transcript log.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// Logger writes transcript messages asynchronously. Writes never block
// the request path; when the queue is full the entry is dropped and
// counted.
type Logger struct {
	cfg    Config
	log    *slog.Logger
	queue  chan Entry
	global *lumberjack.Logger
	done   chan struct{}

	mu      sync.Mutex
	dropped int64
	closed  bool
}

// New creates a transcript logger. A disabled config returns a logger
// whose LogMessage is a no-op.
func New(cfg Config, log *slog.Logger) (*Logger, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	l := &Logger{
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}
	if !cfg.Enabled {
		close(l.done)
		return l, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript log directory: %w", err)
	}
	if cfg.GlobalEnabled {
		l.global = &lumberjack.Logger{
			Filename:   cfg.GlobalPath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}

	l.queue = make(chan Entry, cfg.QueueSize)
	go l.run()
	return l, nil
}

// LogMessage enqueues one transcript message. Safe to call from any
// goroutine; drops the entry instead of blocking when the queue is full.
func (l *Logger) LogMessage(sessionID string, m domain.Message) {
	if !l.cfg.Enabled {
		return
	}
	entry := Entry{
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Role:      string(m.Role),
		Content:   m.Content,
	}

	// The mutex covers the send so Close cannot close the queue
	// between the closed check and the enqueue.
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	var n int64
	select {
	case l.queue <- entry:
	default:
		l.dropped++
		n = l.dropped
	}
	l.mu.Unlock()
	if n > 0 {
		l.log.Warn("Transcript log queue full, dropping entry", "session_id", sessionID, "dropped_total", n)
	}
}

// Dropped reports how many entries were discarded due to a full queue.
func (l *Logger) Dropped() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close stops the writer goroutine after draining queued entries.
func (l *Logger) Close() error {
	if !l.cfg.Enabled {
		return nil
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.queue)
	<-l.done
	if l.global != nil {
		return l.global.Close()
	}
	return nil
}

func (l *Logger) run() {
	defer close(l.done)
	for entry := range l.queue {
		l.write(entry)
	}
}

func (l *Logger) write(entry Entry) {
	line, err := json.Marshal(entry)
	if err != nil {
		l.log.Error("Failed to marshal transcript entry", "error", err)
		return
	}
	line = append(line, '\n')

	path := filepath.Join(l.cfg.Dir, entry.SessionID+".ndjson")
	if err := appendFile(path, line); err != nil {
		l.log.Error("Failed to write transcript entry", "path", path, "error", err)
	}
	if l.global != nil {
		if _, err := l.global.Write(line); err != nil {
			l.log.Error("Failed to write global transcript entry", "error", err)
		}
	}
}

func appendFile(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(line)
	return err
}
