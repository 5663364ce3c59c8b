package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const maxEventLine = 4 << 20

// FileRecorder keeps the audit log as one JSON object per line. The file
// stays open for appends until Close.
type FileRecorder struct {
	mu   sync.Mutex
	path string
	out  *os.File
}

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileRecorder{path: path, out: out}, nil
}

// AppendEvent writes one line. A missing ID is filled with a random UUID.
func (r *FileRecorder) AppendEvent(event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return os.ErrClosed
	}
	if _, err := r.out.Write(line); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// LoadEvents reads every event. Lines that fail to decode are skipped.
func (r *FileRecorder) LoadEvents() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return decodeEvents(f)
}

func decodeEvents(src io.Reader) ([]Event, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	var events []Event
	for sc.Scan() {
		var ev Event
		if len(sc.Bytes()) == 0 || json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}

// Close releases the append handle. Later appends fail with os.ErrClosed.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return nil
	}
	err := r.out.Close()
	r.out = nil
	return err
}
