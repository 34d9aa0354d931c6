package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// maxLineSize bounds a single transcript line.
const maxLineSize = 10 << 20

// ErrClosed is returned by a FileRecorder after Close.
var ErrClosed = errors.New("storage: recorder closed")

// FileRecorder appends events as JSON lines to one file. The append handle is
// kept open for the recorder's lifetime.
type FileRecorder struct {
	path string

	mu  sync.Mutex
	out *os.File
	enc *json.Encoder
}

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure transcript dir: %w", err)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	return &FileRecorder{path: path, out: out, enc: json.NewEncoder(out)}, nil
}

func (r *FileRecorder) AppendInteraction(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return ErrClosed
	}
	if err := r.enc.Encode(event); err != nil {
		return fmt.Errorf("append transcript event: %w", err)
	}
	return nil
}

// LoadInteractions reads every event back in file order.
func (r *FileRecorder) LoadInteractions() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer in.Close()
	return readEvents(in)
}

// Close releases the append handle. Further appends fail with ErrClosed.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return nil
	}
	err := r.out.Close()
	r.out, r.enc = nil, nil
	return err
}

// readEvents decodes one event per line. Blank and malformed lines are
// skipped so a torn final write does not hide the rest of the transcript.
func readEvents(in io.Reader) ([]Event, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var events []Event
	for sc.Scan() {
		var ev Event
		if json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return events, nil
}
