package wal

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// FileModeReadOnly is rw-r--r--, the default for journal files.
const FileModeReadOnly fs.FileMode = 0644

// WAL is an append-only journal of JSON-encoded records. Writes are synced
// to disk before they return, so a record that Write accepted survives a
// crash.
type WAL struct {
	file *os.File
	mu   sync.Mutex
}

// NewWAL opens or creates the journal at path.
func NewWAL(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeReadOnly)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file}, nil
}

// Write appends one record and syncs it to disk.
func (w *WAL) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := json.NewEncoder(w.file).Encode(v); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll streams every record to callback in write order, without loading
// the whole journal into memory.
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
	return nil
}
