package wal

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

type record struct {
	Seq int    `json:"seq"`
	Msg string `json:"msg"`
}

func TestWriteThenReadAllPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	w, err := NewWAL(path)
	if err != nil {
		t.Fatalf("new wal: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := w.Write(record{Seq: i, Msg: "entry"}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewWAL(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	var got []record
	err = reopened.ReadAll(func(jsonRaw []byte) error {
		var r record
		if err := json.Unmarshal(jsonRaw, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 records, got %d", len(got))
	}
	for i, r := range got {
		if r.Seq != i {
			t.Fatalf("order broken at %d: %+v", i, r)
		}
	}
}

func TestReadAllEmptyJournal(t *testing.T) {
	w, err := NewWAL(filepath.Join(t.TempDir(), "empty.wal"))
	if err != nil {
		t.Fatalf("new wal: %v", err)
	}
	defer w.Close()

	calls := 0
	if err := w.ReadAll(func([]byte) error { calls++; return nil }); err != nil {
		t.Fatalf("read all: %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback on empty journal: %d calls", calls)
	}
}
