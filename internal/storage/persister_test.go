package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestPersisterWritesLatest(t *testing.T) {
	mem := NewMemory()
	p := NewPersister(mem, nil)
	defer p.Close()

	p.SaveDefaultLayer(1)
	p.SaveDefaultLayer(0)
	p.SaveDefaultLayer(1)
	p.Flush()

	id, ok, _ := mem.DefaultLayer(context.Background())
	if !ok || id != 1 {
		t.Errorf("backend holds %d, %v, want 1", id, ok)
	}
	if w := mem.Writes(); w < 1 || w > 3 {
		t.Errorf("Writes() = %d, want 1..3", w)
	}
	if got, ok := p.LoadDefaultLayer(); !ok || got != 1 {
		t.Errorf("LoadDefaultLayer() = %d, %v", got, ok)
	}
}

func TestPersisterLoadsFromBackend(t *testing.T) {
	mem := NewMemory()
	_ = mem.SetDefaultLayer(context.Background(), 1)

	p := NewPersister(mem, nil)
	defer p.Close()

	if id, ok := p.LoadDefaultLayer(); !ok || id != 1 {
		t.Errorf("LoadDefaultLayer() = %d, %v, want 1, true", id, ok)
	}
}

func TestPersisterFailuresAreCounted(t *testing.T) {
	mem := NewMemory()
	mem.FailWith(errors.New("offline"))
	p := NewPersister(mem, nil)
	defer p.Close()

	if _, ok := p.LoadDefaultLayer(); ok {
		t.Error("LoadDefaultLayer() ok despite backend error")
	}

	p.SaveDefaultLayer(1)
	p.Flush()
	if p.Failed() != 1 || p.Written() != 0 {
		t.Errorf("Failed() = %d, Written() = %d", p.Failed(), p.Written())
	}
}

func TestPersisterCloseWritesPending(t *testing.T) {
	mem := NewMemory()
	p := NewPersister(mem, nil)

	p.SaveDefaultLayer(1)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if id, ok, _ := mem.DefaultLayer(context.Background()); !ok || id != 1 {
		t.Errorf("pending save lost on Close: %d, %v", id, ok)
	}

	p.SaveDefaultLayer(0)
	p.Flush()
	if id, _, _ := mem.DefaultLayer(context.Background()); id != 1 {
		t.Error("save after Close reached the backend")
	}
}

func TestPersisterOverSQLiteRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyweave.db")

	s := openTemp(t, path)
	p := NewPersister(s, nil)
	p.SaveDefaultLayer(1)
	p.Close()
	s.Close()

	s = openTemp(t, path)
	defer s.Close()
	p = NewPersister(s, nil)
	defer p.Close()

	if id, ok := p.LoadDefaultLayer(); !ok || id != 1 {
		t.Errorf("LoadDefaultLayer() after restart = %d, %v, want 1, true", id, ok)
	}
}
