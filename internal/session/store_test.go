package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	s := newSession("s-1", "p-1", "first", nil)

	if _, ok := store.Get("s-1"); ok {
		t.Fatal("expected miss before put")
	}
	store.Put(s)
	got, ok := store.Get("s-1")
	if !ok || got.ID != "s-1" {
		t.Fatalf("expected stored session, got %+v ok=%v", got, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("expected len 1, got %d", store.Len())
	}
	store.Delete("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatal("expected miss after delete")
	}
	if store.Len() != 0 {
		t.Fatalf("expected len 0, got %d", store.Len())
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", i)
			store.Put(newSession(id, "p", "name", nil))
			if _, ok := store.Get(id); !ok {
				t.Errorf("lost session %s", id)
			}
		}(i)
	}
	wg.Wait()
	if store.Len() != 16 {
		t.Fatalf("expected 16 sessions, got %d", store.Len())
	}
}

func TestSession_ClaimIsOneShot(t *testing.T) {
	s := newSession("s-1", "p-1", "first", nil)
	if _, err := s.appendChunk([]byte{1, 2, 3, 4}, 16000, 1<<20); err != nil {
		t.Fatalf("append: %v", err)
	}
	pcm, rate, ok := s.claimForProcessing()
	if !ok || len(pcm) != 4 || rate != 16000 {
		t.Fatalf("claim: pcm=%d rate=%d ok=%v", len(pcm), rate, ok)
	}
	if _, _, ok := s.claimForProcessing(); ok {
		t.Fatal("second claim must fail")
	}
	if s.Status() != StatusProcessing {
		t.Fatalf("expected processing, got %s", s.Status())
	}
	s.markCompleted()
	if s.Status() != StatusCompleted {
		t.Fatalf("expected completed, got %s", s.Status())
	}
}

func TestSession_ChunkOrderPreserved(t *testing.T) {
	s := newSession("s-1", "p-1", "first", nil)
	for i := byte(0); i < 5; i++ {
		if _, err := s.appendChunk([]byte{i, i}, 16000, 1<<20); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	pcm, _, ok := s.claimForProcessing()
	if !ok {
		t.Fatal("claim failed")
	}
	want := []byte{0, 0, 1, 1, 2, 2, 3, 3, 4, 4}
	if len(pcm) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(pcm))
	}
	for i := range want {
		if pcm[i] != want[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, want[i], pcm[i])
		}
	}
}
