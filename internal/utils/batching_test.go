package utils

import (
	"sync"
	"testing"
)

func TestBatchBuffer(t *testing.T) {
	b := NewBatchBuffer[int](3)
	if b.HasData() {
		t.Fatal("new buffer should be empty")
	}
	if got := b.GetAndClear(); got != nil {
		t.Errorf("GetAndClear on empty buffer = %v, want nil", got)
	}

	if full := b.Add(1, 2); full {
		t.Error("two items should not fill a buffer of three")
	}
	if full := b.Add(3); !full {
		t.Error("third item should report full")
	}

	batch := b.GetAndClear()
	if len(batch) != 3 || batch[0] != 1 || batch[2] != 3 {
		t.Errorf("batch = %v", batch)
	}
	if b.Size() != 0 {
		t.Errorf("Size after clear = %d", b.Size())
	}

	b.Add(4)
	if batch[0] != 1 {
		t.Error("returned batch must not alias the new buffer")
	}
}

func TestBatchBufferDefaultCapacity(t *testing.T) {
	b := NewBatchBuffer[string](0)
	for i := 0; i < HISTORY_BATCH_SIZE-1; i++ {
		if b.Add("x") {
			t.Fatalf("reported full after %d items", i+1)
		}
	}
	if !b.Add("x") {
		t.Error("default capacity should be HISTORY_BATCH_SIZE")
	}
}

func TestBatchBufferConcurrentAdd(t *testing.T) {
	b := NewBatchBuffer[int](1000)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Add(j)
			}
		}()
	}
	wg.Wait()
	if got := len(b.GetAndClear()); got != 500 {
		t.Errorf("got %d items, want 500", got)
	}
}

func TestDeserializeFromJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := DeserializeFromJSON([]byte(`{"name":"x"}`), &v); err != nil || v.Name != "x" {
		t.Errorf("decode = %+v, %v", v, err)
	}
	if err := DeserializeFromJSON([]byte(`{`), &v); err == nil {
		t.Error("expected error on truncated JSON")
	}
}
