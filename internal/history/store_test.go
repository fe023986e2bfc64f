// internal/history/store_test.go
package history

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pingwatch/internal/probe"
)

func outcomeAt(i int, success bool) probe.Outcome {
	return probe.Outcome{
		Timestamp: time.Unix(int64(i), 0).UTC(),
		Method:    probe.MethodPrimary,
		Success:   success,
		LatencyMS: float64(i),
	}
}

func TestAppendUnknownHost(t *testing.T) {
	s := NewStore([]string{"a"}, 4)
	if err := s.Append("nope", outcomeAt(0, true)); !errors.Is(err, ErrUnknownHost) {
		t.Fatalf("err = %v, want ErrUnknownHost", err)
	}
	if _, err := s.Window("nope", 0); !errors.Is(err, ErrUnknownHost) {
		t.Fatalf("err = %v, want ErrUnknownHost", err)
	}
}

func TestCapacityInvariant(t *testing.T) {
	const capacity = 8
	s := NewStore([]string{"a"}, capacity)

	for i := 0; i < capacity*3+5; i++ {
		if err := s.Append("a", outcomeAt(i, true)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		n, _ := s.Len("a")
		if i+1 <= capacity && n != i+1 {
			t.Fatalf("after %d appends len = %d, want %d", i+1, n, i+1)
		}
		if i+1 > capacity && n != capacity {
			t.Fatalf("after %d appends len = %d, want %d", i+1, n, capacity)
		}
	}
}

func TestWindowOrderingAndEviction(t *testing.T) {
	s := NewStore([]string{"a"}, 4)
	for i := 0; i < 10; i++ {
		if err := s.Append("a", outcomeAt(i, true)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	w, err := s.Window("a", 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(w) != 4 {
		t.Fatalf("window len = %d, want 4", len(w))
	}
	// Oldest evicted first: survivors are appends 6..9 ascending.
	for i, out := range w {
		if out.LatencyMS != float64(6+i) {
			t.Fatalf("window[%d] = %v, want %d", i, out.LatencyMS, 6+i)
		}
		if i > 0 && w[i].Timestamp.Before(w[i-1].Timestamp) {
			t.Fatalf("window not time-ordered at %d", i)
		}
	}
}

func TestWindowLastN(t *testing.T) {
	s := NewStore([]string{"a"}, 16)
	for i := 0; i < 10; i++ {
		_ = s.Append("a", outcomeAt(i, true))
	}

	w, err := s.Window("a", 3)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(w) != 3 {
		t.Fatalf("window len = %d, want 3", len(w))
	}
	if w[0].LatencyMS != 7 || w[2].LatencyMS != 9 {
		t.Fatalf("window = [%v..%v], want [7..9]", w[0].LatencyMS, w[2].LatencyMS)
	}
}

func TestLatest(t *testing.T) {
	s := NewStore([]string{"a"}, 4)

	if _, ok, err := s.Latest("a"); err != nil || ok {
		t.Fatalf("latest on empty: ok=%v err=%v", ok, err)
	}

	_ = s.Append("a", outcomeAt(1, true))
	_ = s.Append("a", outcomeAt(2, false))

	out, ok, err := s.Latest("a")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if out.Success || out.LatencyMS != 2 {
		t.Fatalf("latest = %+v, want append 2", out)
	}
}

func TestConcurrentAppendsAcrossHosts(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	s := NewStore(ids, 64)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if err := s.Append(id, outcomeAt(i, i%2 == 0)); err != nil {
					t.Errorf("append %s: %v", id, err)
					return
				}
				if _, err := s.Window(id, 10); err != nil {
					t.Errorf("window %s: %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		n, err := s.Len(id)
		if err != nil {
			t.Fatalf("len %s: %v", id, err)
		}
		if n != 64 {
			t.Fatalf("len %s = %d, want 64", id, n)
		}
	}
}
