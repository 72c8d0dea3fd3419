package attempt

import (
	"context"
	"sort"
	"sync"
	"testing"
)

type fixedCounter map[string]int

func (c fixedCounter) CountSubmissions(_ context.Context, studentID, examID string) (int, error) {
	return c[studentID+"/"+examID], nil
}

// assertSequence checks that got holds exactly 1..len(got).
func assertSequence(t *testing.T, got []int, offset int) {
	t.Helper()
	sort.Ints(got)
	for i, n := range got {
		if n != offset+i+1 {
			t.Fatalf("attempt numbers = %v, want %d..%d", got, offset+1, offset+len(got))
		}
	}
}

func runConcurrent(t *testing.T, seq Sequencer, studentID, examID string, n int) []int {
	t.Helper()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make([]int, 0, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := seq.Next(context.Background(), studentID, examID)
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			mu.Lock()
			out = append(out, got)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

func TestMemorySequencerConcurrent(t *testing.T) {
	seq := NewMemorySequencer(nil)
	assertSequence(t, runConcurrent(t, seq, "s1", "e1", 50), 0)
}

func TestMemorySequencerSeeded(t *testing.T) {
	seq := NewMemorySequencer(fixedCounter{"s1/e1": 3})
	assertSequence(t, runConcurrent(t, seq, "s1", "e1", 10), 3)

	n, err := seq.Next(context.Background(), "s2", "e1")
	if err != nil || n != 1 {
		t.Fatalf("other student: n=%d err=%v", n, err)
	}
}

func TestMemorySequencerPairsIndependent(t *testing.T) {
	seq := NewMemorySequencer(nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := seq.Next(ctx, "s1", "e1"); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := seq.Next(ctx, "s1", "e2"); n != 1 {
		t.Fatalf("s1/e2 first attempt = %d", n)
	}
	if n, _ := seq.Next(ctx, "s2", "e1"); n != 1 {
		t.Fatalf("s2/e1 first attempt = %d", n)
	}
	if n, _ := seq.Next(ctx, "s1", "e1"); n != 4 {
		t.Fatalf("s1/e1 fourth attempt = %d", n)
	}
}

type releasingSequencer interface {
	Sequencer
	Releaser
}

// assertRelease checks that a released number is handed out again and that a
// stale release does not rewind the counter.
func assertRelease(t *testing.T, seq releasingSequencer, studentID, examID string) {
	t.Helper()
	ctx := context.Background()
	first, err := seq.Next(ctx, studentID, examID)
	if err != nil {
		t.Fatal(err)
	}
	seq.Release(ctx, studentID, examID, first)
	if n, _ := seq.Next(ctx, studentID, examID); n != first {
		t.Fatalf("after release got %d, want %d again", n, first)
	}
	second, _ := seq.Next(ctx, studentID, examID)
	seq.Release(ctx, studentID, examID, first)
	if n, _ := seq.Next(ctx, studentID, examID); n != second+1 {
		t.Fatalf("stale release rewound the counter: got %d, want %d", n, second+1)
	}
}

func TestMemorySequencerRelease(t *testing.T) {
	assertRelease(t, NewMemorySequencer(fixedCounter{"s1/e1": 4}), "s1", "e1")
}

func TestPairLocksReleased(t *testing.T) {
	p := NewPairLocks()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := p.Lock("s", "e")
			unlock()
		}()
	}
	wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.locks) != 0 {
		t.Fatalf("locks left behind: %d", len(p.locks))
	}
}
