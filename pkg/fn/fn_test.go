package fn

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestUnwrapOr(t *testing.T) {
	if Ok(1).UnwrapOr(9) != 1 {
		t.Fatal("should return value")
	}
	if Err[int](errors.New("x")).UnwrapOr(9) != 9 {
		t.Fatal("should return fallback")
	}
}

func TestMapResult(t *testing.T) {
	r := MapResult(Ok(2), strconv.Itoa)
	if v, _ := r.Unwrap(); v != "2" {
		t.Fatalf("got %q", v)
	}
	e := MapResult(Err[int](errors.New("x")), strconv.Itoa)
	if e.IsOk() {
		t.Fatal("MapResult on Err should stay Err")
	}
}

func TestFromPair(t *testing.T) {
	if FromPair(5, nil).IsErr() {
		t.Fatal("nil error should be Ok")
	}
	if FromPair(5, errors.New("x")).IsOk() {
		t.Fatal("non-nil error should be Err")
	}
}

func TestCollect(t *testing.T) {
	ok := Collect([]Result[int]{Ok(1), Ok(2), Ok(3)})
	if v, _ := ok.Unwrap(); len(v) != 3 || v[2] != 3 {
		t.Fatalf("got %v", v)
	}

	boom := errors.New("boom")
	bad := Collect([]Result[int]{Ok(1), Err[int](boom), Ok(3)})
	if _, err := bad.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
}

// --- slices ---

func TestMapFilter(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	if strings.Join(got, ",") != "1,2,3" {
		t.Fatalf("Map: %v", got)
	}

	evens := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(evens) != 2 || evens[0] != 2 {
		t.Fatalf("Filter: %v", evens)
	}
}

func TestFilterMap(t *testing.T) {
	got := FilterMap([]string{"1", "x", "3"}, func(s string) (int, bool) {
		v, err := strconv.Atoi(s)
		return v, err == nil
	})
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestGroupBy(t *testing.T) {
	groups := GroupBy([]string{"apple", "avocado", "banana"}, func(s string) byte { return s[0] })
	if len(groups['a']) != 2 || len(groups['b']) != 1 {
		t.Fatalf("got %v", groups)
	}
}

func TestChunk(t *testing.T) {
	chunks := Chunk([]int{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("got %v", chunks)
	}
	if Chunk([]int{1}, 0) != nil {
		t.Fatal("n <= 0 should return nil")
	}
}

// --- pipeline ---

func TestThenShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	first := func(_ context.Context, v int) Result[int] { return Err[int](boom) }
	called := false
	second := func(_ context.Context, v int) Result[int] { called = true; return Ok(v) }

	r := Then(first, second)(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if called {
		t.Fatal("second stage must not run after error")
	}
}

func TestPipeline(t *testing.T) {
	double := func(_ context.Context, v int) Result[int] { return Ok(v * 2) }
	inc := func(_ context.Context, v int) Result[int] { return Ok(v + 1) }

	r := Pipeline(double, inc, double)(context.Background(), 3)
	if v, _ := r.Unwrap(); v != 14 {
		t.Fatalf("got %d", v)
	}
}

func TestTapStage(t *testing.T) {
	var seen int
	tap := TapStage(func(_ context.Context, v int) { seen = v })
	r := tap(context.Background(), 7)
	if v, _ := r.Unwrap(); v != 7 || seen != 7 {
		t.Fatalf("tap must pass through, got %d seen %d", v, seen)
	}
}

func TestTracedStagePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	stage := TracedStage("test", func(_ context.Context, v int) Result[int] { return Err[int](boom) })
	if _, err := stage(context.Background(), 1).Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

// --- retry ---

func TestRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Errf[int]("attempt %d", attempts)
		}
		return Ok(99)
	})
	if v, _ := r.Unwrap(); v != 99 || attempts != 3 {
		t.Fatalf("got %d after %d attempts", v, attempts)
	}
}

func TestRetryExhausts(t *testing.T) {
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		return Errf[int]("always")
	})
	if r.IsOk() {
		t.Fatal("expected exhausted retry to fail")
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := RetryOpts{MaxAttempts: 5, InitialWait: time.Minute, MaxWait: time.Minute}
	r := Retry(ctx, opts, func(context.Context) Result[int] {
		cancel()
		return Errf[int]("fail")
	})
	if _, err := r.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// --- parallel ---

func TestParMapResultPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	results := ParMapResult(items, 3, func(v int) Result[int] { return Ok(v * 10) })

	collected := Collect(results)
	v, err := collected.Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	for i, got := range v {
		if got != items[i]*10 {
			t.Fatalf("index %d: got %d", i, got)
		}
	}
}

func TestParMapResultBoundsWorkers(t *testing.T) {
	var active, peak atomic.Int32
	ParMapResult(make([]int, 20), 2, func(int) Result[int] {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return Ok(0)
	})
	if peak.Load() > 2 {
		t.Fatalf("worker bound exceeded: %d", peak.Load())
	}
}
