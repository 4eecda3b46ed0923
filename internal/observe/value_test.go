package observe_test

import (
	"slices"
	"testing"

	"tasktrack/internal/observe"
)

func TestSubscribe_ReplaysCurrentValue(t *testing.T) {
	v := observe.New("a", nil)
	v.Set("b")

	ch, cancel := v.Subscribe()
	defer cancel()

	if got := <-ch; got != "b" {
		t.Errorf("expected replay of %q, got %q", "b", got)
	}
}

func TestSubscribe_DeliversLatest(t *testing.T) {
	v := observe.New(0, nil)
	ch, cancel := v.Subscribe()
	defer cancel()

	<-ch // initial
	v.Set(1)
	v.Set(2)
	v.Set(3)

	if got := <-ch; got != 3 {
		t.Errorf("expected latest value 3, got %d", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("expected coalesced delivery, got extra value %d", extra)
	default:
	}
}

func TestSubscribe_MultipleReaders(t *testing.T) {
	v := observe.New(0, nil)
	ch1, cancel1 := v.Subscribe()
	defer cancel1()
	ch2, cancel2 := v.Subscribe()
	defer cancel2()

	<-ch1
	<-ch2
	v.Set(7)

	if got := <-ch1; got != 7 {
		t.Errorf("reader 1: expected 7, got %d", got)
	}
	if got := <-ch2; got != 7 {
		t.Errorf("reader 2: expected 7, got %d", got)
	}
}

func TestCopyFn_ReadersCannotMutateOwner(t *testing.T) {
	v := observe.New([]int{1, 2, 3}, slices.Clone[[]int])

	got := v.Get()
	got[0] = 99

	ch, cancel := v.Subscribe()
	defer cancel()
	delivered := <-ch
	delivered[1] = 99

	if cur := v.Get(); !slices.Equal(cur, []int{1, 2, 3}) {
		t.Errorf("owner state mutated through reader: %v", cur)
	}
}

func TestCancel_ClosesChannel(t *testing.T) {
	v := observe.New(0, nil)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after cancel")
	}
	v.Set(1) // must not panic on a cancelled subscriber
}

func TestClose_EndsSubscriptions(t *testing.T) {
	v := observe.New(0, nil)
	ch, cancel := v.Subscribe()
	defer cancel()
	<-ch

	v.Close()
	if _, ok := <-ch; ok {
		t.Error("expected channel closed by Close")
	}

	late, lateCancel := v.Subscribe()
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Error("expected subscription after Close to be closed")
	}
}
