package notify

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	var r Registry[func(string)]
	if r.Len() != 0 {
		t.Fatalf("zero Registry has %d listeners", r.Len())
	}
	var got []string
	a := r.Subscribe("a", func(s string) { got = append(got, "a:"+s) })
	r.Subscribe("b", func(s string) { got = append(got, "b:"+s) })
	r.Each(func(l func(string)) { l("1") })
	r.Unsubscribe(a)
	r.Each(func(l func(string)) { l("2") })
	want := []string{"a:1", "b:1", "b:2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegistryUnsubscribeDuringEach(t *testing.T) {
	var r Registry[func()]
	calls := 0
	var h Handle
	h = r.Subscribe("self-removing", func() {
		calls++
		r.Unsubscribe(h)
	})
	r.Subscribe("other", func() { calls++ })
	r.Each(func(l func()) { l() })
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	r.Each(func(l func()) { l() })
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRegistryUnsubscribeTwice(t *testing.T) {
	var r Registry[int]
	h := r.Subscribe("x", 1)
	r.Unsubscribe(h)
	defer func() {
		if recover() == nil {
			t.Fatal("second Unsubscribe did not panic")
		}
	}()
	r.Unsubscribe(h)
}

func TestMultiplexer(t *testing.T) {
	s, m := NewMultiplexerSender[int]("test")
	defer s.Close()
	c := make(chan int, 1)
	m.Subscribe("test", c)
	defer m.Unsubscribe(c)
	s.Send(42)
	select {
	case v := <-c:
		if v != 42 {
			t.Fatalf("got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestMultiplexerOrder(t *testing.T) {
	s, m := NewMultiplexerSender[int]("test")
	defer s.Close()
	c := make(chan int)
	m.Subscribe("test", c)
	defer m.Unsubscribe(c)
	const n = 100
	for i := 0; i < n; i++ {
		s.Send(i)
	}
	for i := 0; i < n; i++ {
		select {
		case v := <-c:
			if v != i {
				t.Fatalf("value %d: got %d", i, v)
			}
		case <-time.After(time.Second):
			t.Fatalf("value %d: timed out", i)
		}
	}
}

func TestMultiplexerCloseDrains(t *testing.T) {
	s, m := NewMultiplexerSender[int]("test")
	c := make(chan int, 10)
	m.Subscribe("test", c)
	for i := 0; i < 10; i++ {
		s.Send(i)
	}
	s.Close()
	s.Send(10)
	s.Close()
	var got []int
	for len(c) > 0 {
		got = append(got, <-c)
	}
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
