// Package notify delivers notifications to subscribers.
//
// Registry calls its listeners synchronously, in subscription order, on the
// caller's goroutine. Multiplexer fans values out to channels asynchronously,
// in send order, and is meant for handing events over to other goroutines
// (e.g. network clients) without blocking the sender.
package notify

import (
	"fmt"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const multiplexerTimeout = 200 * time.Millisecond

// Handle identifies a subscription to a Registry.
type Handle int

type listener[L any] struct {
	handle  Handle
	comment string
	l       L
}

// Registry is a list of listeners of type L. The zero value is ready to use.
// A Registry is not safe for concurrent use.
type Registry[L any] struct {
	next      Handle
	listeners []listener[L]
}

// Subscribe adds l. comment is a human-readable description used in logs.
func (r *Registry[L]) Subscribe(comment string, l L) Handle {
	r.next++
	r.listeners = append(r.listeners, listener[L]{handle: r.next, comment: comment, l: l})
	return r.next
}

// Unsubscribe removes the listener added with h. It panics if h is not
// subscribed.
func (r *Registry[L]) Unsubscribe(h Handle) {
	i := slices.IndexFunc(r.listeners, func(l listener[L]) bool { return l.handle == h })
	if i == -1 {
		panic(fmt.Sprintf("handle %d already unsubscribed", h))
	}
	r.listeners = slices.Delete(r.listeners, i, i+1)
}

// Len returns the number of listeners.
func (r *Registry[L]) Len() int {
	return len(r.listeners)
}

// Each calls f for every listener in subscription order. Listeners added or
// removed by f take effect on the next call.
func (r *Registry[L]) Each(f func(l L)) {
	if len(r.listeners) == 0 {
		return
	}
	for _, l := range slices.Clone(r.listeners) {
		f(l.l)
	}
}

// Clear removes every listener.
func (r *Registry[L]) Clear() {
	r.listeners = nil
}

type subscriber[E any] struct {
	ch      chan E
	comment string
}

// MultiplexerSender is the sending half of a Multiplexer. Values are queued
// and handed to subscribers by a single goroutine, in the order they were
// sent.
type MultiplexerSender[E any] struct {
	m *Multiplexer[E]

	queueLock sync.Mutex
	queue     []E
	closed    bool
	wake      chan struct{}
	done      chan struct{}
}

// Send queues e for every subscriber without blocking the caller. Sends after
// Close are dropped.
func (ms *MultiplexerSender[E]) Send(e E) {
	ms.queueLock.Lock()
	if ms.closed {
		ms.queueLock.Unlock()
		return
	}
	ms.queue = append(ms.queue, e)
	ms.queueLock.Unlock()
	select {
	case ms.wake <- struct{}{}:
	default:
	}
}

// Close delivers the values still queued and stops the sending goroutine.
func (ms *MultiplexerSender[E]) Close() {
	ms.queueLock.Lock()
	if ms.closed {
		ms.queueLock.Unlock()
		return
	}
	ms.closed = true
	ms.queueLock.Unlock()
	select {
	case ms.wake <- struct{}{}:
	default:
	}
	<-ms.done
}

func (ms *MultiplexerSender[E]) run() {
	defer close(ms.done)
	for {
		ms.queueLock.Lock()
		queue, closed := ms.queue, ms.closed
		ms.queue = nil
		ms.queueLock.Unlock()
		for _, e := range queue {
			ms.m.send(e)
		}
		if len(queue) != 0 {
			continue
		}
		if closed {
			return
		}
		<-ms.wake
	}
}

func NewMultiplexerSender[E any](comment string) (*MultiplexerSender[E], *Multiplexer[E]) {
	m := &Multiplexer[E]{
		comment: comment,
	}
	ms := &MultiplexerSender[E]{
		m:    m,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go ms.run()
	return ms, m
}

type Multiplexer[E any] struct {
	comment         string
	subscribersLock sync.Mutex
	subscribers     []subscriber[E]
}

func (m *Multiplexer[E]) Subscribe(comment string, c chan E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	m.subscribers = append(m.subscribers, subscriber[E]{
		ch:      c,
		comment: comment,
	})
}

func (m *Multiplexer[E]) Unsubscribe(c chan E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	i := slices.IndexFunc(m.subscribers, func(sub subscriber[E]) bool { return sub.ch == c })
	if i == -1 {
		panic("already unsubscribed")
	}
	m.subscribers = slices.Delete(m.subscribers, i, i+1)
}

func (m *Multiplexer[E]) send(e E) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	for _, sub := range m.subscribers {
		select {
		case sub.ch <- e:
		case <-time.After(multiplexerTimeout):
			m.timeout(sub, e)
		}
	}
}

func (m *Multiplexer[E]) timeout(sub subscriber[E], e E) {
	pprof.Lookup("goroutine").WriteTo(os.Stderr, 1)
	zap.S().Warnw("multiplexer subscriber timed out",
		"multiplexer", m.comment,
		"subscriber", sub.comment,
		"value", fmt.Sprintf("%#v", e))
}
