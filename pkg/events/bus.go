// Package events delivers registry diffs to independent subscribers.
package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/bluebar/pkg/device"
)

// Handler receives published diffs in publication order.
type Handler func(device.Diff)

// Bus fans diffs out to subscribers. Each subscriber owns a mailbox drained
// by its own goroutine, so Publish never blocks on a slow subscriber and no
// diff is dropped.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]*subscriber
	closed bool
}

type subscriber struct {
	id      string
	handler Handler
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []device.Diff
	stopped bool
	done    chan struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*subscriber)}
}

// Subscribe registers handler and returns a function that removes it.
// Diffs already queued for the subscriber are still delivered on removal.
func (b *Bus) Subscribe(handler Handler) func() {
	s := &subscriber{
		id:      uuid.NewString(),
		handler: handler,
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.done)
		return func() {}
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.loop()
	log.Debug().Str("subscriber", s.id).Msg("Event subscriber added")

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, s.id)
			b.mu.Unlock()
			s.stop()
			<-s.done
		})
	}
}

// SubscribeChan delivers every event of every diff on a channel. The
// returned cancel function unsubscribes and closes the channel.
func (b *Bus) SubscribeChan(buffer int) (<-chan device.Event, func()) {
	ch := make(chan device.Event, buffer)
	stop := make(chan struct{})
	unsubscribe := b.Subscribe(func(d device.Diff) {
		for _, evt := range d.Events {
			select {
			case ch <- evt:
			case <-stop:
				return
			}
		}
	})
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			close(stop)
			unsubscribe()
			close(ch)
		})
	}
}

// Publish queues diff for every current subscriber.
func (b *Bus) Publish(diff device.Diff) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.push(diff)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close stops accepting diffs and waits for subscribers to drain.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = map[string]*subscriber{}
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
		<-s.done
	}
}

func (s *subscriber) push(d device.Diff) {
	s.mu.Lock()
	s.queue = append(s.queue, d)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscriber) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.deliver(next)
	}
}

func (s *subscriber) deliver(d device.Diff) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("subscriber", s.id).Msg("Event handler panicked")
		}
	}()
	s.handler(d)
}
