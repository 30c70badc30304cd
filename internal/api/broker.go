package api

import (
	"sync"

	"routeshadow/internal/model"
)

// TopicAll receives every event regardless of run.
const TopicAll = "all"

// EventBroker fans score events out to subscribers by topic (a run ID or
// TopicAll).
type EventBroker interface {
	Subscribe(topic string) chan model.Event
	Unsubscribe(topic string, ch chan model.Event)
	Publish(topic string, evt model.Event)
}

// Broker is the in-process EventBroker. Slow subscribers drop events.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan model.Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan model.Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan model.Event {
	ch := make(chan model.Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan model.Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

// Publish delivers evt to topic and to TopicAll.
func (b *Broker) Publish(topic string, evt model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics(topic) {
		for ch := range b.subs[t] {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

func topics(topic string) []string {
	if topic == TopicAll || topic == "" {
		return []string{TopicAll}
	}
	return []string{topic, TopicAll}
}
