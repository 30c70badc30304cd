package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"routeshadow/internal/model"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so several vrpsim
// processes can share subscribers.
type RedisBroker struct {
	rdb    *redis.Client
	prefix string
	log    logrus.FieldLogger

	mu  sync.Mutex
	pss map[chan model.Event]*redis.PubSub
}

func NewRedisBroker(url, prefix string, log logrus.FieldLogger) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisBroker{rdb: redis.NewClient(opt), prefix: prefix, log: log, pss: map[chan model.Event]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *RedisBroker) Close() error { return b.rdb.Close() }

func (b *RedisBroker) Subscribe(topic string) chan model.Event {
	ch := make(chan model.Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(topic))
	// initial consume to ensure subscription
	if _, err := ps.Receive(ctx); err != nil {
		b.log.WithError(err).WithField("topic", topic).Warn("redis subscribe failed")
	}
	b.mu.Lock()
	b.pss[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt model.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.log.WithError(err).Debug("dropping malformed event")
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the Pub/Sub connection; the channel is closed once the
// reader goroutine drains.
func (b *RedisBroker) Unsubscribe(topic string, ch chan model.Event) {
	b.mu.Lock()
	ps, ok := b.pss[ch]
	delete(b.pss, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(topic string, evt model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	for _, t := range topics(topic) {
		if err := b.rdb.Publish(ctx, b.chanName(t), data).Err(); err != nil {
			b.log.WithError(err).WithField("topic", t).Warn("redis publish failed")
		}
	}
}

func (b *RedisBroker) chanName(topic string) string { return b.prefix + ":" + topic }
