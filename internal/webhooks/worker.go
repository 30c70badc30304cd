// Package webhooks delivers run events to HTTP endpoints, signed with
// HMAC-SHA256 and retried with exponential backoff.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"routeshadow/internal/model"
)

// Delivery is one event bound for one URL.
type Delivery struct {
	ID        string
	URL       string
	EventType string
	Payload   []byte
	Attempts  int
	NextAt    time.Time
	LastErr   string
	Code      int
}

type Worker struct {
	URLs        []string
	Secret      string
	Events      []string // event types to forward; empty forwards all
	HTTP        *http.Client
	MaxAttempts int
	Log         logrus.FieldLogger

	mu        sync.Mutex
	queue     []*Delivery
	failed    []*Delivery
	delivered int
	now       func() time.Time
}

func NewWorker(urls []string, secret string, maxAttempts int, log logrus.FieldLogger) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Worker{
		URLs:        urls,
		Secret:      secret,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		Log:         log,
		now:         time.Now,
	}
}

// Notify queues evt for every URL, unless its type is filtered out.
func (w *Worker) Notify(evt model.Event) {
	if len(w.Events) > 0 && !slices.Contains(w.Events, evt.Type) {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		w.Log.WithError(err).Warn("webhook payload")
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range w.URLs {
		w.queue = append(w.queue, &Delivery{ID: uuid.NewString(), URL: u, EventType: evt.Type, Payload: body, NextAt: w.now()})
	}
}

// Start processes due deliveries every second until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.processOnce(ctx)
			}
		}
	}()
}

// Flush keeps delivering until the queue is empty or ctx is done.
func (w *Worker) Flush(ctx context.Context) error {
	for {
		w.processOnce(ctx)
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return nil
		}
		next := w.queue[0].NextAt
		for _, d := range w.queue[1:] {
			if d.NextAt.Before(next) {
				next = d.NextAt
			}
		}
		w.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(max(next.Sub(w.now()), 10*time.Millisecond)):
		}
	}
}

// Stats reports queue depth and outcomes so far.
func (w *Worker) Stats() (pending, delivered, failed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue), w.delivered, len(w.failed)
}

func (w *Worker) processOnce(ctx context.Context) {
	w.mu.Lock()
	now := w.now()
	var due []*Delivery
	rest := w.queue[:0]
	for _, d := range w.queue {
		if d.NextAt.After(now) {
			rest = append(rest, d)
		} else {
			due = append(due, d)
		}
	}
	w.queue = rest
	w.mu.Unlock()

	for _, d := range due {
		ok := w.send(ctx, d)
		w.mu.Lock()
		switch {
		case ok:
			w.delivered++
		case d.Attempts >= w.MaxAttempts:
			w.failed = append(w.failed, d)
			w.Log.WithFields(logrus.Fields{"url": d.URL, "event": d.EventType, "code": d.Code}).Warn("webhook delivery failed permanently")
		default:
			d.NextAt = w.now().Add(nextBackoff(d.Attempts - 1))
			w.queue = append(w.queue, d)
		}
		w.mu.Unlock()
	}
}

func (w *Worker) send(ctx context.Context, d *Delivery) bool {
	d.Attempts++
	rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(rctx, http.MethodPost, d.URL, bytes.NewReader(d.Payload))
	if err != nil {
		d.LastErr = err.Error()
		d.Attempts = w.MaxAttempts
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.EventType)
	req.Header.Set("X-Delivery-Id", d.ID)
	if w.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(w.Secret, d.Payload))
	}
	resp, err := w.HTTP.Do(req)
	if err != nil {
		d.LastErr = err.Error()
		return false
	}
	_ = resp.Body.Close()
	d.Code = resp.StatusCode
	return d.Code >= 200 && d.Code < 300
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
