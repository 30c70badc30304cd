package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"routeshadow/internal/model"
)

func TestWorkerDeliversSignedEvent(t *testing.T) {
	var (
		mu            sync.Mutex
		gotSig, gotTy string
		gotBody       []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotSig = r.Header.Get("X-Signature")
		gotTy = r.Header.Get("X-Event-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	w := NewWorker([]string{srv.URL}, "secret", 3, log)
	w.HTTP = srv.Client()
	w.Events = []string{model.EventRunCompleted}

	w.Notify(model.Event{Type: model.EventCustomerAssigned})
	w.Notify(model.Event{Type: model.EventRunCompleted, RunID: "r1", Score: "0hard/-1soft"})
	if pending, _, _ := w.Stats(); pending != 1 {
		t.Fatalf("pending = %d, want 1 after filtering", pending)
	}
	w.processOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if gotTy != model.EventRunCompleted {
		t.Fatalf("event type header = %q", gotTy)
	}
	if !VerifyHMAC("secret", gotBody, gotSig) {
		t.Fatalf("signature %q does not verify", gotSig)
	}
	if _, delivered, failed := w.Stats(); delivered != 1 || failed != 0 {
		t.Fatalf("delivered=%d failed=%d", delivered, failed)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	w := NewWorker([]string{srv.URL}, "", 2, log)
	w.HTTP = srv.Client()
	clock := time.Unix(1000, 0)
	w.now = func() time.Time { return clock }

	w.Notify(model.Event{Type: model.EventRunCompleted})
	w.processOnce(context.Background())
	if pending, _, failed := w.Stats(); pending != 1 || failed != 0 {
		t.Fatalf("after first attempt pending=%d failed=%d", pending, failed)
	}
	// not due yet
	w.processOnce(context.Background())
	clock = clock.Add(nextBackoff(0))
	w.processOnce(context.Background())
	if pending, _, failed := w.Stats(); pending != 0 || failed != 1 {
		t.Fatalf("after retries pending=%d failed=%d", pending, failed)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFlushDrainsQueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	log, _ := test.NewNullLogger()
	w := NewWorker([]string{srv.URL, srv.URL}, "", 1, log)
	w.HTTP = srv.Client()
	w.Notify(model.Event{Type: model.EventRunCompleted})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, delivered, _ := w.Stats(); delivered != 2 {
		t.Fatalf("delivered = %d", delivered)
	}
}

func TestNextBackoff(t *testing.T) {
	if nextBackoff(-1) != time.Second || nextBackoff(3) != 8*time.Second || nextBackoff(50) != 1024*time.Second {
		t.Fatal("unexpected backoff schedule")
	}
}

func TestSignatureFormat(t *testing.T) {
	sig := SignHMAC("k", []byte("body"))
	if len(sig) != len("sha256=")+64 || sig[:7] != "sha256=" {
		t.Fatalf("signature = %q", sig)
	}
	if !VerifyHMAC("k", []byte("body"), sig[7:]) {
		t.Fatal("bare hex should verify")
	}
	if VerifyHMAC("other", []byte("body"), sig) || VerifyHMAC("k", []byte("body"), "sha256=zz") {
		t.Fatal("bad signature accepted")
	}
}
