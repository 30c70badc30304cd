package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"routeshadow/internal/config"
	"routeshadow/internal/model"
	"routeshadow/internal/store"
)

func newTestServer(t *testing.T, sc config.Server) (*Server, *store.Memory) {
	t.Helper()
	log, _ := test.NewNullLogger()
	st := store.NewMemory()
	return New(st, NewBroker(), sc, log), st
}

func sampleSnapshot() model.Snapshot {
	arr := int64(1100)
	return model.Snapshot{
		Name:         "sample",
		DistanceType: "air",
		Score:        "0hard/-4000soft",
		Soft:         -4000,
		Feasible:     true,
		Routes: []model.RouteView{{
			VehicleID: 1,
			Capacity:  4,
			Demand:    2,
			Depot:     model.Point{Lat: 0, Lon: 0},
			Distance:  4000,
			Stops: []model.StopView{
				{CustomerID: 1, Position: 0, Location: model.Point{Lat: 0, Lon: 1}, Demand: 1, Arrival: &arr, LegDistance: 1000},
				{CustomerID: 2, Position: 1, Location: model.Point{Lat: 0, Lon: 2}, Demand: 1, LegDistance: 1000},
			},
		}, {VehicleID: 2, Capacity: 4}},
		Unassigned: []int64{3},
		TakenAt:    time.Unix(0, 0).UTC(),
	}
}

func TestHealthReady(t *testing.T) {
	s, _ := newTestServer(t, config.Server{})
	h := s.Handler()
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: got %d", path, rr.Code)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s, _ := newTestServer(t, config.Server{})
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("empty snapshot: got %d", rr.Code)
	}

	s.SetSnapshot(sampleSnapshot())
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("snapshot: got %d", rr.Code)
	}
	var got model.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Soft != -4000 || len(got.Routes) != 2 || got.Routes[0].Stops[0].Arrival == nil {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestRoutesGeoJSON(t *testing.T) {
	s, _ := newTestServer(t, config.Server{})
	s.SetSnapshot(sampleSnapshot())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/routes.geojson", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("geojson: got %d", rr.Code)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Fatalf("type = %q", fc.Type)
	}
	// one line for the non-empty route plus one point per stop
	if len(fc.Features) != 3 {
		t.Fatalf("features = %d, want 3", len(fc.Features))
	}
	line := fc.Features[0]
	if line.Geometry.Type != "LineString" {
		t.Fatalf("first feature = %s", line.Geometry.Type)
	}
	var coords [][]float64
	if err := json.Unmarshal(line.Geometry.Coordinates, &coords); err != nil {
		t.Fatalf("coords: %v", err)
	}
	if len(coords) != 4 || coords[1][0] != 1 || coords[3][0] != 0 {
		t.Fatalf("line coords = %v", coords)
	}
	if fc.Features[1].Geometry.Type != "Point" || fc.Features[1].Properties["kind"] != "stop" {
		t.Fatalf("stop feature = %+v", fc.Features[1])
	}
}

func TestRunsListAndGet(t *testing.T) {
	s, st := newTestServer(t, config.Server{})
	h := s.Handler()
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.SaveRun(ctx, model.Run{Name: "r", Seed: int64(i)})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, run.ID)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=2", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: got %d", rr.Code)
	}
	var page struct {
		Items      []model.Run `json:"items"`
		NextCursor string      `json:"nextCursor"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != ids[2] || page.NextCursor != ids[1] {
		t.Fatalf("page = %+v", page)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=x", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/"+ids[0], nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d", rr.Code)
	}
	var run model.Run
	_ = json.Unmarshal(rr.Body.Bytes(), &run)
	if run.ID != ids[0] || run.Seed != 0 {
		t.Fatalf("run = %+v", run)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing: got %d", rr.Code)
	}
	var p Problem
	_ = json.Unmarshal(rr.Body.Bytes(), &p)
	if p.Status != http.StatusNotFound {
		t.Fatalf("problem = %+v", p)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, config.Server{})
	h := s.Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatal("http request counter not exported")
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, config.Server{RPS: 1, Burst: 1})
	h := s.Handler()
	s.SetSnapshot(sampleSnapshot())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("first: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d", rr.Code)
	}
	// health checks are never limited
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d", rr.Code)
	}
}

func TestDebugInfo(t *testing.T) {
	s, _ := newTestServer(t, config.Server{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/debug/info", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("debug: got %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `"build"`) {
		t.Fatalf("body = %s", body)
	}
}

func TestEventsWebSocket(t *testing.T) {
	s, _ := newTestServer(t, config.Server{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "connection_ack" {
		t.Fatalf("ack: %+v %v", msg, err)
	}
	if err := conn.WriteJSON(wsMessage{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "pong" {
		t.Fatalf("pong: %+v %v", msg, err)
	}

	sub := wsMessage{Type: "subscribe", ID: "1", Payload: json.RawMessage(`{"runId":"run-1","types":["run.completed"]}`)}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// the subscription is registered asynchronously; publish until it lands
	deadline := time.Now().Add(3 * time.Second)
	got := make(chan wsMessage, 1)
	go func() {
		var m wsMessage
		if err := conn.ReadJSON(&m); err == nil {
			got <- m
		}
	}()
	for {
		s.Publish(model.Event{Type: model.EventVerifyProgress, RunID: "run-1", Step: 1})
		s.Publish(model.Event{Type: model.EventRunCompleted, RunID: "run-1", Score: "0hard/-5soft", Soft: -5})
		select {
		case m := <-got:
			if m.Type != "next" || m.ID != "1" {
				t.Fatalf("message = %+v", m)
			}
			var payload struct {
				Data model.Event `json:"data"`
			}
			if err := json.Unmarshal(m.Payload, &payload); err != nil {
				t.Fatalf("payload: %v", err)
			}
			if payload.Data.Type != model.EventRunCompleted || payload.Data.Soft != -5 {
				t.Fatalf("event = %+v", payload.Data)
			}
			return
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no event received")
		}
	}
}
