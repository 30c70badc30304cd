// Package main is a demo client that streams score events from a running
// vrpsim and then prints the published snapshot score.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	var (
		host  = flag.String("host", "", "vrpsim host:port (defaults to localhost:$PORT)")
		runID = flag.String("run", "", "only stream events of this run")
		wait  = flag.Duration("wait", 10*time.Second, "how long to listen")
	)
	flag.Parse()
	log := logrus.New()

	if *host == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		*host = "localhost:" + port
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/v1/events/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer func() { _ = c.Close() }()

	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	pl, _ := json.Marshal(map[string]any{"runId": *runID})
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.WithError(err).Info("stream closed")
				return
			}
			switch m.Type {
			case "ping":
				_ = c.WriteJSON(wsMessage{Type: "pong"})
			case "next":
				var body struct {
					Data struct {
						Type  string `json:"type"`
						Score string `json:"score"`
						Step  int    `json:"step"`
					} `json:"data"`
				}
				_ = json.Unmarshal(m.Payload, &body)
				log.WithFields(logrus.Fields{"type": body.Data.Type, "step": body.Data.Step}).Info(body.Data.Score)
			default:
				log.Debugf("ws <- %s %s", m.Type, m.Payload)
			}
		}
	}()

	select {
	case <-time.After(*wait):
	case <-done:
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/v1/snapshot", *host))
	if err != nil {
		log.WithError(err).Fatal("snapshot")
	}
	defer func() { _ = resp.Body.Close() }()
	var snap struct {
		Score    string `json:"score"`
		Feasible bool   `json:"feasible"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		log.WithError(err).Fatal("decode snapshot")
	}
	log.WithField("feasible", snap.Feasible).Infof("snapshot score %s", snap.Score)
}
