package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

/* ---------------- status endpoint ---------------- */

// statusV1 is the JSON document served to status clients.
type statusV1 struct {
	Albums     []string `json:"albums"`
	LastAlbum  string   `json:"last_album"`
	Rotations  int      `json:"rotations"`
	QueueDepth int      `json:"queue_depth"`
	Suspended  bool     `json:"suspended"`
	Passive    bool     `json:"passive"`
}

// Snapshot returns the engine state for the status endpoint.
func (m *Monitor) Snapshot() statusV1 {
	m.mu.Lock()
	st := statusV1{
		Albums:    append([]string(nil), m.dir.AlbumNames()...),
		LastAlbum: m.lastAlbum,
		Rotations: m.rotations,
	}
	m.mu.Unlock()
	st.QueueDepth = m.queue.Depth()
	st.Suspended = m.gate.Suspended()
	st.Passive = m.passive
	return st
}

// startStatusServer serves engine state over a websocket at /ws. Clients
// send the text "status" and get one JSON document back per request; the
// connection stays open for further requests.
func startStatusServer(port int, m *Monitor) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		statusHandler(w, r, m)
	})
	go func() {
		addr := fmt.Sprintf(":%d", port)
		logrus.Infof("status: listening on %s (/ws)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.Errorf("status: server failed: %v", err)
		}
	}()
} // func startStatusServer

func statusHandler(w http.ResponseWriter, r *http.Request, m *Monitor) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin
	})
	if err != nil {
		logrus.Errorf("status: ws accept failed: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for {
		_, msg, err := conn.Read(r.Context())
		if err != nil {
			logrus.Debugf("status: ws read error: %v", err)
			return
		}

		var out []byte
		switch string(msg) {
		case "status":
			out, err = json.Marshal(m.Snapshot())
			if err != nil {
				out = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
			}
		default:
			out = []byte(`{"error":"unknown command"}`)
		}
		if err := conn.Write(r.Context(), websocket.MessageText, out); err != nil {
			logrus.Debugf("status: ws write error: %v", err)
			return
		}
	}
} // func statusHandler
