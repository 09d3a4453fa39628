package app

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/gx3_bridge/internal/config"
	"github.com/relabs-tech/gx3_bridge/internal/imu"
	"github.com/relabs-tech/gx3_bridge/internal/publish"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// clientQueue is how many messages a slow websocket client may lag behind
// before messages are dropped for it.
const clientQueue = 16

// liveView keeps the latest IMU and magnetic payloads and fans IMU payloads
// out to websocket clients.
type liveView struct {
	mu      sync.RWMutex
	imu     []byte
	mag     []byte
	clients map[chan []byte]struct{}
}

func newLiveView() *liveView {
	return &liveView{clients: make(map[chan []byte]struct{})}
}

func (v *liveView) setIMU(payload []byte) {
	p := bytes.Clone(payload)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.imu = p
	for ch := range v.clients {
		select {
		case ch <- p:
		default:
		}
	}
}

func (v *liveView) setMag(payload []byte) {
	p := bytes.Clone(payload)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.mag = p
}

func (v *liveView) latestIMU() []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.imu
}

func (v *liveView) latestMag() []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mag
}

func (v *liveView) join() chan []byte {
	ch := make(chan []byte, clientQueue)
	v.mu.Lock()
	v.clients[ch] = struct{}{}
	v.mu.Unlock()
	return ch
}

func (v *liveView) leave(ch chan []byte) {
	v.mu.Lock()
	delete(v.clients, ch)
	v.mu.Unlock()
}

func (v *liveView) clientCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.clients)
}

func (v *liveView) router(staticDir string) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/imu", handleLatest(v.latestIMU)).Methods("GET")
	api.HandleFunc("/magnetic", handleLatest(v.latestMag)).Methods("GET")
	r.HandleFunc("/ws", v.handleWS)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	return r
}

func handleLatest(latest func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := latest()
		if payload == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(payload); err != nil {
			log.Printf("web: write error: %v", err)
		}
	}
}

// handleWS streams every IMU message to the client until it goes away.
func (v *liveView) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := v.join()
	defer v.leave(ch)

	// The reader only notices the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case p := <-ch:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, p); err != nil {
				log.Debugf("web: websocket write error: %v", err)
				return
			}
		case <-gone:
			return
		}
	}
}

func RunWeb() error {
	cfg := config.Get()
	view := newLiveView()

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeLiveView(client, cfg, view); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: handlers.LoggingHandler(os.Stdout, view.router("web")),
	}
	log.Printf("web server listening on %s", addr)
	return srv.ListenAndServe()
}

func subscribeLiveView(client Subscriber, cfg *config.Config, view *liveView) error {
	if err := subscribeJSON(client, "web", cfg.TopicIMU, cfg.MQTTQoS, func(_ imu.IMUMessage, raw []byte) {
		view.setIMU(raw)
	}); err != nil {
		return err
	}
	return subscribeJSON(client, "web", cfg.TopicMag, cfg.MQTTQoS, func(_ imu.MagneticFieldMessage, raw []byte) {
		view.setMag(raw)
	})
}
