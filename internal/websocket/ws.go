// Package websocket streams transaction events to browser clients.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/USA-RedDragon/contract-relay/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

const bufferSize = 1024

// Hub fans published payloads out to every connected client. It is an
// events.Sink.
type Hub struct {
	clients   *xsync.MapOf[string, chan []byte]
	connected *xsync.Counter
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:   xsync.NewMapOf[string, chan []byte](),
		connected: xsync.NewCounter(),
		done:      make(chan struct{}),
	}
}

func (h *Hub) Name() string {
	return "websocket"
}

// Publish never blocks. A client whose buffer is full misses the payload.
func (h *Hub) Publish(_ context.Context, payload []byte) error {
	h.clients.Range(func(id string, messages chan []byte) bool {
		select {
		case messages <- payload:
		default:
			slog.Warn("Websocket client is not keeping up, dropping event", "client", id)
		}
		return true
	})
	return nil
}

func (h *Hub) Connected() int64 {
	return h.connected.Value()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) subscribe() (string, chan []byte) {
	id := uuid.NewString()
	messages := make(chan []byte, bufferSize)
	h.clients.Store(id, messages)
	h.connected.Inc()
	return id, messages
}

func (h *Hub) unsubscribe(id string) {
	h.clients.Delete(id)
	h.connected.Dec()
}

// checkOrigin matches the Origin header exactly against the CORS hosts.
// Entries may be full origins (https://app.example.com) or bare hosts (app.example.com:8080).
func checkOrigin(config *config.Config) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(config.HTTP.CORSHosts) == 0 {
			return true
		}
		originURL, err := url.Parse(strings.ToLower(origin))
		if err != nil || originURL.Host == "" {
			return false
		}
		originHost := canonicalHost(originURL.Scheme, originURL.Host)
		for _, allowed := range config.HTTP.CORSHosts {
			allowed = strings.ToLower(allowed)
			if strings.Contains(allowed, "://") {
				allowedURL, err := url.Parse(allowed)
				if err != nil {
					continue
				}
				if allowedURL.Scheme == originURL.Scheme && canonicalHost(allowedURL.Scheme, allowedURL.Host) == originHost {
					return true
				}
				continue
			}
			if canonicalHost(originURL.Scheme, allowed) == originHost {
				return true
			}
		}
		return false
	}
}

// canonicalHost drops the scheme's default port.
func canonicalHost(scheme, host string) string {
	switch scheme {
	case "https", "wss":
		return strings.TrimSuffix(host, ":443")
	case "http", "ws":
		return strings.TrimSuffix(host, ":80")
	}
	return host
}

func CreateHandler(hub *Hub, config *config.Config) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:    bufferSize,
		WriteBufferSize:   bufferSize,
		CheckOrigin:       checkOrigin(config),
		EnableCompression: true,
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already answered the request
			slog.Warn("Failed to upgrade websocket", "error", err)
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		id, messages := hub.subscribe()
		defer hub.unsubscribe(id)

		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				t, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if t == websocket.TextMessage && strings.EqualFold(string(msg), "ping") {
					select {
					case messages <- []byte("PONG"):
					default:
					}
				}
			}
		}()

		for {
			select {
			case <-hub.done:
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			case <-readDone:
				return
			case msg := <-messages:
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}
	}
}
