package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"verdant/internal/pkg/bootstrap"
	"verdant/internal/pkg/logger"
	"verdant/internal/pkg/mq"
	"verdant/internal/service/order/infrastructure"
)

const (
	serviceName = "push-gateway"
	servicePort = 8086

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The mobile app connects from arbitrary origins; auth happens upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub routes order events to the websocket connection of the customer they
// belong to.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if old, ok := h.clients[client.customerID]; ok {
				close(old.send)
			}
			h.clients[client.customerID] = client
			h.lock.Unlock()
			logger.Logger().Info().Str("customer_id", client.customerID).Msg("push client connected")
		case client := <-h.unregister:
			h.lock.Lock()
			if current, ok := h.clients[client.customerID]; ok && current == client {
				delete(h.clients, client.customerID)
				close(client.send)
			}
			h.lock.Unlock()
			logger.Logger().Info().Str("customer_id", client.customerID).Msg("push client disconnected")
		}
	}
}

// deliver hands a payload to the customer's connection if one is attached to
// this node; events for offline customers are dropped, the order list is the
// source of truth on reconnect.
func (h *Hub) deliver(customerID string, payload []byte) {
	h.lock.RLock()
	client, ok := h.clients[customerID]
	h.lock.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		// Slow consumer; drop rather than block the consumer loop.
	}
}

// Client is one websocket connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	customerID string
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get("X-Customer-Id")
	if customerID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger().Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), customerID: customerID}
	hub.register <- client
	go client.writePump()
	go client.readPump()
}

// consumeOrderEvents pipes the order events topic into the hub.
func consumeOrderEvents(hub *Hub) {
	cfg := bootstrap.GetCurrentConfig()
	reader := mq.NewReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topic, serviceName)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			logger.Logger().Error().Err(err).Msg("kafka read failed, retrying")
			time.Sleep(time.Second)
			continue
		}
		ctx := mq.ExtractTraceContext(context.Background(), &msg)

		var event infrastructure.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("dropping malformed order event")
			continue
		}
		hub.deliver(event.CustomerID, msg.Value)
		logger.Ctx(ctx).Debug().
			Str("order_id", event.OrderID).
			Str("type", event.Type).
			Msg("order event delivered")
	}
}

func main() {
	hub := newHub()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			go hub.run()
			go consumeOrderEvents(hub)
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, w, r)
			})
		},
	})
}
