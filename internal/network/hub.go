// Package network раздаёт снимки мира по WebSocket и принимает ввод клиентов.
package network

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/frozen-forest/internal/input"
	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Format кодирование снимков для клиента
type Format string

const (
	FormatJSON  Format = "json"
	FormatProto Format = "proto" // бинарные кадры protowire
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // клиент обычно открыт с другого порта
	},
}

// Source источник снимков и приёмник ввода (game.Runner)
type Source interface {
	Submit(f input.Frame)
	Snapshot() *protocol.Snapshot
}

type outbound struct {
	kind int
	data []byte
}

// Client подключенный клиент
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan outbound
	format Format
}

// ID идентификатор соединения
func (c *Client) ID() string { return c.id }

// Hub держит клиентов и рассылает им снимки
type Hub struct {
	source Source

	mu      sync.Mutex
	clients map[string]*Client

	received atomic.Uint64
	dropped  atomic.Uint64
	logger   *logging.Logger
}

// NewHub создаёт хаб поверх источника
func NewHub(source Source) *Hub {
	return &Hub{
		source:  source,
		clients: make(map[string]*Client),
		logger:  logging.GetNetworkLogger(),
	}
}

// Clients число подключенных клиентов
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// InputsReceived сколько кадров ввода принято от клиентов
func (h *Hub) InputsReceived() uint64 { return h.received.Load() }

// Dropped сколько клиентов отключено за переполнение очереди
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// HandleConnection апгрейдит HTTP запрос до WebSocket
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	format := FormatJSON
	if Format(r.URL.Query().Get("format")) == FormatProto {
		format = FormatProto
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("⚠️ Ошибка апгрейда соединения: %v", err)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan outbound, sendBuffer),
		format: format,
	}
	h.register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) register(c *Client) {
	// Сначала текущий снимок, чтобы клиенту было что рисовать
	if snap := h.source.Snapshot(); snap != nil {
		if out, err := encodeSnapshot(snap, c.format); err == nil {
			c.send <- out
		}
	}

	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("🔌 Клиент %s подключен (%s), всего %d", c.id, c.format, n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.logger.Info("🔌 Клиент %s отключен", c.id)
	}
}

// Broadcast рассылает снимок всем клиентам. Подписывается на Runner.OnSnapshot.
func (h *Hub) Broadcast(snap *protocol.Snapshot) {
	var encoded map[Format]outbound

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		if encoded == nil {
			encoded = make(map[Format]outbound, 2)
		}
		out, ok := encoded[c.format]
		if !ok {
			var err error
			out, err = encodeSnapshot(snap, c.format)
			if err != nil {
				h.logger.Error("❌ Не удалось закодировать снимок: %v", err)
				return
			}
			encoded[c.format] = out
		}

		select {
		case c.send <- out:
		default:
			// Клиент не успевает читать
			delete(h.clients, id)
			close(c.send)
			h.dropped.Add(1)
			h.logger.Warn("🐢 Клиент %s отключен: очередь переполнена", id)
		}
	}
}

// Close отключает всех клиентов
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

func encodeSnapshot(snap *protocol.Snapshot, format Format) (outbound, error) {
	if format == FormatProto {
		return outbound{kind: websocket.BinaryMessage, data: protocol.Marshal(snap)}, nil
	}
	data, err := encodeMessage(MsgTypeSnapshot, snap)
	if err != nil {
		return outbound{}, err
	}
	return outbound{kind: websocket.TextMessage, data: data}, nil
}

// reply отправляет ответ одному клиенту, не блокируясь
func (h *Hub) reply(c *Client, msgType MessageType, payload interface{}) {
	data, err := encodeMessage(msgType, payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- outbound{kind: websocket.TextMessage, data: data}:
	default:
	}
}

// readPump читает ввод клиента
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("⚠️ Ошибка чтения от %s: %v", c.id, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(c, MsgTypeError, ErrorMessage{Content: "malformed message"})
			continue
		}
		h.handle(c, &msg)
	}
}

func (h *Hub) handle(c *Client, msg *Message) {
	switch msg.Type {
	case MsgTypeInput:
		var f input.Frame
		if err := msg.Decode(&f); err != nil {
			h.reply(c, MsgTypeError, ErrorMessage{Content: "malformed input"})
			return
		}
		h.source.Submit(f)
		h.received.Add(1)
	case MsgTypePing:
		h.reply(c, MsgTypePong, nil)
	default:
		h.logger.Debug("Неизвестный тип сообщения %q от %s", msg.Type, c.id)
		h.reply(c, MsgTypeError, ErrorMessage{Content: "unknown message type"})
	}
}

// writePump отправляет очередь клиента и пинги
func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case out, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(out.kind)
			if err != nil {
				return
			}
			w.Write(out.data)
			if err := w.Close(); err != nil {
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
