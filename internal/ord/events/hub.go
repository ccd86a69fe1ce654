// Package events implements the two event channels the core writes to:
// a process-wide diagnostic log for dropped records, and one named
// queue per registered metaprotocol for inscription lifecycle events.
// A buffered websocket broadcast hub (write-deadline client eviction)
// sits alongside both so either channel can additionally fan out to
// connected observers without blocking the indexer.
package events

import (
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rawblock/ord-engine/internal/ord/objectid"
	"github.com/rawblock/ord-engine/internal/ord/record"
)

// EventType distinguishes inscription lifecycle events.
type EventType int

const (
	EventNew  EventType = 0
	EventBurn EventType = 1
)

// InscriptionEvent is emitted onto the named queue for an inscription's
// declared metaprotocol whenever it is created (EventNew) or burned
// (EventBurn). Spec §6, §4.9, §4.6.
type InscriptionEvent struct {
	Metaprotocol     string    `json:"metaprotocol"`
	SequenceNumber   uint32    `json:"sequenceNumber"`
	InscriptionObjID objectid.ObjectID `json:"inscriptionObjId"`
	EventType        EventType `json:"eventType"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub is the process-wide event sink: a diagnostic log for dropped
// records plus one buffered queue per metaprotocol name, each of which
// can additionally broadcast to subscribed websocket observers.
type Hub struct {
	mu     sync.Mutex
	queues map[string]chan InscriptionEvent

	invalidMu  sync.Mutex
	invalidLog []record.InvalidEvent

	clients   map[*websocket.Conn]bool
	broadcast chan []byte
}

// NewHub constructs an empty event hub.
func NewHub() *Hub {
	return &Hub{
		queues:    make(map[string]chan InscriptionEvent),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Run drains the websocket broadcast channel, fanning messages out to
// every connected observer. It never returns; callers launch it as a
// goroutine at startup.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mu.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[events] websocket write error: %v", err)
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}
}

// Subscribe upgrades an HTTP request to a websocket connection that
// receives every InscriptionEvent and InvalidInscriptionEvent broadcast
// thereafter.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] failed to upgrade websocket: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

// queueFor returns (creating if needed) the named queue for a
// metaprotocol. Callers hold h.mu.
func (h *Hub) queueFor(metaprotocol string) chan InscriptionEvent {
	q, ok := h.queues[metaprotocol]
	if !ok {
		q = make(chan InscriptionEvent, 256)
		h.queues[metaprotocol] = q
	}
	return q
}

// Queue returns the named inscription-event queue for a metaprotocol,
// creating it on first use.
func (h *Hub) Queue(metaprotocol string) <-chan InscriptionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queueFor(metaprotocol)
}

// EmitInscriptionEvent pushes ev onto its metaprotocol's named queue and
// broadcasts it to websocket observers. A non-blocking send is used so a
// slow or absent consumer never stalls the single-threaded indexer; an
// event dropped from the named queue under backpressure is logged, while
// a broadcast dropped because the websocket channel is full is not.
func (h *Hub) EmitInscriptionEvent(ev InscriptionEvent) {
	if ev.Metaprotocol == "" {
		return
	}
	h.mu.Lock()
	q := h.queueFor(ev.Metaprotocol)
	h.mu.Unlock()

	select {
	case q <- ev:
	default:
		log.Printf("[events] metaprotocol queue %q full, dropping event seq=%d", ev.Metaprotocol, ev.SequenceNumber)
	}

	if b, err := json.Marshal(ev); err == nil {
		select {
		case h.broadcast <- b:
		default:
		}
	}
}

// EmitInvalid appends an InvalidInscriptionEvent to the process-wide
// diagnostic log and broadcasts it to websocket observers.
func (h *Hub) EmitInvalid(ev record.InvalidEvent) {
	h.invalidMu.Lock()
	h.invalidLog = append(h.invalidLog, ev)
	h.invalidMu.Unlock()

	type wireInvalidEvent struct {
		Txid       string   `json:"txid"`
		InputIndex int      `json:"inputIndex"`
		Parents    []string `json:"parents,omitempty"`
	}
	parents := make([]string, 0, len(ev.Record.Parents))
	for _, p := range ev.Record.Parents {
		parents = append(parents, p.String())
	}
	if b, err := json.Marshal(wireInvalidEvent{Txid: hex.EncodeToString(ev.Txid[:]), InputIndex: ev.InputIndex, Parents: parents}); err == nil {
		select {
		case h.broadcast <- b:
		default:
		}
	}
}

// InvalidEvents returns a snapshot of the process-wide diagnostic log.
func (h *Hub) InvalidEvents() []record.InvalidEvent {
	h.invalidMu.Lock()
	defer h.invalidMu.Unlock()
	out := make([]record.InvalidEvent, len(h.invalidLog))
	copy(out, h.invalidLog)
	return out
}
