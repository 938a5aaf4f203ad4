package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// ChangeEvent mirrors a row mutation on one of the watched tables. Dashboards
// use it to refresh their views; nothing in the booking workflow depends on
// delivery.
type ChangeEvent struct {
	Table    string `json:"table"`
	Action   string `json:"action"`
	RecordID string `json:"record_id"`

	// Empty means fan out to every connected client.
	recipients []uuid.UUID
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var changes = make(chan *ChangeEvent, 256)

// PublishChange queues a table-change event for connected clients. Drops the
// event rather than blocking a request when the hub is backed up.
func PublishChange(table, action string, recordID uuid.UUID, recipients ...uuid.UUID) {
	ev := &ChangeEvent{Table: table, Action: action, RecordID: recordID.String(), recipients: recipients}
	select {
	case changes <- ev:
	default:
		log.Printf("Change feed backlog full, dropping %s %s event", action, table)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Change feed client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Change feed client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case ev := <-changes:
			deliver(ev)
		}
	}
}

func deliver(ev *ChangeEvent) {
	clientsMu.RLock()
	targets := make(map[uuid.UUID]*websocket.Conn)
	if len(ev.recipients) == 0 {
		for id, conn := range clients {
			targets[id] = conn
		}
	} else {
		for _, id := range ev.recipients {
			if conn, ok := clients[id]; ok {
				targets[id] = conn
			}
		}
	}
	clientsMu.RUnlock()

	var failed []uuid.UUID
	for id, conn := range targets {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("Error pushing change event to client %s: %v", id, err)
			conn.Close()
			failed = append(failed, id)
		}
	}
	if len(failed) > 0 {
		clientsMu.Lock()
		for _, id := range failed {
			delete(clients, id)
		}
		clientsMu.Unlock()
	}
}
