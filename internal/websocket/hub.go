// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
	"github.com/plurapi/switchboard/internal/models"
)

// Message types for WebSocket communication.
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeSyncProgress = "sync_progress"
	MessageTypeFrontUpdate  = "front_update"
	MessageTypeNotification = "notification"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// targeted pairs a message with the user it is addressed to. An empty
// uid broadcasts to every connection.
type targeted struct {
	uid string
	msg Message
}

// Hub maintains the set of active clients, routes per-user messages,
// and broadcasts. Connections are authenticated before registration, so
// every client carries its user id.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	outbound   chan targeted
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		outbound:   make(chan targeted, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
	}
}

// Serve runs the hub until ctx is canceled; it satisfies the suture
// service interface. Lifecycle events are drained before outbound
// messages so client state is consistent when a message is routed.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.add(client)

		case client := <-h.Unregister:
			h.remove(client)

		case t := <-h.outbound:
			h.deliver(t)
		}
	}
}

func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	perUser := h.byUser[client.uid]
	if perUser == nil {
		perUser = make(map[*Client]bool)
		h.byUser[client.uid] = perUser
	}
	perUser[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Str("uid", client.uid).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		h.dropLocked(client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Str("uid", client.uid).Int("total_clients", total).Msg("websocket client disconnected")
}

// dropLocked removes a client from both indexes. Caller holds h.mu.
func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	if perUser := h.byUser[client.uid]; perUser != nil {
		delete(perUser, client)
		if len(perUser) == 0 {
			delete(h.byUser, client.uid)
		}
	}
	close(client.send)
}

// deliver routes a message to its targets in client-id order. A client
// whose send buffer is full is dropped; its read pump notices the
// closed channel and tears the connection down.
func (h *Hub) deliver(t targeted) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	if t.uid == "" {
		targets = make([]*Client, 0, len(h.clients))
		for client := range h.clients {
			targets = append(targets, client)
		}
	} else {
		for client := range h.byUser[t.uid] {
			targets = append(targets, client)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].id < targets[j].id
	})

	var toRemove []*Client
	for _, client := range targets {
		select {
		case client.send <- t.msg:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		h.dropLocked(client)
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		h.dropLocked(client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("reason", ctx.Err()).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// enqueue hands a message to the hub loop without blocking the caller.
func (h *Hub) enqueue(uid string, msg Message) {
	select {
	case h.outbound <- targeted{uid: uid, msg: msg}:
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("outbound channel full, dropping websocket message")
	}
}

// SendToUser delivers a message to every connection of one user.
func (h *Hub) SendToUser(uid, messageType string, data interface{}) {
	h.enqueue(uid, Message{Type: messageType, Data: data})
}

// Broadcast delivers a message to every connected client.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.enqueue("", Message{Type: messageType, Data: data})
}

// SyncProgress pushes bulk member-sync progress to the user's
// connections. It implements the sync engine's progress reporter.
func (h *Hub) SyncProgress(uid string, p models.SyncProgress) {
	h.SendToUser(uid, MessageTypeSyncProgress, p)
}

// NotificationData is the payload of a notification message.
type NotificationData struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notify delivers a notification over the user's connections. It
// implements notify.Notifier; a user with no open connection simply
// misses the message.
func (h *Hub) Notify(_ context.Context, uid, title, message string) error {
	h.SendToUser(uid, MessageTypeNotification, NotificationData{Title: title, Message: message})
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserClientCount returns the number of connections one user holds.
func (h *Hub) UserClientCount(uid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[uid])
}
