package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/cart"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/catalog"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/stream"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// handleWebSocket upgrades a connection and streams live catalog and
// cart state. The current snapshots are sent first so a client never
// starts from a blank state.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	client := &stream.Client{
		ID:   uuid.New().String(),
		Conn: c,
	}

	m.sendSnapshot(c)
	m.hub.Register(client)

	defer func() {
		m.hub.Unregister(client)
		_ = c.Close()
	}()

	// Block reading until the client disconnects. Inbound messages are
	// ignored; all mutations go through the REST routes.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[api] WebSocket error for client %s: %v", client.ID, err)
			}
			break
		}
	}
}

func (m *Module) sendSnapshot(c *websocket.Conn) {
	ctx := context.Background()

	var catalogResp catalog.StateResponse
	if err := helper.CallRequestReplyService(
		ctx, m.catalogContainer, "state",
		json.Marshal, json.Unmarshal,
		&catalog.StateRequest{}, &catalogResp,
	); err == nil {
		m.writeUpdate(c, stream.UpdateCatalog, catalogResp)
	} else {
		log.Printf("[api] Failed to fetch catalog snapshot: %v", err)
	}

	var cartResp cart.GetCartResponse
	if err := helper.CallRequestReplyService(
		ctx, m.cartContainer, "get",
		json.Marshal, json.Unmarshal,
		&cart.GetCartRequest{}, &cartResp,
	); err == nil {
		m.writeUpdate(c, stream.UpdateCart, cartResp)
	} else {
		log.Printf("[api] Failed to fetch cart snapshot: %v", err)
	}
}

func (m *Module) writeUpdate(c *websocket.Conn, updateType string, data any) {
	payload, err := json.Marshal(stream.Update{Type: updateType, Data: data})
	if err != nil {
		log.Printf("[api] Failed to marshal snapshot: %v", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("[api] Failed to send snapshot: %v", err)
	}
}
