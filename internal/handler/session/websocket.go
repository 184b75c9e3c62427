package session

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/livepaste/backend/internal/realtime"
	sessionService "github.com/livepaste/backend/internal/service/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleWebSocket runs the per-connection protocol loop: subscribe, read
// events until the peer goes away, then unsubscribe and drop the connection
// count. Cleanup is deferred so it runs exactly once on every exit path.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	passphrase := chi.URLParam(r, "passphrase")
	if passphrase == "" {
		http.Error(w, "passphrase is required", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}

	conn := realtime.NewConn(ws)
	h.hub.Subscribe(passphrase, conn)
	h.registry.ConnectionOpened(passphrase)
	log.Printf("[websocket] conn=%s subscribed to %s", conn.ID(), passphrase)

	defer func() {
		h.hub.Unsubscribe(passphrase, conn)
		h.registry.ConnectionClosed(passphrase)
		ws.Close()
		log.Printf("[websocket] conn=%s left %s", conn.ID(), passphrase)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		h.handleInbound(passphrase, conn, realtime.ParseInbound(data))
	}
}

// handleInbound dispatches one decoded client event. Failures degrade to
// echoing the original envelope; nothing here may kill the read loop.
func (h *Handler) handleInbound(passphrase string, conn *realtime.Conn, in realtime.Inbound) {
	switch in.Kind {
	case realtime.KindUpdate:
		if err := h.registry.UpdateContent(passphrase, in.Content); err != nil {
			if !errors.Is(err, sessionService.ErrSessionNotFound) {
				log.Printf("[websocket] update failed for %s: %v", passphrase, err)
			}
			return
		}
		h.persist()
		h.broadcastEvent(passphrase, realtime.UpdateEvent{Type: "update", Content: in.Content})

	case realtime.KindPing:
		// Pong goes to the sender only, never the group.
		if err := conn.Send([]byte(`{"type":"pong"}`)); err != nil {
			log.Printf("[websocket] pong failed for conn=%s: %v", conn.ID(), err)
		}

	case realtime.KindImage, realtime.KindFile:
		h.handleAttachment(passphrase, in)

	default:
		h.hub.Broadcast(passphrase, in.Envelope)
	}
}

// handleAttachment decodes an inline payload, stores the bytes and announces
// the new file. A payload that will not decode is echoed back unchanged.
func (h *Handler) handleAttachment(passphrase string, in realtime.Inbound) {
	blob, contentType, err := realtime.DecodeFilePayload(in.Data)
	if err != nil {
		h.hub.Broadcast(passphrase, in.Envelope)
		return
	}

	filename := in.Filename
	if filename == "" {
		if in.Kind == realtime.KindImage {
			filename = "pasted-image"
		} else {
			filename = "file"
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rec, err := h.storeAttachment(passphrase, filename, contentType, blob)
	if err != nil {
		log.Printf("[websocket] attachment store failed for %s: %v", passphrase, err)
		h.hub.Broadcast(passphrase, in.Envelope)
		return
	}

	h.broadcastEvent(passphrase, realtime.FileEvent{
		Type:        string(in.Kind),
		Filename:    rec.Filename,
		URL:         rec.URL,
		Size:        rec.Size,
		ContentType: rec.ContentType,
	})
}
