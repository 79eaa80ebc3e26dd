package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/impostor-party/server/internal/session"
	"github.com/impostor-party/server/internal/types"
)

// Handler upgrades the connection and bridges it to the coordinator: one
// reader loop feeding the inbox, one writer goroutine draining the outbox.
func Handler(coord *session.Coordinator, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, 16)

		coord.Inbox() <- session.Connect{ConnID: connID, Outbox: out}
		defer func() { coord.Inbox() <- session.Disconnect{ConnID: connID} }()

		// Writer goroutine. The coordinator closes the outbox to drop a slow
		// client; closing the conn then unblocks the reader below.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer conn.Close(websocket.StatusPolicyViolation, "slow consumer")
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Error("marshal server message", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 5*time.Second)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"game:error","error":"bad_json"}`))
				continue
			}
			if cm.Type == "" {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"game:error","error":"unknown_type"}`))
				continue
			}

			coord.Inbox() <- session.FromClient{ConnID: connID, Msg: cm}
		}
	}
}
