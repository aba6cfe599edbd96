package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/esg-assistant/internal/assistant"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "ask" or "clear"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string             `json:"type"` // "session", "fragment", "answer", "cleared" or "error"
	SessionID string             `json:"session_id"`
	Content   string             `json:"content,omitempty"`
	HTML      string             `json:"html,omitempty"`
	Sources   []assistant.Source `json:"sources,omitempty"`
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.sendError(conn, "", "invalid message format")
			continue
		}

		sess := d.session(conn, req.SessionID)
		if sess == nil {
			continue
		}

		switch req.Type {
		case "ask":
			d.handleAskMessage(conn, r, sess, req)
		case "clear":
			sess.Clear()
			d.send(conn, chatResponse{Type: "cleared", SessionID: sess.ID, Content: d.svc.Greeting()})
		default:
			d.sendError(conn, sess.ID, "unknown message type: "+req.Type)
		}
	}
}

// session returns the named session, or a new one announced to the client
// when id is empty.
func (d *Dashboard) session(conn *websocket.Conn, id string) *assistant.Session {
	if id == "" {
		sess := d.sessions.Create()
		d.send(conn, chatResponse{Type: "session", SessionID: sess.ID, Content: d.svc.Greeting()})
		return sess
	}
	sess, ok := d.sessions.Get(id)
	if !ok {
		d.sendError(conn, id, "session not found")
		return nil
	}
	return sess
}

func (d *Dashboard) handleAskMessage(conn *websocket.Conn, r *http.Request, sess *assistant.Session, req chatRequest) {
	ans, err := sess.Ask(r.Context(), req.Content, func(frag string) {
		d.send(conn, chatResponse{Type: "fragment", SessionID: sess.ID, Content: frag})
	})
	if err != nil {
		d.sendError(conn, sess.ID, assistant.UserMessage(err))
		return
	}

	resp := d.toAnswerResponse(ans)
	d.send(conn, chatResponse{
		Type:      "answer",
		SessionID: sess.ID,
		Content:   resp.Answer,
		HTML:      resp.HTML,
		Sources:   resp.Sources,
	})
}

func (d *Dashboard) send(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		d.logger.Warn("websocket write", zap.Error(err))
	}
}

func (d *Dashboard) sendError(conn *websocket.Conn, sessionID, message string) {
	d.send(conn, chatResponse{Type: "error", SessionID: sessionID, Content: message})
}
