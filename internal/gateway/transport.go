package gateway

import (
	"encoding/json"

	"anitrack-bot/internal/transport"
)

// frame is the outbound stream envelope. Op selects the client-side handler.
type frame struct {
	Op        string          `json:"op"`
	SurfaceId string          `json:"surface_id,omitempty"`
	UserId    string          `json:"user_id,omitempty"`
	View      *transport.View `json:"view,omitempty"`
	Ids       []string        `json:"ids,omitempty"`
}

// StreamTransport delivers core output over the websocket hub. Surface ops
// broadcast (every client mirrors the shared surfaces); ephemerals are
// per-user.
type StreamTransport struct {
	hub *Hub
}

func NewStreamTransport(hub *Hub) *StreamTransport {
	return &StreamTransport{hub: hub}
}

var _ transport.Transport = (*StreamTransport)(nil)

func (t *StreamTransport) Render(surfaceId string, view transport.View) error {
	return t.broadcast(frame{Op: "render", SurfaceId: surfaceId, View: &view})
}

func (t *StreamTransport) AddAffordances(surfaceId string, ids []string) error {
	return t.broadcast(frame{Op: "affordances", SurfaceId: surfaceId, Ids: ids})
}

func (t *StreamTransport) RemoveAffordances(surfaceId string) error {
	return t.broadcast(frame{Op: "remove_affordances", SurfaceId: surfaceId})
}

func (t *StreamTransport) SendEphemeral(userId string, view transport.View) error {
	data, err := json.Marshal(frame{Op: "ephemeral", UserId: userId, View: &view})
	if err != nil {
		return err
	}
	t.hub.SendToUser(userId, data)
	return nil
}

func (t *StreamTransport) broadcast(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	t.hub.Broadcast(data)
	return nil
}
