package ws

import "encoding/json"

// Upstream event types.
const (
	EventPointer = "pointer"
	EventResize  = "resize"
	EventAdjust  = "adjust"
	EventToggle  = "toggle"
	EventPing    = "ping"
)

// Downstream message types.
const (
	MessageConnected = "connected"
	MessageAck       = "ack"
	MessagePong      = "pong"
	MessageState     = "state"
	MessageNotice    = "notice"
)

// Event is a message from a dashboard page: pointer movement over a chart
// panel, a container resize, or a legend toggle.
type Event struct {
	Type   string  `json:"type"`
	Panel  string  `json:"panel,omitempty"`
	Time   string  `json:"time,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Series string  `json:"series,omitempty"`
	AckID  *uint64 `json:"ack_id,omitempty"`
}

// Message is sent to dashboard pages.
type Message struct {
	Type      string  `json:"type"`
	Dashboard string  `json:"dashboard,omitempty"`
	ConnID    string  `json:"conn_id,omitempty"`
	AckID     *uint64 `json:"ack_id,omitempty"`
	Success   *bool   `json:"success,omitempty"`
	Notice    string  `json:"notice,omitempty"`
	Data      any     `json:"data,omitempty"`
}

func parseEvent(data []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(data, &ev)
	return ev, err
}

func encode(msg Message) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		b, _ = json.Marshal(Message{Type: MessageNotice, Notice: err.Error()})
	}
	return b
}

func connectedMessage(dashboard, connID string) []byte {
	return encode(Message{Type: MessageConnected, Dashboard: dashboard, ConnID: connID})
}

func ackMessage(ackID uint64, success bool) []byte {
	return encode(Message{Type: MessageAck, AckID: &ackID, Success: &success})
}

func pongMessage() []byte {
	return encode(Message{Type: MessagePong})
}

func noticeMessage(text string) []byte {
	return encode(Message{Type: MessageNotice, Notice: text})
}

func stateMessage(dashboard string, state any) []byte {
	return encode(Message{Type: MessageState, Dashboard: dashboard, Data: state})
}
