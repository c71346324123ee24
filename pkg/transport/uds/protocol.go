// Package uds implements the NDJSON protocol between pharosd and its
// clients over a Unix domain socket. Requests are correlated by ID;
// the server additionally pushes uncorrelated events (log entries,
// source additions, configuration changes) to every connected client.
package uds

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/pharos-sh/pharos/pkg/core"
)

var msgCounter atomic.Uint64

// MsgType identifies the kind of message.
type MsgType string

const (
	MsgTypeReq MsgType = "req"
	MsgTypeRes MsgType = "res"
	MsgTypeEvt MsgType = "evt"
)

// Message is the NDJSON envelope for all communication.
type Message struct {
	Type   MsgType         `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// UnmarshalData decodes the payload into v.
func (m Message) UnmarshalData(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message %s has no data", m.Method)
	}
	return json.Unmarshal(m.Data, v)
}

func encode(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewRequest creates a request message with a unique ID.
func NewRequest(method string, data any) (Message, error) {
	raw, err := encode(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:   MsgTypeReq,
		ID:     fmt.Sprintf("req-%d", msgCounter.Add(1)),
		Method: method,
		Data:   raw,
	}, nil
}

// NewResponse creates a response to a request.
func NewResponse(reqID, method string, data any) (Message, error) {
	raw, err := encode(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: MsgTypeRes, ID: reqID, Method: method, Data: raw}, nil
}

// NewErrorResponse creates an error response.
func NewErrorResponse(reqID, method, errMsg string) Message {
	return Message{Type: MsgTypeRes, ID: reqID, Method: method, Error: errMsg}
}

// NewEvent creates a server-pushed event.
func NewEvent(method string, data any) (Message, error) {
	raw, err := encode(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:   MsgTypeEvt,
		ID:     fmt.Sprintf("evt-%d", msgCounter.Add(1)),
		Method: method,
		Data:   raw,
	}, nil
}

// Methods
const (
	MethodPing        = "Ping"
	MethodListSources = "ListSources"
	MethodTail        = "Tail"
	MethodGetConfig   = "GetConfig"

	EventSourceAdded   = "source.added"
	EventLogEntry      = "log.entry"
	EventConfigChanged = "config.changed"
)

// PingResponse is the response to a Ping request.
type PingResponse struct {
	Pong bool `json:"pong"`
}

// SourceInfo describes one known source.
type SourceInfo struct {
	ID     string `json:"id"`
	Length int    `json:"length"`
}

// TailRequest asks for a replay of buffered entries for one source.
type TailRequest struct {
	Source string `json:"source"`
	Max    int    `json:"max,omitempty"` // 0 means everything buffered
}

// TailResponse carries the replayed entries in arrival order.
type TailResponse struct {
	Entries []core.Entry `json:"entries"`
}

// ConfigPayload carries the settings relevant to clients. Sent as the
// GetConfig response and as the config.changed event payload.
type ConfigPayload struct {
	Capacity     int  `json:"capacity"`
	Highlighting bool `json:"highlighting"`
}
