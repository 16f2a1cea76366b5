package core

import "encoding/json"

// Envelope is the wire shape of every outbound event.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func NewEnvelope(typ string, data any) Envelope {
	return Envelope{Type: typ, Data: data}
}

func (e Envelope) Encode() (Frame, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
