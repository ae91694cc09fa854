// Package protocol defines the JSON control messages exchanged with the remote decoder.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProtocol marks invalid JSON or an unrecognized type.
var ErrProtocol = errors.New("protocol error")

type Kind string

const (
	KindStart   Kind = "start"
	KindStop    Kind = "stop"
	KindPartial Kind = "partial"
	KindFinal   Kind = "final"
	KindStatus  Kind = "status"
)

// Message is the single normalized form of every control message.
type Message struct {
	Kind Kind
	Text string
}

func Start() Message { return Message{Kind: KindStart} }
func Stop() Message  { return Message{Kind: KindStop} }

func (m Message) Outbound() bool {
	return m.Kind == KindStart || m.Kind == KindStop
}

type outboundFrame struct {
	Type Kind `json:"type"`
}

type inboundFrame struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

func Encode(m Message) ([]byte, error) {
	if !m.Outbound() {
		return nil, fmt.Errorf("message type %q cannot be sent", m.Kind)
	}
	return json.Marshal(outboundFrame{Type: m.Kind})
}

func Decode(data []byte) (Message, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	switch f.Type {
	case KindPartial:
		text, err := decodePartial(f.Value)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindPartial, Text: text}, nil
	case KindFinal:
		text, err := decodeFinal(f.Value)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindFinal, Text: text}, nil
	case KindStatus:
		return Message{Kind: KindStatus, Text: decodeStatus(f.Value)}, nil
	default:
		return Message{}, fmt.Errorf("%w: unknown message type %q", ErrProtocol, f.Type)
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodePartial(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", fmt.Errorf("%w: partial without value", ErrProtocol)
	}
	var v struct {
		Partial *string `json:"partial"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: partial value: %v", ErrProtocol, err)
	}
	if v.Partial == nil {
		return "", nil
	}
	return *v.Partial, nil
}

func decodeFinal(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", fmt.Errorf("%w: final without value", ErrProtocol)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var v struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: final value: %v", ErrProtocol, err)
	}
	if v.Text == nil {
		return "", nil
	}
	return *v.Text, nil
}

func decodeStatus(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
