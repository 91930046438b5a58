package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

type PayloadKind int

const (
	// PayloadRaw is a response body used as-is.
	PayloadRaw PayloadKind = iota
	// PayloadEnveloped is a {data, message} wrapper; both keys must be present.
	PayloadEnveloped
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadRaw:
		return "raw"
	case PayloadEnveloped:
		return "enveloped"
	default:
		return fmt.Sprintf("PayloadKind(%d)", int(k))
	}
}

// Payload is a decoded response body, tagged by whether the server wrapped it.
type Payload struct {
	Kind    PayloadKind
	Body    json.RawMessage
	Data    json.RawMessage
	Message string
}

var errInvalidBody = errors.New("response body is not valid JSON")

func ParsePayload(body []byte) (Payload, error) {
	if !json.Valid(body) {
		return Payload{}, errInvalidBody
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err == nil {
		data, hasData := probe["data"]
		rawMessage, hasMessage := probe["message"]
		if hasData && hasMessage {
			var message string
			// A null or non-string message still marks the envelope.
			_ = json.Unmarshal(rawMessage, &message)
			return Payload{Kind: PayloadEnveloped, Body: body, Data: data, Message: message}, nil
		}
	}
	return Payload{Kind: PayloadRaw, Body: body}, nil
}

// Content returns the bytes that carry the result.
func (p Payload) Content() (json.RawMessage, error) {
	switch p.Kind {
	case PayloadEnveloped:
		return p.Data, nil
	case PayloadRaw:
		return p.Body, nil
	default:
		return nil, fmt.Errorf("unsupported payload kind %s", p.Kind)
	}
}

func (p Payload) Decode(v any) error {
	content, err := p.Content()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", p.Kind, err)
	}
	return nil
}
