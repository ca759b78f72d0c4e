package imc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned when a frame carries a type tag with no registered variant.
	ErrUnknownType = errors.New("unknown message type")

	// ErrMalformed is returned when a frame cannot be decoded.
	ErrMalformed = errors.New("malformed message")
)

// frame is the wire form of a top-level message.
type frame struct {
	Abbrev Type `json:"abbrev"`
	Envelope
	Data json.RawMessage `json:"data,omitempty"`
}

// inline is the wire form of a message nested inside another one.
type inline struct {
	Abbrev Type            `json:"abbrev"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes a message with its envelope.
func Marshal(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Type(), err)
	}
	return json.Marshal(frame{Abbrev: msg.Type(), Envelope: *msg.Env(), Data: data})
}

// Unmarshal decodes a frame produced by Marshal.
func Unmarshal(b []byte) (Message, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Abbrev == "" {
		return nil, fmt.Errorf("%w: missing abbrev", ErrMalformed)
	}
	msg, err := decodeBody(f.Abbrev, f.Data)
	if err != nil {
		return nil, err
	}
	*msg.Env() = f.Envelope
	return msg, nil
}

func decodeBody(t Type, data json.RawMessage) (Message, error) {
	msg, err := New(t)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
	}
	return msg, nil
}

func marshalInline(msg Message) (json.RawMessage, error) {
	if msg == nil {
		return nil, nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(inline{Abbrev: msg.Type(), Data: data})
}

func unmarshalInline(raw json.RawMessage) (Message, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var in inline
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeBody(in.Abbrev, in.Data)
}

type planManeuverWire struct {
	ManeuverID string          `json:"maneuver_id"`
	Data       json.RawMessage `json:"data"`
}

func (p PlanManeuver) MarshalJSON() ([]byte, error) {
	data, err := marshalInline(p.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(planManeuverWire{ManeuverID: p.ManeuverID, Data: data})
}

func (p *PlanManeuver) UnmarshalJSON(b []byte) error {
	var w planManeuverWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	data, err := unmarshalInline(w.Data)
	if err != nil {
		return err
	}
	p.ManeuverID = w.ManeuverID
	p.Data = nil
	if data != nil {
		m, ok := data.(Maneuver)
		if !ok {
			return fmt.Errorf("%w: %s is not a maneuver", ErrMalformed, data.Type())
		}
		p.Data = m
	}
	return nil
}

type planControlWire struct {
	Kind      PlanControlType `json:"type"`
	Op        PlanControlOp   `json:"op"`
	RequestID uint16          `json:"request_id"`
	PlanID    string          `json:"plan_id"`
	Flags     uint16          `json:"flags"`
	Arg       json.RawMessage `json:"arg,omitempty"`
	Info      string          `json:"info,omitempty"`
}

func (p PlanControl) MarshalJSON() ([]byte, error) {
	arg, err := marshalInline(p.Arg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(planControlWire{
		Kind:      p.Kind,
		Op:        p.Op,
		RequestID: p.RequestID,
		PlanID:    p.PlanID,
		Flags:     p.Flags,
		Arg:       arg,
		Info:      p.Info,
	})
}

func (p *PlanControl) UnmarshalJSON(b []byte) error {
	var w planControlWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	arg, err := unmarshalInline(w.Arg)
	if err != nil {
		return err
	}
	p.Kind = w.Kind
	p.Op = w.Op
	p.RequestID = w.RequestID
	p.PlanID = w.PlanID
	p.Flags = w.Flags
	p.Arg = arg
	p.Info = w.Info
	return nil
}
