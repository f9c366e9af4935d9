package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// RemarksKind discriminates the remarks payload shapes.
type RemarksKind string

const (
	RemarksNote     RemarksKind = "note"
	RemarksPayment  RemarksKind = "payment"
	RemarksLoan     RemarksKind = "loan"
	RemarksSubsidy  RemarksKind = "subsidy"
	RemarksNetMeter RemarksKind = "net_meter"
	RemarksRaw      RemarksKind = "raw"
)

// ErrInvalidRemarks is returned when remarks are not valid JSON.
var ErrInvalidRemarks = errors.New("remarks must be valid JSON")

// RemarksPayload is implemented by every remarks shape.
type RemarksPayload interface {
	Kind() RemarksKind
	IsEmpty() bool
}

// PlainNote is free text entered while completing a step.
type PlainNote struct {
	Text string `json:"text"`
}

func (PlainNote) Kind() RemarksKind { return RemarksNote }
func (n PlainNote) IsEmpty() bool   { return strings.TrimSpace(n.Text) == "" }

// PaymentRecord captures a received payment.
type PaymentRecord struct {
	Mode      string  `json:"mode"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference,omitempty"`
	PaidOn    string  `json:"paidOn,omitempty"`
	Note      string  `json:"note,omitempty"`
}

func (PaymentRecord) Kind() RemarksKind { return RemarksPayment }
func (p PaymentRecord) IsEmpty() bool {
	return p.Amount == 0 && blank(p.Mode, p.Reference, p.PaidOn, p.Note)
}

// LoanRecord captures a financing application.
type LoanRecord struct {
	Bank         string  `json:"bank"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status,omitempty"`
	SanctionedOn string  `json:"sanctionedOn,omitempty"`
	Note         string  `json:"note,omitempty"`
}

func (LoanRecord) Kind() RemarksKind { return RemarksLoan }
func (l LoanRecord) IsEmpty() bool {
	return l.Amount == 0 && blank(l.Bank, l.Status, l.SanctionedOn, l.Note)
}

// SubsidyRecord captures a government subsidy claim.
type SubsidyRecord struct {
	Scheme        string  `json:"scheme"`
	ApplicationID string  `json:"applicationId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Status        string  `json:"status,omitempty"`
	Note          string  `json:"note,omitempty"`
}

func (SubsidyRecord) Kind() RemarksKind { return RemarksSubsidy }
func (s SubsidyRecord) IsEmpty() bool {
	return s.Amount == 0 && blank(s.Scheme, s.ApplicationID, s.Status, s.Note)
}

// NetMeterRecord captures the grid net-metering installation.
type NetMeterRecord struct {
	MeterNumber       string `json:"meterNumber"`
	ApplicationNumber string `json:"applicationNumber,omitempty"`
	InstalledOn       string `json:"installedOn,omitempty"`
	Note              string `json:"note,omitempty"`
}

func (NetMeterRecord) Kind() RemarksKind { return RemarksNetMeter }
func (n NetMeterRecord) IsEmpty() bool {
	return blank(n.MeterNumber, n.ApplicationNumber, n.InstalledOn, n.Note)
}

// RawRemarks keeps JSON that matches no known shape, byte for byte.
type RawRemarks struct {
	Data json.RawMessage
}

func (RawRemarks) Kind() RemarksKind { return RemarksRaw }
func (r RawRemarks) IsEmpty() bool { return blankJSON(r.Data) }

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func blankJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	switch string(trimmed) {
	case "", "null", "{}", "[]", "0", "false":
		return true
	}
	var text string
	if json.Unmarshal(trimmed, &text) == nil {
		return strings.TrimSpace(text) == ""
	}
	return false
}

// Remarks is the tagged remarks value stored on a lead step.
//
// Remarks decoded from JSON keep the original document, so fields outside
// the typed shape survive a save. The document is re-encoded from Payload
// once Payload is replaced.
type Remarks struct {
	Payload RemarksPayload

	raw     json.RawMessage
	decoded RemarksPayload
}

// NewNote wraps free text as remarks.
func NewNote(text string) *Remarks {
	return &Remarks{Payload: PlainNote{Text: text}}
}

// Kind returns the payload kind, or "" for nil remarks.
func (r *Remarks) Kind() RemarksKind {
	if r == nil || r.Payload == nil {
		return ""
	}
	return r.Payload.Kind()
}

// IsEmpty reports whether the remarks carry no content. Nil is empty. Fields
// outside the typed shape count as content.
func (r *Remarks) IsEmpty() bool {
	if r == nil || r.Payload == nil {
		return true
	}
	if !r.Payload.IsEmpty() {
		return false
	}
	if !r.keepsRaw() {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.raw, &fields); err != nil {
		return true
	}
	for key, value := range fields {
		if key != "type" && !blankJSON(value) {
			return false
		}
	}
	return true
}

// keepsRaw reports whether the decoded document still matches Payload.
func (r *Remarks) keepsRaw() bool {
	if len(r.raw) == 0 || r.decoded == nil {
		return false
	}
	if _, isRaw := r.Payload.(RawRemarks); isRaw {
		return false
	}
	return r.Payload == r.decoded
}

// ParseRemarks decodes remarks JSON. A bare JSON string is a plain note, an
// object whose "type" names a known shape decodes into that shape, and any
// other JSON is kept as raw. Absent or null input yields nil.
func ParseRemarks(data []byte) (*Remarks, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, ErrInvalidRemarks
	}

	var r Remarks
	if err := r.UnmarshalJSON(trimmed); err != nil {
		return nil, err
	}
	return &r, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Remarks) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	r.raw, r.decoded = nil, nil

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return ErrInvalidRemarks
		}
		r.Payload = PlainNote{Text: text}
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var head struct {
			Type RemarksKind `json:"type"`
		}
		if err := json.Unmarshal(trimmed, &head); err == nil {
			if payload, ok := decodeKnown(head.Type, trimmed); ok {
				r.Payload = payload
				r.decoded = payload
				r.raw = append(json.RawMessage(nil), trimmed...)
				return nil
			}
		}
	}

	if !json.Valid(trimmed) {
		return ErrInvalidRemarks
	}
	r.Payload = RawRemarks{Data: append(json.RawMessage(nil), trimmed...)}
	return nil
}

func decodeKnown(kind RemarksKind, data []byte) (RemarksPayload, bool) {
	switch kind {
	case RemarksNote:
		return decodeAs[PlainNote](data)
	case RemarksPayment:
		return decodeAs[PaymentRecord](data)
	case RemarksLoan:
		return decodeAs[LoanRecord](data)
	case RemarksSubsidy:
		return decodeAs[SubsidyRecord](data)
	case RemarksNetMeter:
		return decodeAs[NetMeterRecord](data)
	}
	return nil, false
}

func decodeAs[T RemarksPayload](data []byte) (RemarksPayload, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return v, true
}

// MarshalJSON implements json.Marshaler. Known shapes carry their "type"
// discriminator; raw remarks and unchanged decoded documents are emitted as
// they were received.
func (r Remarks) MarshalJSON() ([]byte, error) {
	if r.keepsRaw() {
		return r.raw, nil
	}
	switch p := r.Payload.(type) {
	case nil:
		return []byte("null"), nil
	case RawRemarks:
		if len(p.Data) == 0 {
			return []byte("null"), nil
		}
		return p.Data, nil
	default:
		body, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		return withType(body, p.Kind())
	}
}

func withType(body []byte, kind RemarksKind) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typeValue, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	fields["type"] = typeValue
	return json.Marshal(fields)
}
