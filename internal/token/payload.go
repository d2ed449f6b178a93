package token

import (
	"github.com/shopspring/decimal"
)

// Field keys under which a payload is attached to an external object.
const (
	FieldMarker       = "mcengine:cash"
	FieldDenomination = "mcengine:coin_type"
	FieldAmount       = "mcengine:amount"
	FieldSerial       = "mcengine:serial"
	FieldSeal         = "mcengine:seal"

	markerValue = "1"
)

// Payload is the value carried by a cash token. It is a plain value: the
// ledger never holds the object the payload is attached to.
type Payload struct {
	Marker       bool
	Denomination string
	Amount       *decimal.Decimal
	Serial       string
	Seal         string
}

// Fields flattens the payload for attachment. Absent fields are omitted.
func (p Payload) Fields() map[string]string {
	fields := make(map[string]string, 5)
	if p.Marker {
		fields[FieldMarker] = markerValue
	}
	if p.Denomination != "" {
		fields[FieldDenomination] = p.Denomination
	}
	if p.Amount != nil {
		fields[FieldAmount] = p.Amount.String()
	}
	if p.Serial != "" {
		fields[FieldSerial] = p.Serial
	}
	if p.Seal != "" {
		fields[FieldSeal] = p.Seal
	}
	return fields
}

// FromFields rebuilds a payload from attached fields. The marker counts as
// present whenever its key is. An amount that does not parse is dropped, which
// Decode reports as a corrupt token.
func FromFields(fields map[string]string) Payload {
	var p Payload
	_, p.Marker = fields[FieldMarker]
	p.Denomination = fields[FieldDenomination]
	if raw, ok := fields[FieldAmount]; ok {
		if amount, err := decimal.NewFromString(raw); err == nil {
			p.Amount = &amount
		}
	}
	p.Serial = fields[FieldSerial]
	p.Seal = fields[FieldSeal]
	return p
}

// AmountValue returns a copy of the amount, or zero when absent.
func (p Payload) AmountValue() decimal.Decimal {
	if p.Amount == nil {
		return decimal.Zero
	}
	return *p.Amount
}
