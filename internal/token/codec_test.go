package token

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
)

func testCodec(secret string) *Codec {
	return NewCodec(models.NewDenominationSet(models.DefaultDenominations()), secret)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	amounts := []string{"0.01", "1", "20", "99.99", "123456789.5"}
	for _, secret := range []string{"", "s3cret"} {
		codec := testCodec(secret)
		for _, denom := range []string{"coin", "copper", "silver", "gold"} {
			for _, raw := range amounts {
				amount := decimal.RequireFromString(raw)

				payload, err := codec.Encode(denom, amount)
				require.NoError(t, err)
				assert.True(t, payload.Marker)
				assert.NotEmpty(t, payload.Serial)
				assert.Equal(t, secret != "", payload.Seal != "")

				gotDenom, gotAmount, err := codec.Decode(payload)
				require.NoError(t, err)
				assert.Equal(t, denom, gotDenom)
				assert.True(t, amount.Equal(gotAmount), "amount %s decoded as %s", amount, gotAmount)
			}
		}
	}
}

func TestEncodeThroughFields(t *testing.T) {
	codec := testCodec("s3cret")
	payload, err := codec.Encode("Gold", decimal.RequireFromString("12.5"))
	require.NoError(t, err)

	fields := payload.Fields()
	assert.Equal(t, "1", fields[FieldMarker])
	assert.Equal(t, "gold", fields[FieldDenomination])
	assert.Equal(t, "12.5", fields[FieldAmount])

	denom, amount, err := codec.Decode(FromFields(fields))
	require.NoError(t, err)
	assert.Equal(t, "gold", denom)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.5")))
}

func TestEncodeRejects(t *testing.T) {
	codec := testCodec("")

	_, err := codec.Encode("gold", decimal.Zero)
	assert.ErrorIs(t, err, store.ErrInvalidAmount)

	_, err = codec.Encode("gold", decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, store.ErrInvalidAmount)

	_, err = codec.Encode("gold", decimal.RequireFromString("0.001"))
	assert.ErrorIs(t, err, store.ErrInvalidAmount)

	_, err = codec.Encode("platinum", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, store.ErrUnknownDenomination)
}

func TestDecodeWithoutMarker(t *testing.T) {
	codec := testCodec("")

	_, _, err := codec.Decode(Payload{})
	assert.ErrorIs(t, err, store.ErrNotAToken)

	fields := map[string]string{FieldDenomination: "gold", FieldAmount: "10"}
	_, _, err = codec.Decode(FromFields(fields))
	assert.ErrorIs(t, err, store.ErrNotAToken)
}

func TestDecodeCorrupt(t *testing.T) {
	codec := testCodec("")
	ten := decimal.NewFromInt(10)
	zero := decimal.Zero
	tiny := decimal.RequireFromString("0.005")

	tests := []struct {
		name    string
		payload Payload
	}{
		{"missing amount", Payload{Marker: true, Denomination: "gold"}},
		{"missing denomination", Payload{Marker: true, Amount: &ten}},
		{"zero amount", Payload{Marker: true, Denomination: "gold", Amount: &zero}},
		{"unknown denomination", Payload{Marker: true, Denomination: "platinum", Amount: &ten}},
		{"too precise", Payload{Marker: true, Denomination: "gold", Amount: &tiny}},
		{"unparseable amount", FromFields(map[string]string{FieldMarker: "1", FieldDenomination: "gold", FieldAmount: "ten"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := codec.Decode(tt.payload)
			assert.ErrorIs(t, err, store.ErrCorruptToken)
		})
	}
}

func TestSealedCodecRejectsTampering(t *testing.T) {
	codec := testCodec("s3cret")
	payload, err := codec.Encode("silver", decimal.NewFromInt(5))
	require.NoError(t, err)

	inflated := decimal.NewFromInt(500)
	tampered := payload
	tampered.Amount = &inflated
	_, _, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, store.ErrCorruptToken)

	swapped := payload
	swapped.Denomination = "gold"
	_, _, err = codec.Decode(swapped)
	assert.ErrorIs(t, err, store.ErrCorruptToken)

	unsealed := payload
	unsealed.Seal = ""
	_, _, err = codec.Decode(unsealed)
	assert.ErrorIs(t, err, store.ErrCorruptToken)

	_, _, err = testCodec("other").Decode(payload)
	assert.ErrorIs(t, err, store.ErrCorruptToken)
}

func TestUnsealedCodecAcceptsSealedToken(t *testing.T) {
	payload, err := testCodec("s3cret").Encode("coin", decimal.NewFromInt(3))
	require.NoError(t, err)

	denom, amount, err := testCodec("").Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "coin", denom)
	assert.True(t, amount.Equal(decimal.NewFromInt(3)))
}
