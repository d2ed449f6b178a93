package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"
)

const sealIssuer = "mcengine-currency"

var sealSigningMethod = jwt.SigningMethodHS256

// sealClaims binds a token's fields to the codec secret
type sealClaims struct {
	Denomination string `json:"coin_type"`
	Amount       string `json:"amount"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes cash token payloads. With a secret configured
// every token carries an HS256 seal over its fields and unsealed or altered
// tokens are rejected.
type Codec struct {
	denominations models.DenominationSet
	secret        []byte
	now           func() time.Time
}

func NewCodec(denominations models.DenominationSet, secret string) *Codec {
	c := &Codec{
		denominations: denominations,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if secret != "" {
		c.secret = []byte(secret)
	}
	return c
}

// Sealed reports whether the codec signs and verifies tokens.
func (c *Codec) Sealed() bool {
	return len(c.secret) > 0
}

// Encode produces a payload for amount of denomination. It does not touch the ledger.
func (c *Codec) Encode(denomination string, amount decimal.Decimal) (Payload, error) {
	d, ok := c.denominations.Lookup(denomination)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %q", store.ErrUnknownDenomination, denomination)
	}
	if !amount.IsPositive() {
		return Payload{}, fmt.Errorf("%w: token amount must be positive, got %s", store.ErrInvalidAmount, amount.String())
	}
	if !d.Fits(amount) {
		return Payload{}, fmt.Errorf("%w: %s allows %d decimal places, got %s", store.ErrInvalidAmount, d.Name, d.Precision, amount.String())
	}

	value := amount
	p := Payload{
		Marker:       true,
		Denomination: d.Name,
		Amount:       &value,
		Serial:       uuid.NewString(),
	}
	if c.Sealed() {
		seal, err := c.seal(p)
		if err != nil {
			return Payload{}, err
		}
		p.Seal = seal
	}
	return p, nil
}

// Decode validates a payload and returns its denomination and amount.
// A payload without the marker is ErrNotAToken; any missing or invalid field
// is ErrCorruptToken.
func (c *Codec) Decode(p Payload) (string, decimal.Decimal, error) {
	if !p.Marker {
		return "", decimal.Zero, store.ErrNotAToken
	}
	if p.Denomination == "" {
		return "", decimal.Zero, fmt.Errorf("%w: missing denomination", store.ErrCorruptToken)
	}
	if p.Amount == nil {
		return "", decimal.Zero, fmt.Errorf("%w: missing amount", store.ErrCorruptToken)
	}
	amount := *p.Amount
	if !amount.IsPositive() {
		return "", decimal.Zero, fmt.Errorf("%w: non-positive amount %s", store.ErrCorruptToken, amount.String())
	}
	d, ok := c.denominations.Lookup(p.Denomination)
	if !ok {
		return "", decimal.Zero, fmt.Errorf("%w: unknown denomination %q", store.ErrCorruptToken, p.Denomination)
	}
	if !d.Fits(amount) {
		return "", decimal.Zero, fmt.Errorf("%w: amount %s exceeds %s precision", store.ErrCorruptToken, amount.String(), d.Name)
	}
	if c.Sealed() {
		if err := c.verify(p, d.Name, amount); err != nil {
			return "", decimal.Zero, err
		}
	}
	return d.Name, amount, nil
}

func (c *Codec) seal(p Payload) (string, error) {
	claims := sealClaims{
		Denomination: p.Denomination,
		Amount:       p.Amount.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   sealIssuer,
			IssuedAt: jwt.NewNumericDate(c.now()),
			ID:       p.Serial,
		},
	}
	signed, err := jwt.NewWithClaims(sealSigningMethod, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token seal: %w", err)
	}
	return signed, nil
}

func (c *Codec) verify(p Payload, denomination string, amount decimal.Decimal) error {
	if p.Seal == "" {
		return fmt.Errorf("%w: missing seal", store.ErrCorruptToken)
	}

	claims := &sealClaims{}
	_, err := jwt.ParseWithClaims(
		p.Seal,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != sealSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{sealSigningMethod.Alg()}),
		jwt.WithIssuer(sealIssuer),
	)
	if err != nil {
		return fmt.Errorf("%w: invalid seal: %w", store.ErrCorruptToken, err)
	}

	sealed, err := decimal.NewFromString(claims.Amount)
	if err != nil {
		return fmt.Errorf("%w: invalid sealed amount: %w", store.ErrCorruptToken, err)
	}
	if models.NormalizeDenomination(claims.Denomination) != denomination || !sealed.Equal(amount) || claims.ID != p.Serial {
		return fmt.Errorf("%w: seal does not match token fields", store.ErrCorruptToken)
	}
	return nil
}
