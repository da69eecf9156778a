package calc

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=PaymentOption -trimprefix=Payment -output=payment_string.go

type PaymentOption int

const (
	_ PaymentOption = iota // zero value means "not chosen"

	PaymentCash
	PaymentFinance
)

func ParsePaymentOption(s string) (PaymentOption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, nil
	case "finance", "financed", "loan":
		return PaymentFinance, nil
	default:
		return 0, invalidf("unsupported payment option %q", s)
	}
}

func (p PaymentOption) MarshalText() ([]byte, error) {
	if p != PaymentCash && p != PaymentFinance {
		return nil, fmt.Errorf("marshal payment option: %s", p)
	}
	return []byte(strings.ToLower(p.String())), nil
}

func (p *PaymentOption) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentOption(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
