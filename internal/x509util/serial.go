package x509util

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// ParseSerial parses a hex serial number. Colons and a leading "0x" are
// accepted, as printed by common tooling.
func ParseSerial(s string) (*big.Int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ":", "")
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if clean == "" {
		return nil, fmt.Errorf("empty serial number")
	}
	if len(clean)%2 == 1 {
		clean = "0" + clean
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid serial number %q: %w", s, err)
	}
	return new(big.Int).SetBytes(b), nil
}

// FormatSerial renders a serial number as upper-case hex.
func FormatSerial(n *big.Int) string {
	if n == nil {
		return ""
	}
	if n.Sign() == 0 {
		return "00"
	}
	return strings.ToUpper(hex.EncodeToString(n.Bytes()))
}
