package ocsp

import (
	"fmt"
	"strings"
)

// TrustFlags modifies how a basic response is built and verified. Flags are
// independent and may be combined freely.
type TrustFlags uint32

const (
	// FlagNoCerts omits the signer certificate when building a response.
	FlagNoCerts TrustFlags = 1 << iota
	// FlagNoIntern does not search the response's embedded certificates for the signer.
	FlagNoIntern
	// FlagNoSigs skips the signature check.
	FlagNoSigs
	// FlagNoChain does not use untrusted certificates as chain intermediates.
	FlagNoChain
	// FlagNoVerify skips signer chain verification and the responder checks.
	FlagNoVerify
	// FlagNoExplicit disables the trusted-responder fallback. Store purpose
	// still applies.
	FlagNoExplicit
	// FlagNoCASign rejects responses signed directly by the issuing CA.
	FlagNoCASign
	// FlagNoDelegated rejects responses signed by a delegated responder.
	FlagNoDelegated
	// FlagNoChecks skips responder authorization checks.
	FlagNoChecks
	// FlagTrustOther trusts a signer found in the caller's certificates without a chain check.
	FlagTrustOther
	// FlagRespIDKey identifies the responder by key hash when building a response.
	FlagRespIDKey
	// FlagNoTime ignores the current time when verifying the signer chain.
	FlagNoTime
)

var flagNames = []struct {
	flag TrustFlags
	name string
}{
	{FlagNoCerts, "noCerts"},
	{FlagNoIntern, "noIntern"},
	{FlagNoSigs, "noSigs"},
	{FlagNoChain, "noChain"},
	{FlagNoVerify, "noVerify"},
	{FlagNoExplicit, "noExplicit"},
	{FlagNoCASign, "noCASign"},
	{FlagNoDelegated, "noDelegated"},
	{FlagNoChecks, "noChecks"},
	{FlagTrustOther, "trustOther"},
	{FlagRespIDKey, "respIDKey"},
	{FlagNoTime, "noTime"},
}

// Has reports whether all bits of flag are set.
func (f TrustFlags) Has(flag TrustFlags) bool {
	return f&flag == flag
}

// String renders the set as "noIntern|noChain", or "none".
func (f TrustFlags) String() string {
	var parts []string
	rest := f
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseTrustFlags parses flag names. Each element may itself hold several
// names separated by commas or '|'. Matching is case-insensitive.
func ParseTrustFlags(names []string) (TrustFlags, error) {
	var f TrustFlags
	for _, n := range names {
		for _, part := range strings.FieldsFunc(n, func(r rune) bool { return r == ',' || r == '|' }) {
			part = strings.TrimSpace(part)
			if part == "" || strings.EqualFold(part, "none") {
				continue
			}
			flag, ok := lookupFlag(part)
			if !ok {
				return 0, fmt.Errorf("unknown trust flag: %s", part)
			}
			f |= flag
		}
	}
	return f, nil
}

func lookupFlag(name string) (TrustFlags, bool) {
	for _, fn := range flagNames {
		if strings.EqualFold(fn.name, name) {
			return fn.flag, true
		}
	}
	return 0, false
}
