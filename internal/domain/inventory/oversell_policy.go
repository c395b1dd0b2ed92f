package inventory

import (
	"fmt"
	"strings"

	"github.com/kitchenops/backend/internal/domain/shared"
)

// OversellPolicy decides what the ledger does with a sale that would drive
// stock below zero
type OversellPolicy string

const (
	// OversellPolicyBlock rejects the whole sale when any SKU would go negative
	OversellPolicyBlock OversellPolicy = "block"
	// OversellPolicyAllowNegativeAlert applies the sale and flags negative stock
	OversellPolicyAllowNegativeAlert OversellPolicy = "allow_negative_alert"
)

// DefaultOversellPolicy is the system default used when nothing else is configured
const DefaultOversellPolicy = OversellPolicyBlock

// IsValid checks if the policy is a known value
func (p OversellPolicy) IsValid() bool {
	switch p {
	case OversellPolicyBlock, OversellPolicyAllowNegativeAlert:
		return true
	}
	return false
}

// String returns the string representation
func (p OversellPolicy) String() string {
	return string(p)
}

// AllowsNegative reports whether stock may go below zero under this policy
func (p OversellPolicy) AllowsNegative() bool {
	return p == OversellPolicyAllowNegativeAlert
}

// ParseOversellPolicy parses a policy name, case-insensitively
func ParseOversellPolicy(s string) (OversellPolicy, error) {
	p := OversellPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_OVERSELL_POLICY",
			fmt.Sprintf("Unknown oversell policy %q", s))
	}
	return p, nil
}
