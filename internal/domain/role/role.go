package role

import (
	"fmt"
	"strings"
)

// Capability is a single ledger permission.
type Capability uint8

const (
	// Admin may grant and revoke capabilities.
	Admin Capability = 1 << iota
	// Operator posts allocation updates and receives forwarded deposits.
	Operator
)

// All lists every known capability in display order.
var All = []Capability{Admin, Operator}

// String returns the canonical upper-case name.
func (c Capability) String() string {
	switch c {
	case Admin:
		return "ADMIN"
	case Operator:
		return "OPERATOR"
	default:
		return fmt.Sprintf("CAPABILITY(%d)", uint8(c))
	}
}

// IsValid reports whether c names exactly one known capability.
func (c Capability) IsValid() bool {
	return c == Admin || c == Operator
}

// Parse resolves a capability name (case-insensitive).
func Parse(s string) (Capability, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return Admin, nil
	case "OPERATOR":
		return Operator, nil
	default:
		return 0, fmt.Errorf("unknown capability %q", s)
	}
}

// Set is a flat capability set. The zero value is empty.
type Set uint8

// NewSet builds a set from the given capabilities.
func NewSet(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// Has reports whether c is in the set.
func (s Set) Has(c Capability) bool { return s&Set(c) != 0 }

// With returns the set with c added.
func (s Set) With(c Capability) Set { return s | Set(c) }

// Without returns the set with c removed.
func (s Set) Without(c Capability) Set { return s &^ Set(c) }

// IsEmpty reports whether the set holds no capability.
func (s Set) IsEmpty() bool { return s == 0 }

// Capabilities lists the members in display order.
func (s Set) Capabilities() []Capability {
	out := make([]Capability, 0, len(All))
	for _, c := range All {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Names lists the member names in display order.
func (s Set) Names() []string {
	caps := s.Capabilities()
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = c.String()
	}
	return out
}

// String renders the set as a comma-separated list.
func (s Set) String() string { return strings.Join(s.Names(), ",") }

// ParseSet parses a comma-separated capability list. Empty input yields an empty set.
func ParseSet(s string) (Set, error) {
	var out Set
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return 0, err
		}
		out = out.With(c)
	}
	return out, nil
}
