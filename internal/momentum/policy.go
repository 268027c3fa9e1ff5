package momentum

import (
	"github.com/wonny/gem/internal/contracts"
)

// Policy picks the instrument to hold from a snapshot
// (absolute momentum first, then relative momentum)
type Policy struct {
	universe contracts.Universe
}

// NewPolicy creates a rotation policy over the universe
func NewPolicy(universe contracts.Universe) *Policy {
	return &Policy{universe: universe}
}

// Decide returns the instrument to hold:
//   - domestic below cash        -> bond
//   - domestic above international -> domestic
//   - otherwise (ties included)  -> international
func (p *Policy) Decide(s *contracts.SignalSnapshot) contracts.Instrument {
	switch {
	case s.Domestic.Value < s.Cash.Value:
		return p.universe.Bond
	case s.Domestic.Value > s.International.Value:
		return p.universe.Domestic
	default:
		return p.universe.International
	}
}

// Reason describes which rule produced the decision
func (p *Policy) Reason(s *contracts.SignalSnapshot) string {
	switch {
	case s.Domestic.Value < s.Cash.Value:
		return "domestic equity trails cash, defensive"
	case s.Domestic.Value > s.International.Value:
		return "domestic equity leads international"
	default:
		return "international equity leads or ties domestic"
	}
}
