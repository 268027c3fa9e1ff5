package contracts

import "fmt"

// Instrument is a tradable symbol (e.g. "VOO")
type Instrument string

// String returns the symbol
func (i Instrument) String() string {
	return string(i)
}

// Role identifies the slot an instrument fills in the rotation
type Role string

const (
	RoleCash          Role = "cash"
	RoleDomestic      Role = "domestic"
	RoleInternational Role = "international"
	RoleBond          Role = "bond"
)

// Default symbols of the universe
const (
	DefaultCash          Instrument = "BIL"
	DefaultDomestic      Instrument = "VOO"
	DefaultInternational Instrument = "VEU"
	DefaultBond          Instrument = "BND"
)

// Universe is the fixed four-instrument set the rotation chooses from
// ⭐ SSOT: 자산 유니버스 정의는 여기서만
type Universe struct {
	Cash          Instrument `json:"cash"`
	Domestic      Instrument `json:"domestic"`
	International Instrument `json:"international"`
	Bond          Instrument `json:"bond"`
}

// DefaultUniverse returns BIL / VOO / VEU / BND
func DefaultUniverse() Universe {
	return Universe{
		Cash:          DefaultCash,
		Domestic:      DefaultDomestic,
		International: DefaultInternational,
		Bond:          DefaultBond,
	}
}

// All returns the four instruments in fetch order
func (u Universe) All() []Instrument {
	return []Instrument{u.Cash, u.Domestic, u.International, u.Bond}
}

// RiskBearing returns the instruments that enter a signal snapshot
func (u Universe) RiskBearing() []Instrument {
	return []Instrument{u.Cash, u.Domestic, u.International}
}

// Role returns the slot held by an instrument
func (u Universe) Role(i Instrument) (Role, bool) {
	switch i {
	case u.Cash:
		return RoleCash, true
	case u.Domestic:
		return RoleDomestic, true
	case u.International:
		return RoleInternational, true
	case u.Bond:
		return RoleBond, true
	}
	return "", false
}

// Validate checks that all four slots are set and distinct
func (u Universe) Validate() error {
	seen := make(map[Instrument]Role, 4)
	slots := []struct {
		role Role
		inst Instrument
	}{
		{RoleCash, u.Cash},
		{RoleDomestic, u.Domestic},
		{RoleInternational, u.International},
		{RoleBond, u.Bond},
	}
	for _, s := range slots {
		if s.inst == "" {
			return fmt.Errorf("universe: %s symbol is empty", s.role)
		}
		if other, dup := seen[s.inst]; dup {
			return fmt.Errorf("universe: %s used for both %s and %s", s.inst, other, s.role)
		}
		seen[s.inst] = s.role
	}
	return nil
}
