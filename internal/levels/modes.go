// Package levels computes per-ion partition functions and per-level
// fractional populations for plasma cells, and implements the superlevel
// reduction that collapses near-LTE upper levels into one aggregate state.
package levels

import (
	"errors"
	"fmt"

	"github.com/ashfall/speq/internal/plasma"
)

// Mode selects the temperature and dilution assumption for a population
// calculation.
type Mode int

const (
	// ModeLTETr is LTE at the radiation temperature.
	ModeLTETr Mode = iota
	// ModeLTETe is LTE at the electron temperature.
	ModeLTETe
	// ModeDilute is the dilute-blackbody approximation: radiation
	// temperature with the cell's dilution weight.
	ModeDilute
	// ModeGroundTest forces every level to the ground state (weight 0).
	// Used when no trustworthy radiation-field model exists.
	ModeGroundTest
)

// ErrUnknownMode marks a mode value outside the table above. Callers treat
// it as a fatal configuration error.
var ErrUnknownMode = errors.New("levels: unknown population mode")

func (m Mode) String() string {
	switch m {
	case ModeLTETr:
		return "lte-tr"
	case ModeLTETe:
		return "lte-te"
	case ModeDilute:
		return "dilute"
	case ModeGroundTest:
		return "ground-test"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeLTETr && m <= ModeGroundTest
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeLTETr, ModeLTETe, ModeDilute, ModeGroundTest} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// temperatureWeight resolves the mode against a cell's scalars.
func (m Mode) temperatureWeight(s plasma.Scalars) (t, w float64, err error) {
	switch m {
	case ModeLTETr:
		return s.TR, 1, nil
	case ModeLTETe:
		return s.TE, 1, nil
	case ModeDilute:
		return s.TR, s.W, nil
	case ModeGroundTest:
		return s.TE, 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
}
