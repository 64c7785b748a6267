package dashboard

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown mode")

// Mode selects which dataset category the dashboard renders.
type Mode string

const (
	ModeShip           Mode = "bsm-kapal"
	ModeHeavyEquipment Mode = "bsm-alat-berat"

	DefaultMode = ModeShip
)

var modeLabels = map[Mode]string{
	ModeShip:           "BSM Kapal",
	ModeHeavyEquipment: "BSM Alat Berat",
}

// Modes lists the selectable modes in display order.
func Modes() []Mode {
	return []Mode{ModeShip, ModeHeavyEquipment}
}

// Label is the selector text of the mode.
func (m Mode) Label() string {
	if label, exists := modeLabels[m]; exists {
		return label
	}
	return string(m)
}

func (m Mode) Valid() bool {
	_, exists := modeLabels[m]
	return exists
}

// ParseMode accepts a mode id or its label, case-insensitively. An empty string selects the
// default mode.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMode, nil
	}
	for _, m := range Modes() {
		if strings.EqualFold(s, string(m)) || strings.EqualFold(s, m.Label()) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownMode)
}
