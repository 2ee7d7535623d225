package domain

import (
	"strings"

	"bloodLink/pkg/e"
)

// BloodGroup is an ABO/Rh blood type such as "AB+".
type BloodGroup string

const (
	APositive  BloodGroup = "A+"
	ANegative  BloodGroup = "A-"
	BPositive  BloodGroup = "B+"
	BNegative  BloodGroup = "B-"
	ABPositive BloodGroup = "AB+"
	ABNegative BloodGroup = "AB-"
	OPositive  BloodGroup = "O+"
	ONegative  BloodGroup = "O-"
)

var AllBloodGroups = []BloodGroup{
	APositive, ANegative, BPositive, BNegative, ABPositive, ABNegative, OPositive, ONegative,
}

// ParseBloodGroup normalizes (uppercases+trims) and validates a blood group string.
func ParseBloodGroup(in string) (BloodGroup, error) {
	g := BloodGroup(strings.ToUpper(strings.TrimSpace(in)))
	if g.Valid() {
		return g, nil
	}
	return "", e.ErrInvalidBloodGroup
}

func (g BloodGroup) Valid() bool {
	switch g {
	case APositive, ANegative, BPositive, BNegative, ABPositive, ABNegative, OPositive, ONegative:
		return true
	default:
		return false
	}
}

func (g BloodGroup) String() string { return string(g) }

// ABO returns the group without the Rh sign ("A", "B", "AB" or "O").
func (g BloodGroup) ABO() string {
	return strings.TrimRight(string(g), "+-")
}

func (g BloodGroup) RhPositive() bool {
	return strings.HasSuffix(string(g), "+")
}
