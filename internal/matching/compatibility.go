package matching

import (
	"fmt"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

// CompatibilityMode selects the donor/recipient rule set.
type CompatibilityMode string

const (
	// ModeStandard is the transfusion-medicine ABO/Rh table.
	ModeStandard CompatibilityMode = "standard"
	// ModeLegacy accepts the same group, O- for anyone and O+ for any Rh+ recipient.
	ModeLegacy CompatibilityMode = "legacy"
)

// donorTo maps a donor group to every recipient group it may give to.
var donorTo = map[domain.BloodGroup][]domain.BloodGroup{
	domain.ONegative:  domain.AllBloodGroups,
	domain.OPositive:  {domain.OPositive, domain.APositive, domain.BPositive, domain.ABPositive},
	domain.ANegative:  {domain.ANegative, domain.APositive, domain.ABNegative, domain.ABPositive},
	domain.APositive:  {domain.APositive, domain.ABPositive},
	domain.BNegative:  {domain.BNegative, domain.BPositive, domain.ABNegative, domain.ABPositive},
	domain.BPositive:  {domain.BPositive, domain.ABPositive},
	domain.ABNegative: {domain.ABNegative, domain.ABPositive},
	domain.ABPositive: {domain.ABPositive},
}

var standardTable = func() map[domain.BloodGroup]map[domain.BloodGroup]bool {
	t := make(map[domain.BloodGroup]map[domain.BloodGroup]bool, len(donorTo))
	for donor, recipients := range donorTo {
		row := make(map[domain.BloodGroup]bool, len(recipients))
		for _, r := range recipients {
			row[r] = true
		}
		t[donor] = row
	}
	return t
}()

// CanDonate reports whether donor blood is acceptable for recipient under the standard table.
func CanDonate(donor, recipient domain.BloodGroup) bool {
	return standardTable[donor][recipient]
}

func legacyCanDonate(donor, recipient domain.BloodGroup) bool {
	if !donor.Valid() || !recipient.Valid() {
		return false
	}
	if donor == recipient || donor == domain.ONegative {
		return true
	}
	return donor == domain.OPositive && recipient.RhPositive()
}

type Compatibility struct {
	mode CompatibilityMode
}

func NewCompatibility(mode CompatibilityMode) (Compatibility, error) {
	switch mode {
	case ModeStandard, "":
		return Compatibility{mode: ModeStandard}, nil
	case ModeLegacy:
		return Compatibility{mode: ModeLegacy}, nil
	default:
		return Compatibility{}, fmt.Errorf("unknown compatibility mode %q: %w", mode, e.ErrInvalidInput)
	}
}

func (c Compatibility) Mode() CompatibilityMode {
	if c.mode == "" {
		return ModeStandard
	}
	return c.mode
}

func (c Compatibility) Allows(donor, recipient domain.BloodGroup) bool {
	if c.mode == ModeLegacy {
		return legacyCanDonate(donor, recipient)
	}
	return CanDonate(donor, recipient)
}

// CompatibleDonors returns the available donors whose group may give to requested,
// preserving pool order.
func (c Compatibility) CompatibleDonors(requested domain.BloodGroup, pool []domain.DonorRecord) []domain.DonorRecord {
	out := make([]domain.DonorRecord, 0, len(pool))
	for _, d := range pool {
		if d.Available && c.Allows(d.BloodGroup, requested) {
			out = append(out, d)
		}
	}
	return out
}

// CompatibleDonors applies the standard table.
func CompatibleDonors(requested domain.BloodGroup, pool []domain.DonorRecord) []domain.DonorRecord {
	return Compatibility{mode: ModeStandard}.CompatibleDonors(requested, pool)
}
