package workflow

import (
	"fmt"
	"strings"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

// ValidationError lists the required fields that are still empty on Step.
type ValidationError struct {
	Step          domain.Step
	MissingFields []string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("step %s: missing %s", v.Step, strings.Join(v.MissingFields, ", "))
}

func (v *ValidationError) Unwrap() error { return e.ErrValidation }
