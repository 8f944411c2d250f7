package visitor

import dErrors "visitors/pkg/domain-errors"

// Validator enforces the single structural invariant on visitor records
// before persistence. It is side-effect-free.
type Validator struct{}

// Validate rejects nil records and records whose name is empty. The name is
// checked literally; whitespace-only names pass.
func (Validator) Validate(v *Visitor) error {
	if v == nil {
		return dErrors.New(dErrors.CodeBadRequest, "visitor cannot be nil")
	}
	if v.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "visitor name cannot be empty")
	}
	return nil
}
