package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "visitors/pkg/domain-errors"
)

func TestValidateRejectsNilVisitor(t *testing.T) {
	err := Validator{}.Validate(nil)
	assert.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestValidateRejectsEmptyName(t *testing.T) {
	err := Validator{}.Validate(&Visitor{Name: ""})
	assert.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestValidateAcceptsWhitespaceName(t *testing.T) {
	// The name check is literal; no trimming is applied.
	assert.NoError(t, Validator{}.Validate(&Visitor{Name: " "}))
}

func TestValidateAcceptsMinimalVisitor(t *testing.T) {
	assert.NoError(t, Validator{}.Validate(&Visitor{Name: "Ada"}))
}
