package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsMessageVerbatim(t *testing.T) {
	cause := errors.New("Out of balance")
	err := Wrap(ErrSubmissionRejected, cause)

	assert.Equal(t, "Out of balance", err.Error())
	assert.True(t, errors.Is(err, ErrSubmissionRejected))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrUserRejected))
}

func TestWrapNilCauseUsesKindMessage(t *testing.T) {
	err := Wrap(ErrUserRejected, nil)
	assert.Equal(t, ErrUserRejected.Message, err.Error())
}

func TestStepFailedMatchesInnerKind(t *testing.T) {
	inner := Wrap(ErrConfirmationTimeout, errors.New("Pending transaction"))
	err := StepFailed("stake", inner)

	assert.True(t, errors.Is(err, ErrChainStepFailed))
	assert.True(t, errors.Is(err, ErrConfirmationTimeout))

	var e *Error
	if assert.True(t, errors.As(err, &e)) {
		assert.Equal(t, "stake", e.Step)
	}
	assert.Equal(t, "Pending transaction", err.Error())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"nil", nil, OK.Code, OK.Message},
		{"bare errno", ErrNoSession, ErrNoSession.Code, ErrNoSession.Message},
		{"wrapped", Wrap(ErrInvalidAmount, errors.New("bad")), ErrInvalidAmount.Code, "bad"},
		{"fmt wrapped", fmt.Errorf("ctx: %w", Wrap(ErrRPC, errors.New("down"))), ErrRPC.Code, "ctx: down"},
		{"plain", errors.New("boom"), InternalServerError.Code, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Decode(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestWithMessage(t *testing.T) {
	err := ErrBind.WithMessage("to 不是有效的 ICON 地址")
	code, msg := Decode(err)
	assert.Equal(t, ErrBind.Code, code)
	assert.Equal(t, "to 不是有效的 ICON 地址", msg)
}
