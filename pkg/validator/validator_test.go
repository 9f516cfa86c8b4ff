package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferForm struct {
	To     string `validate:"required,icx_eoa"`
	Amount string `validate:"required,icx_amount"`
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	ok := transferForm{To: "hx0123456789abcdef0123456789abcdef01234567", Amount: "50.5"}
	assert.NoError(t, v.Struct(ok))

	bad := transferForm{To: "cx0000000000000000000000000000000000000000", Amount: "abc"}
	err := v.Struct(bad)
	require.Error(t, err)

	msg := GetErrorMsg(err)
	assert.Contains(t, msg, "To 不是有效的 ICON 地址")
	assert.Contains(t, msg, "Amount 不是有效的金额")
}
