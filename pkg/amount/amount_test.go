package amount

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/pkg/errno"
)

func TestRoundTripFromLoop(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890123456789", 10)
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(1_000_000_000_000_000_000),
		big.NewInt(50_500_000_000_000_000),
		huge,
	}

	for _, v := range values {
		got, err := ToLoop(ToDisplay(v))
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(got), "round trip 失败: %s != %s", v, got)
	}
}

func TestRoundTripFromDisplay(t *testing.T) {
	inputs := []string{"0", "50.5", "0.000000000000000001", "10.00005", "99999999999999999999.123456789012345678"}

	for _, in := range inputs {
		d := decimal.RequireFromString(in)
		loop, err := ToLoop(d)
		require.NoError(t, err)
		assert.True(t, d.Equal(ToDisplay(loop)), "round trip 失败: %s", in)
	}
}

func TestToLoop(t *testing.T) {
	loop, err := ToLoop(decimal.RequireFromString("50.5"))
	require.NoError(t, err)
	assert.Equal(t, "50500000000000000000", loop.String())

	_, err = ToLoop(decimal.RequireFromString("0.0000000000000000001"))
	assert.ErrorIs(t, err, errno.ErrInvalidAmount, "超过 18 位小数应该失败")

	_, err = ToLoop(decimal.RequireFromString("-1"))
	assert.ErrorIs(t, err, errno.ErrInvalidAmount)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0x2bcd40a70853a0000", "50500000000000000000", false},
		{"0x0", "0", false},
		{"1000", "1000", false},
		{"0xzz", "", true},
		{"abc", "", true},
		{"-5", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLoop(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, errno.ErrInvalidAmount, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String())
	}

	_, err := ParseDisplay("1.2.3")
	assert.ErrorIs(t, err, errno.ErrInvalidAmount)
	d, err := ParseDisplay(" 50.5 ")
	require.NoError(t, err)
	assert.Equal(t, "50.5", d.String())
}

func TestToHex(t *testing.T) {
	assert.Equal(t, "0x2bcd40a70853a0000", ToHex(big.NewInt(0).Mul(big.NewInt(505), big.NewInt(100_000_000_000_000_000))))
	assert.Equal(t, "0x0", ToHex(nil))
}

func TestTruncate(t *testing.T) {
	claimed := decimal.RequireFromString("10.00005")
	per := Truncate(claimed.Div(decimal.NewFromInt(3)), 4)
	assert.Equal(t, "3.3333", per.String())
	assert.True(t, per.Mul(decimal.NewFromInt(3)).LessThanOrEqual(claimed))

	assert.Equal(t, "-1.2345", Truncate(decimal.RequireFromString("-1.23459"), 4).String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12", Format(decimal.NewFromInt(12), 4))
	assert.Equal(t, "1.2346", Format(decimal.RequireFromString("1.23456"), 4))
}
