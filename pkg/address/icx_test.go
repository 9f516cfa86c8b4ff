package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/pkg/crypto_util"
)

func TestPubKeyToAddress(t *testing.T) {
	priv, err := crypto_util.GenerateSecp256k1Key()
	require.NoError(t, err)

	pub := crypto_util.PublicKeyBytes(priv)
	addr, err := PubKeyToAddress(pub)
	require.NoError(t, err)
	assert.True(t, IsEOA(addr), "生成的地址格式不正确: %s", addr)

	// 去掉 0x04 前缀结果一致
	addr2, err := PubKeyToAddress(pub[1:])
	require.NoError(t, err)
	assert.Equal(t, addr, addr2)

	_, err = PubKeyToAddress(pub[:10])
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		addr     string
		eoa      bool
		contract bool
	}{
		{"hx" + "0123456789abcdef0123456789abcdef01234567", true, false},
		{GovernanceScore, false, true},
		{"hx0123", false, false},
		{"HX0123456789abcdef0123456789abcdef01234567", false, false},
		{"0x0123456789abcdef0123456789abcdef01234567", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.eoa, IsEOA(tt.addr), tt.addr)
		assert.Equal(t, tt.contract, IsContract(tt.addr), tt.addr)
		assert.Equal(t, tt.eoa || tt.contract, IsValid(tt.addr), tt.addr)
	}
}
