package crypto_util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashes(t *testing.T) {
	input := []byte("hello world")

	sha3Hash := CalculateSHA3256(input)
	assert.Equal(t, "644bcc7e564373040999aac89e7622f3ca71fba1d972fd94a31c3bfbf24e3938", sha3Hash)

	blake3Hash := CalculateBlake3(input)
	if len(blake3Hash) != 64 {
		t.Errorf("Blake3 哈希长度不匹配: 得到 %d, 期望 64", len(blake3Hash))
	}
	assert.NotEqual(t, sha3Hash, blake3Hash)
}

func TestSignRecover(t *testing.T) {
	priv, err := GenerateSecp256k1Key()
	require.NoError(t, err)

	digest := SHA3256([]byte("icx_sendTransaction.from.hx1"))
	sig, err := SignRecoverable(priv, digest)
	require.NoError(t, err)
	assert.Len(t, sig, SignatureLength)

	pub, err := RecoverPublicKey(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, PublicKeyBytes(priv), pub)

	_, err = SignRecoverable(priv, []byte("short"))
	assert.Error(t, err, "非 32 字节摘要应该失败")

	restored, err := PrivateKeyFromBytes(PrivateKeyBytes(priv))
	require.NoError(t, err)
	assert.Equal(t, priv.D, restored.D)
}
