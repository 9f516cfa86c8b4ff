package keystore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/errno"
)

func TestEncryptDecrypt(t *testing.T) {
	priv, err := crypto_util.GenerateSecp256k1Key()
	require.NoError(t, err)

	keyJSON, err := Encrypt(priv, "secure-password", LightScryptN, LightScryptP)
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}
	assert.Equal(t, 3, keyJSON.Version)
	assert.Equal(t, "icx", keyJSON.CoinType)
	assert.NotEmpty(t, keyJSON.ID)

	decrypted, err := keyJSON.Decrypt("secure-password")
	require.NoError(t, err)
	assert.Equal(t, priv.D, decrypted.D)

	_, err = keyJSON.Decrypt("wrong-password")
	assert.ErrorIs(t, err, errno.ErrInvalidKeystore)
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestFileSaveLoad(t *testing.T) {
	priv, _ := crypto_util.GenerateSecp256k1Key()
	keyJSON, _ := Encrypt(priv, "123456", LightScryptN, LightScryptP)

	filename := filepath.Join(t.TempDir(), "keystore.json")
	require.NoError(t, keyJSON.SaveToFile(filename))

	loaded, err := LoadFromFile(filename)
	require.NoError(t, err)
	assert.Equal(t, keyJSON.ID, loaded.ID)
	assert.Equal(t, keyJSON.Address, loaded.Address)

	decrypted, err := loaded.Decrypt("123456")
	require.NoError(t, err)
	assert.Equal(t, priv.D, decrypted.D)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing version", `{"id":"x","address":"hx0123456789abcdef0123456789abcdef01234567"}`},
		{"missing id", `{"version":3,"address":"hx0123456789abcdef0123456789abcdef01234567"}`},
		{"missing address", `{"version":3,"id":"x"}`},
		{"eth address", `{"version":3,"id":"x","address":"0x0123456789abcdef0123456789abcdef01234567"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, errno.ErrInvalidKeystore)
		})
	}
}
