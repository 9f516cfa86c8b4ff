package bip39

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSeed(t *testing.T) {
	s := NewMnemonicService()

	for _, words := range []int{12, 24} {
		mnemonic, err := s.Generate(words)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(mnemonic), words)
		assert.True(t, s.Valid(mnemonic))

		seed, err := s.Seed(mnemonic, "")
		require.NoError(t, err)
		assert.Len(t, seed, 64)
	}

	_, err := s.Generate(13)
	assert.Error(t, err)
}

func TestSeedRejectsInvalid(t *testing.T) {
	s := NewMnemonicService()
	_, err := s.Seed("abandon abandon", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
	assert.False(t, s.Valid("abandon abandon"))
}

func TestNormalize(t *testing.T) {
	const canonical = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	messy := "  Abandon abandon\tabandon abandon abandon abandon\nabandon abandon abandon abandon abandon ABOUT "
	assert.Equal(t, canonical, Normalize(messy))

	s := NewMnemonicService()
	a, err := s.Seed(messy, "")
	require.NoError(t, err)
	b, err := s.Seed(canonical, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
