package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid 32-byte keys in hex (64 chars)
const (
	testAESKey     = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testRetiredKey = "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"
)

func TestAESEncryptionService_NewInvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("shortkey")
	assert.Error(t, err)

	_, err = NewAESEncryptionService(testAESKey, "zz")
	assert.Error(t, err)
}

func TestAESEncryptionService_EncryptDecrypt(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	secret := "whsec_9f2c1b7e"
	ciphertext, err := svc.Encrypt(secret)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, secret)

	decrypted, err := svc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)
	assert.False(t, svc.NeedsRotation(ciphertext))
}

func TestAESEncryptionService_DifferentNonces(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	c1, err := svc.Encrypt("whsec_same")
	require.NoError(t, err)
	c2, err := svc.Encrypt("whsec_same")
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2, "random nonce per seal")
}

func TestAESEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("whsec_x")
	require.NoError(t, err)

	tampered := ciphertext[:len(ciphertext)-2] + "ff"
	if tampered == ciphertext {
		tampered = ciphertext[:len(ciphertext)-2] + "00"
	}
	_, err = svc.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrUndecryptable)
}

func TestAESEncryptionService_KeyRotation(t *testing.T) {
	old, err := NewAESEncryptionService(testRetiredKey)
	require.NoError(t, err)
	sealedWithOld, err := old.Encrypt("whsec_legacy")
	require.NoError(t, err)

	rotated, err := NewAESEncryptionService(testAESKey, testRetiredKey)
	require.NoError(t, err)

	plaintext, err := rotated.Decrypt(sealedWithOld)
	require.NoError(t, err)
	assert.Equal(t, "whsec_legacy", plaintext)
	assert.True(t, rotated.NeedsRotation(sealedWithOld))

	withoutRetired, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)
	_, err = withoutRetired.Decrypt(sealedWithOld)
	assert.ErrorIs(t, err, ErrUndecryptable)
}

func TestAESEncryptionService_InvalidCiphertext(t *testing.T) {
	svc, _ := NewAESEncryptionService(testAESKey)

	_, err := svc.Decrypt("not-hex-at-all!!!")
	assert.Error(t, err)

	_, err = svc.Decrypt("abcdef")
	assert.ErrorIs(t, err, ErrUndecryptable)
}
