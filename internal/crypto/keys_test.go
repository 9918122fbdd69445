package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize, "salt должен быть %d bytes", SaltSize)

	// Соль не должна состоять из одних нулей
	hasNonZero := false
	for _, b := range salt {
		if b != 0 {
			hasNonZero = true
			break
		}
	}
	assert.True(t, hasNonZero, "salt не должна состоять из одних нулей")

	// Две соли подряд не совпадают
	salt2, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt, salt2)
}

func TestGenerateSaltBase64(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)
	require.NotEmpty(t, saltBase64)

	decoded, err := base64.StdEncoding.DecodeString(saltBase64)
	require.NoError(t, err)
	assert.Len(t, decoded, SaltSize)
}

func TestDeriveAuthKey(t *testing.T) {
	salt := make([]byte, SaltSize)
	copy(salt, []byte("0123456789abcdef0123456789abcdef"))

	tests := []struct {
		name     string
		password string
		username string
		salt     []byte
		wantErr  bool
	}{
		{
			name:     "successful derivation",
			password: "correct horse battery staple",
			username: "alice",
			salt:     salt,
		},
		{
			name:     "empty password",
			password: "",
			username: "alice",
			salt:     salt,
			wantErr:  true,
		},
		{
			name:     "empty username",
			password: "correct horse battery staple",
			username: "",
			salt:     salt,
			wantErr:  true,
		},
		{
			name:     "wrong salt size",
			password: "correct horse battery staple",
			username: "alice",
			salt:     []byte("short"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveAuthKey(tt.password, tt.username, tt.salt)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, Argon2KeyLen)
		})
	}
}

func TestDeriveAuthKey_Deterministic(t *testing.T) {
	salt := make([]byte, SaltSize)
	copy(salt, []byte("0123456789abcdef0123456789abcdef"))

	key1, err := DeriveAuthKey("password123456", "alice", salt)
	require.NoError(t, err)
	key2, err := DeriveAuthKey("password123456", "alice", salt)
	require.NoError(t, err)

	// Одинаковый вход - одинаковый ключ (иначе логин не сработает)
	assert.Equal(t, key1, key2)

	// Разные пользователи - разные ключи
	key3, err := DeriveAuthKey("password123456", "bob", salt)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)
}

func TestDeriveAuthKeyFromBase64Salt(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)

	key, err := DeriveAuthKeyFromBase64Salt("password123456", "alice", saltBase64)
	require.NoError(t, err)
	assert.Len(t, key, Argon2KeyLen)

	_, err = DeriveAuthKeyFromBase64Salt("password123456", "alice", "not-base64!!!")
	assert.Error(t, err)
}
