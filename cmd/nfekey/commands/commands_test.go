package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const validKey = "35240312345678000195550010000001231123456789"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput = false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "3524 0312 3456 7800 0195 5500 1000 0001 2311 2345 6789")
	require.NoError(t, err)
	assert.Contains(t, out, "check_digit")
	assert.Contains(t, out, "cnpj=12345678000195")

	_, err = run(t, "validate", validKey[:43]+"0")
	assert.ErrorIs(t, err, errInvalidKey)
}

func TestValidateCommand_JSON(t *testing.T) {
	out, err := run(t, "validate", "--json", validKey)
	require.NoError(t, err)

	var got validateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Valid)
	require.NotNil(t, got.Components)
	assert.Equal(t, "55", got.Components.Model)
	assert.Len(t, got.Checks, 5)
}

func TestHashKeyCommand(t *testing.T) {
	out, err := run(t, "hash-key", "sk_test_123")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("sk_test_123")))
}

func TestTokenCommand_RequiresSubject(t *testing.T) {
	tokenSubject = ""
	_, err := run(t, "token")
	assert.Error(t, err)
}
