package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiryana-inventory/pkg/jwt"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	tok, err := jwt.Generate("secreto", "u-1", "manager", "kiryana-inventory", 5)
	require.NoError(t, err)

	userID, role, err := jwt.Parse("secreto", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, "manager", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := jwt.Generate("secreto", "u-1", "staff", "kiryana-inventory", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := jwt.Generate("secreto", "u-1", "staff", "kiryana-inventory", -1)
	require.NoError(t, err)

	_, _, err = jwt.Parse("secreto", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u-1", "staff", "x", 5)
	assert.Error(t, err)
}
