package utils_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OumaArera/goalkeepers-server-sub000/internal/utils"
)

func TestTokenRoundTrip(t *testing.T) {
	subjectID := uuid.New()

	token, err := utils.GenerateToken("test-secret", subjectID, "admin", time.Hour)
	require.NoError(t, err)

	parsedID, role, err := utils.ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, subjectID, parsedID)
	assert.Equal(t, "admin", role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := utils.GenerateToken("test-secret", uuid.New(), "customer", time.Hour)
	require.NoError(t, err)

	_, _, err = utils.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := utils.GenerateToken("test-secret", uuid.New(), "customer", -time.Minute)
	require.NoError(t, err)

	_, _, err = utils.ParseToken("test-secret", token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := utils.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, utils.CheckPassword(hash, "s3cret-pass"))
	assert.False(t, utils.CheckPassword(hash, "wrong-pass"))
}

type validatedRequest struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

func TestValidateStruct(t *testing.T) {
	err := utils.ValidateStruct(validatedRequest{Name: "Jane", Email: "jane@example.com"})
	assert.NoError(t, err)

	err = utils.ValidateStruct(validatedRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "Email")
}
