package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", SimulationTokenTTLHours: 1, InstructorTokenTTLHours: 1}
}

func TestSimulationToken(t *testing.T) {
	cfg := testConfig()
	token, exp, err := IssueSimulationToken(cfg, "sim_abc")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	c, err := Parse(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, RoleController, c.Role)
	assert.True(t, c.Authorizes("sim_abc"))
	assert.False(t, c.Authorizes("sim_other"))
}

func TestInstructorTokenAuthorizesEverything(t *testing.T) {
	cfg := testConfig()
	token, _, err := IssueInstructorToken(cfg, "ada")
	require.NoError(t, err)

	c, err := Parse(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "ada", c.Subject)
	assert.True(t, c.Authorizes("sim_any"))
}

func TestParseRejects(t *testing.T) {
	cfg := testConfig()
	good, _, err := IssueSimulationToken(cfg, "sim_abc")
	require.NoError(t, err)

	other := testConfig()
	other.JWTSecret = "other"
	_, err = Parse(other, good)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	expired, err := sign(cfg, jwt.MapClaims{"sim_id": "sim_abc", "role": RoleController, "exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	_, err = Parse(cfg, expired)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	noRole, err := sign(cfg, jwt.MapClaims{"sim_id": "sim_abc"})
	require.NoError(t, err)
	_, err = Parse(cfg, noRole)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing role")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sim_id": "sim_abc", "role": RoleController})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = Parse(cfg, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	_, err = Parse(cfg, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
