package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userbase/userbase/internal/config"
)

func newTokenService(t *testing.T, accessExpiry, refreshExpiry time.Duration) *TokenService {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s, err := NewTokenService(&config.JWTConfig{
		AccessSecretKey:  "access-secret-key-0123456789abcdef",
		RefreshSecretKey: "refresh-secret-key-0123456789abcde",
		AccessExpiry:     accessExpiry,
		RefreshExpiry:    refreshExpiry,
	}, logger)
	require.NoError(t, err)

	return s
}

func TestNewTokenService_ShortKeys(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := NewTokenService(&config.JWTConfig{
		AccessSecretKey:  "too-short",
		RefreshSecretKey: "refresh-secret-key-0123456789abcde",
	}, logger)
	assert.Error(t, err)

	_, err = NewTokenService(&config.JWTConfig{
		AccessSecretKey:  "access-secret-key-0123456789abcdef",
		RefreshSecretKey: "too-short",
	}, logger)
	assert.Error(t, err)
}

func TestMintAndVerify_RoundTrip(t *testing.T) {
	s := newTokenService(t, time.Hour, 7*24*time.Hour)

	access, err := s.MintAccess("u1")
	require.NoError(t, err)
	userID, err := s.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	refresh, err := s.MintRefresh("u1")
	require.NoError(t, err)
	userID, err = s.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestVerify_WrongKind(t *testing.T) {
	s := newTokenService(t, time.Hour, 7*24*time.Hour)

	access, err := s.MintAccess("u1")
	require.NoError(t, err)
	refresh, err := s.MintRefresh("u1")
	require.NoError(t, err)

	_, err = s.VerifyRefresh(access)
	assert.Error(t, err, "access token must not verify against the refresh key")

	_, err = s.VerifyAccess(refresh)
	assert.Error(t, err, "refresh token must not verify against the access key")
}

func TestVerify_Expired(t *testing.T) {
	s := newTokenService(t, -time.Minute, -time.Minute)

	access, err := s.MintAccess("u1")
	require.NoError(t, err)
	_, err = s.VerifyAccess(access)
	assert.Error(t, err)

	refresh, err := s.MintRefresh("u1")
	require.NoError(t, err)
	_, err = s.VerifyRefresh(refresh)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	s := newTokenService(t, time.Hour, 7*24*time.Hour)

	for _, token := range []string{"", "garbage", "not.a.jwt"} {
		_, err := s.VerifyAccess(token)
		assert.Error(t, err)
	}
}

func TestVerify_DifferentService(t *testing.T) {
	s := newTokenService(t, time.Hour, 7*24*time.Hour)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	other, err := NewTokenService(&config.JWTConfig{
		AccessSecretKey:  "other-access-key-0123456789abcdefgh",
		RefreshSecretKey: "other-refresh-key-0123456789abcdefg",
		AccessExpiry:     time.Hour,
		RefreshExpiry:    7 * 24 * time.Hour,
	}, logger)
	require.NoError(t, err)

	access, err := other.MintAccess("u1")
	require.NoError(t, err)

	_, err = s.VerifyAccess(access)
	assert.Error(t, err, "token signed with a foreign key must be rejected")
}
