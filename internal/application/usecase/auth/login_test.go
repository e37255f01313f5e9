package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/auth"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	uc := NewLoginUseCase(hash, jwtSvc, logger.NewNopLogger())

	_, err = uc.Execute(context.Background(), LoginInput{Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	out, err := uc.Execute(context.Background(), LoginInput{Password: "s3cret"})
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestLogin_NotConfigured(t *testing.T) {
	uc := NewLoginUseCase("", nil, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), LoginInput{Password: "x"})

	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}
