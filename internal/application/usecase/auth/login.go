package auth

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/khoahotran/portfolio-site/pkg/apperror"
	"github.com/khoahotran/portfolio-site/pkg/auth"
	"github.com/khoahotran/portfolio-site/pkg/logger"
)

// LoginUseCase authenticates the single site administrator against a
// bcrypt hash taken from configuration.
type LoginUseCase struct {
	passwordHash string
	jwtSvc       *auth.JWTService
	logger       logger.Logger
}

func NewLoginUseCase(passwordHash string, jwtSvc *auth.JWTService, log logger.Logger) *LoginUseCase {
	return &LoginUseCase{
		passwordHash: passwordHash,
		jwtSvc:       jwtSvc,
		logger:       log,
	}
}

type LoginInput struct {
	Password string
}

type LoginOutput struct {
	AccessToken string
}

var tracer = otel.Tracer("auth_usecase")

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	_, span := tracer.Start(ctx, "Execute")
	defer span.End()

	if uc.passwordHash == "" || uc.jwtSvc == nil {
		err := apperror.NewUnavailable("Admin login not configured", "Set JWT_SECRET and ADMIN_PASSWORD_HASH", nil)
		span.RecordError(err)
		return nil, err
	}

	if !auth.CheckPasswordHash(input.Password, uc.passwordHash) {
		err := apperror.NewUnauthorized("incorrect password", nil)
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateToken(auth.RoleAdmin)
	if err != nil {
		uc.logger.Error("Failed to generate token", err)
		err = apperror.NewInternal("failed to generate token", err)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("role", auth.RoleAdmin))
	return &LoginOutput{AccessToken: token}, nil
}
