package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/exception-notifier/backend/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("auth config invalid")
)

// TokenVerifier - 인바운드 Bearer 토큰 검증, 성공 시 subject 반환
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// NewTokenVerifier - 설정에 따라 검증기 생성
//   - INBOUND_OIDC_ISSUER: OIDC(예: Azure AD) ID 토큰 검증
//   - INBOUND_JWT_SECRET: HS256 등 HMAC 서명 토큰 검증
//   - 둘 다 없으면 nil (인증 없음)
func NewTokenVerifier(ctx context.Context, cfg config.AuthConfig) (TokenVerifier, error) {
	switch {
	case cfg.OIDCIssuer != "" && cfg.JWTSecret != "":
		return nil, fmt.Errorf("%w: set only one of INBOUND_OIDC_ISSUER and INBOUND_JWT_SECRET", ErrMisconfigured)
	case cfg.OIDCIssuer != "":
		v, err := NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCAudience)
		if err != nil {
			return nil, err
		}
		return v, nil
	case cfg.JWTSecret != "":
		return NewHMACVerifier(cfg.JWTSecret), nil
	default:
		return nil, nil
	}
}

// HMACVerifier - 공유 시크릿으로 서명된 JWT 검증 (exp 필수)
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *HMACVerifier) Verify(_ context.Context, tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

// OIDCVerifier - issuer discovery 기반 ID 토큰 검증
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: oidc discovery failed: %v", ErrMisconfigured, err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{
			ClientID:          audience,
			SkipClientIDCheck: audience == "",
		}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (string, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return "", ErrUnauthorized
	}
	return token.Subject, nil
}
