// Package auth issues and checks the signed tokens of admin and member
// logins.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtIssuer   = "recogym-api"
	jwtAudience = "recogym-staff"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	RoleAdmin  = "admin"
	RoleMember = "socio"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrUnknownRole      = errors.New("unknown role")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
)

// KnownRole reports whether role is one the API grants access to.
func KnownRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// Identity is who a token speaks for. Member logins use the member code as
// their username.
type Identity struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// MemberCode returns the member code a socio login belongs to.
func (id Identity) MemberCode() (string, bool) {
	if id.Role != RoleMember || id.Username == "" {
		return "", false
	}
	return id.Username, true
}

type JWTClaims struct {
	Identity
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hashedPassword, plainPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword)) == nil
}

func sign(id Identity, tokenType string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}
	if !KnownRole(id.Role) {
		return "", ErrUnknownRole
	}

	now := time.Now()
	claims := &JWTClaims{
		Identity:  id,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  []string{jwtAudience},
			Subject:   id.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func GenerateAccessToken(userID int, username, role, secret string) (string, error) {
	return sign(Identity{UserID: userID, Username: username, Role: role}, tokenTypeAccess, AccessTokenTTL, secret)
}

func GenerateRefreshToken(userID int, username, role, secret string) (string, error) {
	return sign(Identity{UserID: userID, Username: username, Role: role}, tokenTypeRefresh, RefreshTokenTTL, secret)
}

// GenerateTokens issues an access and a refresh token for the same identity.
func GenerateTokens(userID int, username, role, secret string) (accessToken, refreshToken string, err error) {
	if accessToken, err = GenerateAccessToken(userID, username, role, secret); err != nil {
		return "", "", err
	}
	if refreshToken, err = GenerateRefreshToken(userID, username, role, secret); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// ValidateToken checks signature, issuer, audience and expiry, and rejects
// tokens whose role the API does not know.
func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !KnownRole(claims.Role) {
		return nil, ErrUnknownRole
	}
	return claims, nil
}

// parseAs validates tokenString and requires it to be of tokenType.
func parseAs(tokenString, tokenType, secret string) (*JWTClaims, error) {
	claims, err := ValidateToken(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

func RefreshAccessToken(refreshToken, secret string) (string, *JWTClaims, error) {
	claims, err := parseAs(refreshToken, tokenTypeRefresh, secret)
	if err != nil {
		return "", nil, err
	}

	access, err := sign(claims.Identity, tokenTypeAccess, AccessTokenTTL, secret)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}
