package passhash

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role уровень доступа оператора в API планировщика
type Role string

// RoleOperator полный доступ к сетям, запросам и отчётам
const RoleOperator Role = "operator"

// Назначение токена. Refresh-токен не принимается как access и наоборот.
const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// JWTConfig конфигурация JWT
type JWTConfig struct {
	SecretKey          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// DefaultJWTConfig возвращает конфигурацию по умолчанию
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:          "change-me-in-production",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             "transit-planner",
	}
}

// OperatorClaims claims учётной записи оператора
type OperatorClaims struct {
	Login    string `json:"login"`
	Role     Role   `json:"role"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTManager выпускает и проверяет токены операторов
type JWTManager struct {
	config *JWTConfig
}

// NewJWTManager создаёт новый менеджер JWT
func NewJWTManager(config *JWTConfig) *JWTManager {
	if config == nil {
		config = DefaultJWTConfig()
	}
	return &JWTManager{config: config}
}

// GenerateAccessToken генерирует access token оператора
func (m *JWTManager) GenerateAccessToken(login string, role Role) (string, error) {
	return m.generateToken(login, role, useAccess, m.config.AccessTokenExpiry)
}

// GenerateRefreshToken генерирует refresh token оператора
func (m *JWTManager) GenerateRefreshToken(login string, role Role) (string, error) {
	return m.generateToken(login, role, useRefresh, m.config.RefreshTokenExpiry)
}

func (m *JWTManager) generateToken(login string, role Role, use string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := &OperatorClaims{
		Login:    login,
		Role:     role,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateAccessToken проверяет access token и возвращает claims оператора
func (m *JWTManager) ValidateAccessToken(tokenString string) (*OperatorClaims, error) {
	claims, err := m.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != useAccess {
		return nil, fmt.Errorf("token is not an access token")
	}
	return claims, nil
}

func (m *JWTManager) parseToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.SecretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// GetAccessTokenExpiry возвращает время жизни access token в секундах
func (m *JWTManager) GetAccessTokenExpiry() int64 {
	return int64(m.config.AccessTokenExpiry.Seconds())
}

// RefreshAccessToken выпускает новый access token по refresh-токену
func (m *JWTManager) RefreshAccessToken(refreshToken string) (string, *OperatorClaims, error) {
	claims, err := m.parseToken(refreshToken)
	if err != nil {
		return "", nil, err
	}
	if claims.TokenUse != useRefresh {
		return "", nil, fmt.Errorf("token is not a refresh token")
	}

	newAccessToken, err := m.GenerateAccessToken(claims.Login, claims.Role)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, claims, nil
}
