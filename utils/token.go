package utils

import (
	"errors"
	"time"

	"retailtasks/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Claims struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	Role      string `json:"role"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for user valid for ttl from now.
func GenerateToken(secret string, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID:    user.ID.Hex(),
		CompanyID: user.Company.Hex(),
		Role:      string(user.Role),
		Username:  user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns the caller it identifies.
func ParseToken(secret, tokenString string) (models.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Actor{}, errors.New("invalid token claims")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Actor{}, errors.New("invalid user id in token")
	}
	companyID, err := primitive.ObjectIDFromHex(claims.CompanyID)
	if err != nil {
		return models.Actor{}, errors.New("invalid company id in token")
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return models.Actor{}, errors.New("invalid role in token")
	}

	return models.Actor{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
		Username:  claims.Username,
	}, nil
}
