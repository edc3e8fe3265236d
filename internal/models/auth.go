package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleCoach   UserRole = "COACH"
	RoleStudent UserRole = "STUDENT"
)

// JWTClaims carries the identity minted by the external auth provider.
// The core never issues tokens; it only verifies them and threads the
// embedded team/actor identity through every operation.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	TeamID string   `json:"team_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
