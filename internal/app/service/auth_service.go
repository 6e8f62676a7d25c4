package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"vgp_platform/internal/common"
	"vgp_platform/internal/common/security"
)

// AuthService issues admin tokens. Candidate and employer tokens come from
// registration.
type AuthService struct {
	adminUser     string
	adminPassHash string
}

func NewAuthService(adminUser, adminPassHash string) *AuthService {
	return &AuthService{adminUser: adminUser, adminPassHash: adminPassHash}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Role  string `json:"role"`
	Token string `json:"token"`
}

func (s *AuthService) AdminLogin(_ context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}
	// An unset hash disables admin login.
	if s.adminPassHash == "" {
		return nil, common.ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.adminUser)) == 1
	if !security.CheckPasswordHash(req.Password, s.adminPassHash) || !userOK {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(s.adminUser, security.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Role: security.RoleAdmin, Token: token}, nil
}
