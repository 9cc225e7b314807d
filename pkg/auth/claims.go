package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
)

// AccessTokenPayload is the input used to mint an access token.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.Role
	BranchID *uuid.UUID
	JTI      string
}

// AccessTokenClaims is the typed JWT claim set carried on every request.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"uid"`
	Role     enums.Role `json:"role"`
	BranchID *uuid.UUID `json:"branchId,omitempty"`
	jwt.RegisteredClaims
}
