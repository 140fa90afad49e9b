package models

import "github.com/golang-jwt/jwt/v5"

// ActorKind is the already-resolved role of the caller.
type ActorKind string

const (
	ActorAdmin   ActorKind = "ADMIN"
	ActorCompany ActorKind = "COMPANY"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID        string    `json:"id"`
	Kind      ActorKind `json:"kind"`
	CompanyID string    `json:"company_id,omitempty"`
}

// IsAdmin reports whether the actor administers pools.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Kind == ActorAdmin
}

// ActsFor reports whether the actor may operate on behalf of the company.
func (a *Actor) ActsFor(companyID string) bool {
	if a == nil {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	return a.Kind == ActorCompany && a.CompanyID != "" && a.CompanyID == companyID
}

// JWTClaims represents the payload of externally issued access tokens.
type JWTClaims struct {
	UserID    string    `json:"user_id"`
	Kind      ActorKind `json:"kind"`
	CompanyID string    `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts claims into the actor passed to services.
func (c *JWTClaims) Actor() *Actor {
	if c == nil {
		return nil
	}
	return &Actor{ID: c.UserID, Kind: c.Kind, CompanyID: c.CompanyID}
}
