package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dochub-service/internal/domain"
	apperrors "github.com/spec-kit/dochub-service/pkg/util"
)

// IsAdmin reports whether the identity carries the elevated role.
func IsAdmin(identity *LoginClaims) bool {
	return identity != nil && identity.RoleID == domain.RoleAdmin
}

// RequireAdmin passes only identities with the elevated role.
func RequireAdmin(identity *LoginClaims) error {
	if !IsAdmin(identity) {
		return apperrors.NewForbidden("admin privileges required")
	}
	return nil
}

// RequireSelfOrAdmin passes when the identity owns the target resource or
// carries the elevated role.
func RequireSelfOrAdmin(identity *LoginClaims, targetSubjectID string) error {
	if identity != nil && identity.ID == targetSubjectID {
		return nil
	}
	if IsAdmin(identity) {
		return nil
	}
	return apperrors.NewForbidden("access denied: you can only access your own data")
}

// AdminRequired gates a route group behind the elevated role. Both gates are
// evaluated per request against the token's claims; a role change takes
// effect only once the subject's login entry is revoked and re-issued.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := RequireAdmin(identity); err != nil {
			return err
		}
		return c.Next()
	}
}

// SelfOrAdminRequired gates a route on ownership of the path parameter.
func SelfOrAdminRequired(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := RequireSelfOrAdmin(identity, c.Params(param)); err != nil {
			return err
		}
		return c.Next()
	}
}
