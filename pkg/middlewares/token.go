package middlewares

import (
	t_token "clip_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//TokenOperator get operator form token, set c.locals name
	TokenOperator = "operator"
	//TokenRole get role form token, set c.locals name
	TokenRole = "role"
)

// JWTMiddleware validates the operator JWT, Authorization header first then query
// empty secret disables the check
func JWTMiddleware(secret []byte, roles ...t_token.RoleType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(secret) == 0 {
			return c.Next()
		}

		tokenStr, ok := t_token.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			tokenStr = c.Query(QueryToken)
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := t_token.ParseJWT(secret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient role",
			})
		}

		c.Locals(TokenOperator, claims.Operator)
		c.Locals(TokenRole, claims.Role)
		return c.Next()
	}
}

func hasRole(role t_token.RoleType, allowed []t_token.RoleType) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
