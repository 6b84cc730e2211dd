package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"

	"garagebill/internal/common"
	"garagebill/internal/config"
)

// JWTCustomClaims are the claims issued by the auth service. The owner is
// the garage whose inventory and jobs the caller works on.
type JWTCustomClaims struct {
	UserID  string `json:"user_id"`
	OwnerID string `json:"owner_id"`
	jwt.RegisteredClaims
}

// Session converts the claims into a session. UserID falls back to the
// subject claim.
func (c *JWTCustomClaims) Session() (common.Session, error) {
	userRaw := c.UserID
	if userRaw == "" {
		userRaw = c.Subject
	}
	userID, err := uuid.Parse(userRaw)
	if err != nil {
		return common.Session{}, fmt.Errorf("invalid user_id in token: %w", err)
	}
	ownerID, err := uuid.Parse(c.OwnerID)
	if err != nil {
		return common.Session{}, fmt.Errorf("invalid owner_id in token: %w", err)
	}
	return common.Session{UserID: userID, OwnerID: ownerID}, nil
}

// EnsureSigningKey generates a throwaway HMAC secret when neither a secret
// nor a JWKS endpoint is configured. Tokens signed with it die with the
// process, so this is for development only.
func EnsureSigningKey(cfg *config.AuthConfig) bool {
	if cfg.JWTSecret != "" || cfg.JWKSURL != "" {
		return false
	}
	cfg.JWTSecret = random.String(32)
	log.Printf("WARNING: No JWT secret or JWKS URL configured, using a generated development secret")
	return true
}

// NewJWTConfig builds the echo-jwt configuration. Tokens are checked against
// the JWKS endpoint when one is configured, else against the shared secret.
// The returned stop function ends the JWKS background refresh.
func NewJWTConfig(cfg config.AuthConfig) (echojwt.Config, func(), error) {
	jwtConfig := echojwt.Config{
		TokenLookup: "header:Authorization:Bearer ,query:token",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JWTCustomClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*JWTCustomClaims)
			if !ok {
				return
			}
			session, err := claims.Session()
			if err != nil {
				log.Printf("Rejecting token claims: %v", err)
				return
			}
			c.SetRequest(c.Request().WithContext(common.WithSession(c.Request().Context(), session)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Invalid or missing token", nil))
		},
	}

	stop := func() {}
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Printf("JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			return echojwt.Config{}, nil, fmt.Errorf("failed to load JWKS from %s: %w", cfg.JWKSURL, err)
		}
		jwtConfig.KeyFunc = jwks.Keyfunc
		stop = jwks.EndBackground
		return jwtConfig, stop, nil
	}

	if cfg.JWTSecret == "" {
		return echojwt.Config{}, nil, errors.New("either a JWT secret or a JWKS URL is required")
	}
	jwtConfig.SigningKey = []byte(cfg.JWTSecret)
	return jwtConfig, stop, nil
}

// RequireSession rejects requests whose token verified but carried no
// usable owner. It runs after the JWT middleware.
func RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := common.GetSessionFromContext(c.Request().Context()); !ok {
			return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("UNAUTHORIZED", "Token does not identify an owner", nil))
		}
		return next(c)
	}
}
