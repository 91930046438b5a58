package httpapi

import (
	"errors"
	"slices"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"fruitshop/backend/internal/domain"
)

const (
	defaultTokenTTL = 8 * time.Hour
	tokenIssuer     = "fruitshop"
)

var errInvalidToken = errors.New("invalid or expired token")

// AuthManager signs and verifies the bearer tokens handed out at login.
// Credentials themselves are checked by the backend.
type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

type shopClaims struct {
	jwtlib.RegisteredClaims
	Role        string   `json:"role"`
	Stores      []string `json:"stores"`
	Permissions []string `json:"permissions"`
}

func NewAuthManager(secret string, tokenTTL time.Duration) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthManager{secret: []byte(secret), tokenTTL: tokenTTL, now: time.Now}
}

// Issue signs a token for a successful login. The token carries the user's
// role, store ids and permissions so requests need no session lookup.
func (a *AuthManager) Issue(resp domain.LoginResponse) (string, time.Time, error) {
	now := a.now().UTC()
	expiresAt := now.Add(a.tokenTTL)
	stores := make([]string, 0, len(resp.Stores))
	for _, st := range resp.Stores {
		stores = append(stores, st.ID)
	}
	claims := shopClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   resp.User.Username,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Role:        resp.User.Role,
		Stores:      stores,
		Permissions: resp.Permissions,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &shopClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(tokenIssuer),
		jwtlib.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{
		Username:    sub,
		Role:        claims.Role,
		Stores:      claims.Stores,
		Permissions: claims.Permissions,
	}, nil
}

func canAccessStore(actor domain.Actor, storeID string) bool {
	return slices.Contains(actor.Stores, storeID)
}

func hasAnyPermission(actor domain.Actor, permissions []string) bool {
	if len(permissions) == 0 {
		return true
	}
	return slices.ContainsFunc(permissions, func(p string) bool {
		return slices.Contains(actor.Permissions, p)
	})
}
