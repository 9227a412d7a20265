package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION TOKENS
// Login issues a signed JWT carrying username and role; every protected
// endpoint validates it from the Authorization header.
// ══════════════════════════════════════════════════════════════════════════════

var errInvalidToken = errors.New("http: invalid token")

// Claims is the JWT payload for a dashboard session.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a session token for the account.
func (t *tokenIssuer) Issue(u user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates a token string and returns its claims.
func (t *tokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", errInvalidToken, tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type claimsCtxKey struct{}

// claimsFrom retrieves session claims placed by the auth middleware.
func claimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return c, ok
}

// authenticated requires a valid bearer token.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		claims, err := s.tokens.Parse(tokenString)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole requires a valid token carrying one of the given roles.
func (s *Server) requireRole(next http.HandlerFunc, roles ...user.Role) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFrom(r.Context())
		for _, role := range roles {
			if claims != nil && claims.Role == string(role) {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role for this operation")
	})
}
