// Package auth resolves the caller's session identity from a signed JWT
// carried in a cookie or the Authorization header, and issues or clears
// that token on login and logout. A request without a valid token simply
// stays anonymous; endpoints decide for themselves whether that is an
// error.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tinylink/internal/logger"
	"tinylink/internal/user"
)

type userKeeper interface {
	FindUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

// Auth issues and verifies session tokens.
type Auth struct {
	db userKeeper

	// authCookieName is the name of the cookie the JWT travels in.
	authCookieName string

	// signingSecretKey signs and verifies the JWTs.
	signingSecretKey []byte

	// sessionTTL bounds the lifetime of an issued session.
	sessionTTL time.Duration
}

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for context values to avoid collisions.
type ContextKey string

// UserIDKey is the context key the authenticated user's ID is stored
// under.
const UserIDKey ContextKey = "userID"

func New(
	db userKeeper,
	authCookieName string,
	signingSecretKey []byte,
	sessionTTL time.Duration,
) *Auth {
	return &Auth{
		db:               db,
		authCookieName:   authCookieName,
		signingSecretKey: signingSecretKey,
		sessionTTL:       sessionTTL,
	}
}

// UserIDFromContext extracts the session identity placed by the
// Authenticate middleware. The second result is false for anonymous
// requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// Authenticate is an HTTP middleware resolving an optional caller
// identity. A parseable token naming an existing user puts the user ID
// into the request context; anything else leaves the request anonymous
// and lets the handler decide.
func (a *Auth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID := a.getUserIDFromAuthorizationHeaderOrCookie(request)
		if userID == "" {
			h.ServeHTTP(response, request)
			return
		}

		_, found, err := a.db.FindUserByID(request.Context(), userID)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.FindUserByID()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !found {
			// Token from a previous process lifetime; the store resets on
			// restart, so treat it as anonymous.
			h.ServeHTTP(response, request)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// IssueSession signs a session token for userID and attaches it to the
// response as both the auth cookie and the Authorization header.
func (a *Auth) IssueSession(response http.ResponseWriter, userID string) error {
	now := time.Now()
	JWTString, err := a.buildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.sessionTTL)),
		},
		UserID: userID,
	})
	if err != nil {
		return err
	}

	response.Header().Set("Authorization", JWTString)
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    JWTString,
			Path:     "/",
			HttpOnly: true,
		},
	)

	return nil
}

// ClearSession invalidates the caller's session by expiring the auth
// cookie.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		},
	)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	if tokenString != "" {
		return tokenString
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}

func (a *Auth) getUserIDFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := a.getTokenStringFromAuthorizationHeaderOrCookie(request)
	if tokenString == "" {
		return ""
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
