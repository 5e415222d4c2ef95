package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jcgsville/postgresql-parsing/core"
)

var (
	errAuthRequired = errors.New("authentication required: send AUTH JWT <token>")
	errTokenExpired = errors.New("token expired: authenticate again")
)

// AuthConfig configures server authentication.
type AuthConfig struct {
	// Enabled requires every connection to authenticate before parsing.
	Enabled bool

	// JWTSecret is the shared secret for HS256/384/512 validation.
	JWTSecret string

	// Issuer is the expected "iss" claim (optional).
	Issuer string

	// Audience is the expected "aud" claim (optional).
	Audience string

	// NameClaim is the claim holding the user's name (default: "name").
	NameClaim string

	// EmailClaim is the claim holding the user's email (default: "email").
	EmailClaim string
}

func (config *AuthConfig) claimNames() (string, string) {
	nameClaim, emailClaim := config.NameClaim, config.EmailClaim
	if nameClaim == "" {
		nameClaim = "name"
	}
	if emailClaim == "" {
		emailClaim = "email"
	}
	return nameClaim, emailClaim
}

// ConnectionState tracks the session of one connection.
type ConnectionState struct {
	session       string
	identity      *core.Identity
	authenticated bool
	tokenExpiry   time.Time
}

func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.authenticated
}

// Identity returns the connection's identity, or nil if not authenticated.
func (cs *ConnectionState) Identity() *core.Identity {
	return cs.identity
}

// expired reports whether the token used to authenticate has run out.
func (cs *ConnectionState) expired(now time.Time) bool {
	return cs.authenticated && !cs.tokenExpiry.IsZero() && now.After(cs.tokenExpiry)
}

// validateJWT checks tokenString against the server's auth settings and
// returns the identity carried in its claims.
func (s *Server) validateJWT(tokenString string) (core.Identity, time.Time, error) {
	if s.authConfig == nil || s.authConfig.JWTSecret == "" {
		return core.Identity{}, time.Time{}, errors.New("authentication not configured")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if s.authConfig.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.authConfig.Issuer))
	}
	if s.authConfig.Audience != "" {
		options = append(options, jwt.WithAudience(s.authConfig.Audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.authConfig.JWTSecret), nil
	}, options...)
	if err != nil {
		return core.Identity{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	nameClaim, emailClaim := s.authConfig.claimNames()
	name, _ := claims[nameClaim].(string)
	email, _ := claims[emailClaim].(string)
	if name == "" && email == "" {
		return core.Identity{}, time.Time{}, fmt.Errorf("token missing identity claims (%s or %s)", nameClaim, emailClaim)
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return core.Identity{Name: name, Email: email}, expiresAt, nil
}

// isAuthCommand reports whether line starts with the AUTH keyword.
func isAuthCommand(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.EqualFold(fields[0], "AUTH")
}

// parseAuthCommand splits "AUTH JWT <token>" into type and token.
func parseAuthCommand(line string) (authType, token string, err error) {
	if !isAuthCommand(line) {
		return "", "", errors.New("not an AUTH command")
	}

	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(parts[1])
	if authType != "JWT" {
		return "", "", fmt.Errorf("unsupported auth type: %s", parts[1])
	}
	return authType, parts[2], nil
}

func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	_, token, err := parseAuthCommand(line)
	if err != nil {
		return errorResponse("auth", err)
	}

	identity, expiresAt, err := s.validateJWT(token)
	if err != nil {
		s.logger.Warn("authentication failed", "session", state.session, "error", err)
		return errorResponse("auth", err)
	}

	state.identity = &identity
	state.authenticated = true
	state.tokenExpiry = expiresAt
	s.logger.Info("authenticated", "session", state.session, "identity", identity.String())

	ar := AuthResponse{
		Authenticated: true,
		Identity:      identity.String(),
		Session:       state.session,
	}
	if !expiresAt.IsZero() {
		ar.ExpiresIn = int(time.Until(expiresAt).Seconds())
	}

	data, _ := json.Marshal(ar)
	return Response{
		Success: true,
		Type:    "auth",
		Result:  data,
	}
}

// authorize returns an error response when the connection may not parse yet.
func (s *Server) authorize(state *ConnectionState) *Response {
	if s.authConfig == nil || !s.authConfig.Enabled {
		return nil
	}
	if !state.IsAuthenticated() {
		resp := errorResponse("parse", errAuthRequired)
		return &resp
	}
	if state.expired(time.Now()) {
		state.authenticated = false
		state.identity = nil
		resp := errorResponse("parse", errTokenExpired)
		return &resp
	}
	return nil
}
