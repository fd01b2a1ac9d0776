package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Nerzal/gocloak/v13"

	"github.com/DosDaiynSol/infinity-life-assistant/config"
)

// AuthHandler validates operator bearer tokens against Keycloak. The bot has
// no user accounts of its own; anyone with a valid token in the realm is the
// operator.
type AuthHandler struct {
	keycloak *gocloak.GoCloak
	clientId string
	secret   string
	realm    string
}

func NewAuthHandler(keycloak *gocloak.GoCloak) *AuthHandler {
	return &AuthHandler{
		keycloak: keycloak,
		secret:   config.Config.KeycloakClientSecret,
		realm:    config.Config.KeycloakRealm,
		clientId: config.Config.KeycloakClientID,
	}
}

// Operator identifies the authenticated caller.
type Operator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetOperator resolves the Authorization header to an Operator. Any failure
// maps to 401 except Keycloak being unreachable, which is a 500.
func (h *AuthHandler) GetOperator(ctx context.Context, authHeader string) Result {
	if authHeader == "" {
		return Unauthorized("Missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return Unauthorized("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	introspection, err := h.keycloak.RetrospectToken(ctx, token, h.clientId, h.secret, h.realm)
	if err != nil {
		return Unauthorized("Invalid token")
	}
	if introspection.Active == nil || !*introspection.Active {
		return Unauthorized("Token is not active")
	}

	userInfo, err := h.keycloak.GetUserInfo(ctx, token, h.realm)
	if err != nil {
		return InternalError(err, "Failed to get user info")
	}
	if userInfo == nil || userInfo.Sub == nil {
		return Unauthorized("User not found")
	}

	operator := Operator{ID: *userInfo.Sub}
	if userInfo.PreferredUsername != nil {
		operator.Name = *userInfo.PreferredUsername
	}
	if operator.Name == "" && userInfo.Email != nil {
		operator.Name = strings.Split(*userInfo.Email, "@")[0]
	}

	return Result{Code: http.StatusOK, Body: operator}
}
