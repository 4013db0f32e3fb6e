package backend

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"projectchat/internal/models"
)

// Identity extracts the current user from the auth token's claims without
// verifying the signature; verification is the server's responsibility
// and the client holds no secret. The user id feeds the unread tracker's
// senderIsSelf check.
func Identity(token string) (models.Sender, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return models.Sender{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Sender{}, fmt.Errorf("unexpected claims type")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return models.Sender{}, fmt.Errorf("missing user_id claim")
	}

	sender := models.Sender{ID: userID}
	if name, ok := claims["username"].(string); ok {
		sender.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		sender.Role = role
	}
	return sender, nil
}
