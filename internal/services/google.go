package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BrandonT-ops/chatbot-project/internal/config"
	"github.com/BrandonT-ops/chatbot-project/internal/models"
)

// GoogleAuthService exchanges a Google credential for a backend session key
// and decodes the ID-token claims into a profile. Signature verification is
// the backend's responsibility; the decode here only hydrates display data.
type GoogleAuthService struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

func NewGoogleAuthService(cfg *config.Config) *GoogleAuthService {
	return &GoogleAuthService{
		baseURL:    cfg.APIEndpoint,
		clientID:   cfg.GoogleClientID,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

type googleClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	jwt.RegisteredClaims
}

// Login sends the credential to the backend and returns the session token
// plus the decoded user profile.
func (s *GoogleAuthService) Login(ctx context.Context, credential string) (*models.UserToken, *models.UserData, error) {
	body, err := json.Marshal(map[string]string{"access_token": credential})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/google/login/", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	var payload struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if payload.Key == "" {
		return nil, nil, fmt.Errorf("login response missing session key")
	}

	token := &models.UserToken{Key: payload.Key, GoogleToken: credential}

	user, err := s.decodeProfile(credential)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ID token: %w", err)
	}

	return token, user, nil
}

func (s *GoogleAuthService) decodeProfile(credential string) (*models.UserData, error) {
	var claims googleClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, &claims); err != nil {
		return nil, err
	}

	return &models.UserData{
		UserID:         claims.Subject,
		Email:          claims.Email,
		Firstname:      claims.GivenName,
		Lastname:       claims.FamilyName,
		ProfilePicture: claims.Picture,
	}, nil
}
