package models

// ═══════════════════════════════════════════════════════════
// USER / AUTH MODELS
// ═══════════════════════════════════════════════════════════

// UserToken is the identity state obtained at sign-in: the backend session
// key plus the raw Google credential it was exchanged for. Held for the
// session lifetime, invalidated on sign-out.
type UserToken struct {
	Key         string `json:"key"`
	GoogleToken string `json:"google_token"`
}

// UserData is the profile decoded from the Google ID token.
type UserData struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// GoogleLoginRequest carries the encoded Google credential.
type GoogleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

// GoogleLoginResponse is what the client gets back after the exchange.
type GoogleLoginResponse struct {
	Token UserToken `json:"token"`
	User  UserData  `json:"user"`
}
