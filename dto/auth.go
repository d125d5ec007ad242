package dto

// TokenRequest is the body of POST /v1/auth/token. The client secret must
// match the configured API key.
type TokenRequest struct {
	ClientID     string `json:"clientId" validate:"omitempty,max=128"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

func (r TokenRequest) Validate() error {
	return validate.Struct(r)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// IntrospectResponse describes the identity the authentication gate
// attached to the current request.
type IntrospectResponse struct {
	ClientID   string `json:"clientId"`
	AuthMethod string `json:"authMethod"`
	Scope      string `json:"scope"`
	AuthTime   int64  `json:"authTime"`
}
