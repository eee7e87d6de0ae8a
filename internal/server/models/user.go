package models

import "time"

// User mirrors an identity provider account in the relational store.
type User struct {
	ID        int64
	UserName  string
	Email     string
	CreatedAt time.Time
}

// AuthTokens are the tokens issued by the identity provider on signin. The
// JSON names follow the provider's own AuthenticationResult.
type AuthTokens struct {
	AccessToken  string `json:"AccessToken"`
	IDToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType"`
	ExpiresIn    int32  `json:"ExpiresIn"`
}

// AccountProfile is the identity provider's view of a user.
type AccountProfile struct {
	UserName string
	Email    string
	Subject  string
}
