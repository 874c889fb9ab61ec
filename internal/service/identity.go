package service

// Identity is the authenticated caller reconstructed from a bearer token.
// A nil *Identity means anonymous: reachable for login/signup, rejected by
// every gated operation.
type Identity struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	CredentialVersion int    `json:"-"`
}
