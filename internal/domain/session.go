package domain

import "time"

// Session es el par de tokens emitido por el backend para una identidad.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at,omitempty"`
	User         *Identity `json:"user,omitempty"`
}

// Expired indica si el access token ya no es utilizable en el instante now.
// Un margen de 10 segundos evita usar tokens a punto de caducar.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(10 * time.Second).Unix() >= s.ExpiresAt
}
