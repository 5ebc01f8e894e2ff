package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jeremykhd/mycoaching/internal/domain"
)

// OTPTypeEmail es el canal fijo usado al verificar códigos de un solo uso.
const OTPTypeEmail = "email"

// AuthClient expone la superficie de autenticación. Las operaciones que crean o destruyen
// sesiones reciben la clave de almacenamiento del contenedor que las origina.
type AuthClient struct {
	client *Client
}

// GetSession devuelve la sesión guardada para key, renovándola si el access token expiró
// y completando el usuario con GET /user cuando falta. Sin tokens guardados devuelve nil, nil.
func (a *AuthClient) GetSession(ctx context.Context, key string) (*domain.Session, error) {
	stored, err := a.client.storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if stored == nil {
		return nil, nil
	}
	session := stored
	if stored.Expired(a.client.now()) {
		session, err = a.refresh(ctx, stored.RefreshToken)
		if err != nil {
			if IsRejected(err) {
				_ = a.client.storage.Delete(ctx, key)
			}
			return nil, err
		}
	} else if stored.User != nil {
		return stored, nil
	}

	if session.User == nil {
		user, err := a.GetUser(ctx, session.AccessToken)
		if err != nil {
			return nil, err
		}
		session.User = user
	}
	if err := a.client.storage.Save(ctx, key, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SignInWithPassword autentica con email y contraseña y guarda la sesión resultante.
func (a *AuthClient) SignInWithPassword(ctx context.Context, key, email, password string) (*domain.Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	session, err := a.tokenRequest(ctx, "password", payload)
	if err != nil {
		return nil, err
	}
	if err := a.client.storage.Save(ctx, key, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SignInWithOTP pide que se envíe un código de un solo uso a email. Con createUser en false
// el backend no crea usuarios nuevos en este flujo.
func (a *AuthClient) SignInWithOTP(ctx context.Context, email string, createUser bool) error {
	payload := map[string]any{
		"email":       email,
		"create_user": createUser,
	}
	req, err := a.client.newRequest(ctx, http.MethodPost, a.client.baseURL+"/auth/v1/otp", payload)
	if err != nil {
		return err
	}
	_, err = a.client.do(req, "auth.otp")
	return err
}

// VerifyOTP valida token para email y guarda la sesión resultante.
func (a *AuthClient) VerifyOTP(ctx context.Context, key, email, token, otpType string) (*domain.Session, error) {
	payload := map[string]string{
		"email": email,
		"token": token,
		"type":  otpType,
	}
	req, err := a.client.newRequest(ctx, http.MethodPost, a.client.baseURL+"/auth/v1/verify", payload)
	if err != nil {
		return nil, err
	}
	body, err := a.client.do(req, "auth.verify")
	if err != nil {
		return nil, err
	}
	session, err := a.decodeSession(body)
	if err != nil {
		return nil, err
	}
	if err := a.client.storage.Save(ctx, key, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// SignOut revoca la sesión en el backend y siempre borra los tokens guardados.
func (a *AuthClient) SignOut(ctx context.Context, key string) error {
	stored, loadErr := a.client.storage.Load(ctx, key)

	var logoutErr error
	if stored != nil && stored.AccessToken != "" {
		req, err := a.client.newRequest(WithAccessToken(ctx, stored.AccessToken), http.MethodPost, a.client.baseURL+"/auth/v1/logout", nil)
		if err != nil {
			logoutErr = err
		} else {
			_, logoutErr = a.client.do(req, "auth.logout")
		}
	}

	deleteErr := a.client.storage.Delete(ctx, key)
	return errors.Join(logoutErr, loadErr, deleteErr)
}

// GetUser devuelve la identidad asociada a accessToken.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	req, err := a.client.newRequest(WithAccessToken(ctx, accessToken), http.MethodGet, a.client.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	body, err := a.client.do(req, "auth.user")
	if err != nil {
		return nil, err
	}
	var user domain.Identity
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &user, nil
}

func (a *AuthClient) refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, &Error{Status: http.StatusUnauthorized, Message: "refresh token missing"}
	}
	return a.tokenRequest(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (a *AuthClient) tokenRequest(ctx context.Context, grantType string, payload any) (*domain.Session, error) {
	reqURL := a.client.baseURL + "/auth/v1/token?grant_type=" + grantType
	req, err := a.client.newRequest(ctx, http.MethodPost, reqURL, payload)
	if err != nil {
		return nil, err
	}
	body, err := a.client.do(req, "auth.token:"+grantType)
	if err != nil {
		return nil, err
	}
	return a.decodeSession(body)
}

func (a *AuthClient) decodeSession(body []byte) (*domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("unmarshal response: missing access token")
	}
	if session.ExpiresAt == 0 && session.ExpiresIn > 0 {
		session.ExpiresAt = a.client.now().Add(secondsDuration(session.ExpiresIn)).Unix()
	}
	return &session, nil
}

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}
