package sessionstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/allstar/sportshub/internal/model"
)

// ClientConfig はSession Storeクライアントの設定。
type ClientConfig struct {
	// BaseURL はSession StoreのエンドポイントURL。
	BaseURL string
	// APIKey は公開APIキー。全リクエストのapikeyヘッダーに付与される。
	APIKey string

	// HTTPClient はテスト用にオーバーライド可能。nilの場合はデフォルトを使用する。
	HTTPClient *http.Client
}

// Client はGoTrue系REST APIを話すSession Storeクライアント。
// 自身の操作（サインイン・サインアウト）に対して変更イベントを発行する。
type Client struct {
	config ClientConfig
	http   *http.Client
	tokens TokenStore
	bus    *Hub
}

// NewClient はSession Storeクライアントを生成する。
// tokensがnilの場合はプロセス内のみのMemoryTokenStoreを使用する。
func NewClient(config ClientConfig, tokens TokenStore) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Client{
		config: config,
		http:   httpClient,
		tokens: tokens,
		bus:    NewHub(),
	}
}

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

// userResponse はユーザーエンドポイントのレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// GetSession は保存済みトークンからセッションを復元する。
// トークンが存在しない、またはプロバイダーが無効と判定した場合は(nil, nil)を返す。
// トークンはあくまでヒントであり、有効性の判断は常にプロバイダーに委ねる。
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	token, err := c.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read session response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// 期限切れまたは失効。ヒントを破棄してセッションなしとして扱う。
		if err := c.tokens.Save(""); err != nil {
			return nil, fmt.Errorf("failed to discard stale token: %w", err)
		}
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("session lookup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("empty subject id in session response")
	}

	return &model.Session{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
	}, nil
}

// SignInWithPassword は資格情報を検証しセッションを発行する。
// 成功時はトークンを保存し、SignedInイベントを発行する。
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign-in response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("sign-in failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse sign-in response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in sign-in response")
	}

	if err := c.tokens.Save(tr.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to save session token: %w", err)
	}

	session := &model.Session{
		UserID:      tr.User.ID,
		Email:       tr.User.Email,
		AccessToken: tr.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}

	c.bus.Emit(Event{Type: EventSignedIn, Session: session})
	return session, nil
}

// SignOut は現在のセッションを破棄する。
// プロバイダー側の破棄が成功した場合のみトークンを破棄し、SignedOutイベントを発行する。
// 失敗時はトークンを保持したままエラーを返す（サインアウト完了とみなさない）。
func (c *Client) SignOut(ctx context.Context) error {
	token, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("failed to load session token: %w", err)
	}
	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create sign-out request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sign-out request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sign-out failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := c.tokens.Save(""); err != nil {
		return fmt.Errorf("failed to discard session token: %w", err)
	}

	c.bus.Emit(Event{Type: EventSignedOut})
	return nil
}

// SignUp はプロビジョニング用に新規アカウントを作成する。
// 現在のセッションには影響しない（トークン保存もイベント発行も行わない）。
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign-up request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/auth/v1/signup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-up request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-up request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign-up response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("sign-up failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse sign-up response: %w", err)
	}

	// signupのレスポンス形式はプロバイダー設定により
	// {user: {...}} または user本体のどちらもあり得る
	user := tr.User
	if user.ID == "" {
		if err := json.Unmarshal(body, &user); err != nil {
			return nil, fmt.Errorf("failed to parse sign-up user: %w", err)
		}
	}
	if user.ID == "" {
		return nil, fmt.Errorf("empty subject id in sign-up response")
	}

	return &model.Session{
		UserID: user.ID,
		Email:  user.Email,
	}, nil
}

// Subscribe は認証状態変更イベントの購読を開始する。
func (c *Client) Subscribe() *Subscription {
	return c.bus.Subscribe()
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("apikey", c.config.APIKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// compile-time interface check
var _ Store = (*Client)(nil)
