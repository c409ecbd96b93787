package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"aprstoot/internal/config"
	"aprstoot/internal/constants"
	"aprstoot/internal/logger"
	"aprstoot/pkg/metrics"
)

const oobRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

// MastodonClient talks to one Mastodon instance. Registration and login run
// once at startup; Publish is the only operation used afterwards.
type MastodonClient struct {
	cfg    config.MastodonConfig
	client *http.Client
	log    logger.Logger

	clientID     string
	clientSecret string
	accessToken  string
}

func NewMastodonClient(cfg config.MastodonConfig, log logger.Logger) *MastodonClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	return &MastodonClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// EnsureRegistered loads the cached app credentials, registering the app
// against the instance once if the secret file does not exist yet. Any other
// read failure is an error: re-registering would overwrite credentials that
// are still there.
func (c *MastodonClient) EnsureRegistered(ctx context.Context) error {
	data, err := os.ReadFile(c.cfg.ClientSecretFile)
	if err == nil {
		lines := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)
		if len(lines) != 2 {
			return fmt.Errorf("malformed client secret file %s", c.cfg.ClientSecretFile)
		}
		c.clientID = strings.TrimSpace(lines[0])
		c.clientSecret = strings.TrimSpace(lines[1])
		c.log.Debugw("App already registered", "client_secret_file", c.cfg.ClientSecretFile)
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot read client secret file %s: %w", c.cfg.ClientSecretFile, err)
	}

	c.log.Infow("Registering app on Mastodon instance", "base_url", c.cfg.BaseURL)

	form := url.Values{
		"client_name":   {fmt.Sprintf("%s %s", constants.AppName, constants.AppVersion)},
		"redirect_uris": {oobRedirectURI},
		"scopes":        {"read write"},
	}

	var resp struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := c.postForm(ctx, "/api/v1/apps", form, "", &resp); err != nil {
		return fmt.Errorf("app registration failed: %w", err)
	}

	c.clientID = resp.ClientID
	c.clientSecret = resp.ClientSecret

	content := fmt.Sprintf("%s\n%s\n", c.clientID, c.clientSecret)
	if err := os.WriteFile(c.cfg.ClientSecretFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("cannot store client secret: %w", err)
	}
	return nil
}

// Login obtains the account access token with the OAuth password grant,
// caching it to the token file. A cached token is reused without contacting
// the instance.
func (c *MastodonClient) Login(ctx context.Context) error {
	data, err := os.ReadFile(c.cfg.TokenFile)
	if err == nil {
		c.accessToken = strings.TrimSpace(string(data))
		if c.accessToken != "" {
			c.log.Debugw("Using cached access token", "token_file", c.cfg.TokenFile)
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot read token file %s: %w", c.cfg.TokenFile, err)
	}

	c.log.Infow("Logging in Mastodon account", "account", c.cfg.Account)

	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"username":      {c.cfg.Account},
		"password":      {c.cfg.Password},
		"scope":         {"read write"},
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.postForm(ctx, "/oauth/token", form, "", &resp); err != nil {
		var httpErr *httpStatusError
		if errors.As(err, &httpErr) && (httpErr.code == http.StatusUnauthorized || httpErr.code == http.StatusBadRequest || httpErr.code == http.StatusForbidden) {
			return &AuthError{Reason: "incorrect account or password, or 2FA is enabled", Err: err}
		}
		return &AuthError{Reason: "token request failed", Err: err}
	}

	if resp.AccessToken == "" {
		return &AuthError{Reason: "empty access token in response"}
	}
	c.accessToken = resp.AccessToken

	if err := os.WriteFile(c.cfg.TokenFile, []byte(c.accessToken+"\n"), 0600); err != nil {
		return fmt.Errorf("cannot store access token: %w", err)
	}
	return nil
}

// Publish posts one status.
func (c *MastodonClient) Publish(ctx context.Context, status string) error {
	form := url.Values{
		"status": {status},
	}

	start := time.Now()
	err := c.postForm(ctx, "/api/v1/statuses", form, c.accessToken, nil)
	duration := time.Since(start)

	if err != nil {
		metrics.ObservePublishDuration(duration, "error")
		var httpErr *httpStatusError
		if errors.As(err, &httpErr) {
			return &PublishError{StatusCode: httpErr.code, Err: err}
		}
		return &PublishError{Err: err}
	}

	metrics.ObservePublishDuration(duration, "ok")
	return nil
}

type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (c *MastodonClient) postForm(ctx context.Context, path string, form url.Values, token string, out interface{}) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &httpStatusError{code: resp.StatusCode, body: body.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
