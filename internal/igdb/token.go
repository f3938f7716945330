package igdb

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// twitchTokenURL is the client-credentials exchange endpoint. IGDB
// credentials are issued by Twitch.
const twitchTokenURL = "https://id.twitch.tv/oauth2/token"

// Exchanger performs the upstream credential exchange. The production
// implementation talks to Twitch; tests substitute their own.
type Exchanger interface {
	Exchange(ctx context.Context) (Credential, error)
}

// refreshFuture is the shared result slot for one in-flight refresh.
// Waiters block on done; cred and err are written exactly once before
// done is closed.
type refreshFuture struct {
	done chan struct{}
	cred Credential
	err  error
}

// TokenGuard keeps the shared catalog credential valid. Any number of
// callers may demand a valid credential concurrently; at most one
// exchange call is ever in flight, and every caller that observed the
// expired credential gets the outcome of that one call.
type TokenGuard struct {
	exchanger    Exchanger
	safetyMargin time.Duration
	mirrorPath   string
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	cred     Credential
	inflight *refreshFuture
}

// NewTokenGuard creates a guard. If dataPath is non-empty, the credential
// is mirrored to <dataPath>/igdb_token.json so a restart with time left
// on the credential skips the initial exchange.
func NewTokenGuard(exchanger Exchanger, safetyMargin time.Duration, dataPath string, logger *slog.Logger) *TokenGuard {
	g := &TokenGuard{
		exchanger:    exchanger,
		safetyMargin: safetyMargin,
		logger:       logger,
		now:          time.Now,
	}
	if dataPath != "" {
		g.mirrorPath = filepath.Join(dataPath, "igdb_token.json")
		g.loadMirror()
	}
	return g
}

// IsValid reports whether a usable credential exists right now. Pure
// check, no I/O.
func (g *TokenGuard) IsValid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cred.UsableAt(g.now(), g.safetyMargin)
}

// Token returns the current access token, or ErrNoCredential when none
// is usable. Callers should EnsureValid first.
func (g *TokenGuard) Token() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.cred.UsableAt(g.now(), g.safetyMargin) {
		return "", ErrNoCredential
	}
	return g.cred.AccessToken, nil
}

// EnsureValid guarantees a usable credential on nil return. If the
// credential is expired, the first caller starts the exchange and every
// concurrent caller awaits that same exchange. Exactly one network call
// happens per expiry, no matter how many callers observe it.
func (g *TokenGuard) EnsureValid(ctx context.Context) error {
	g.mu.Lock()
	if g.cred.UsableAt(g.now(), g.safetyMargin) {
		g.mu.Unlock()
		return nil
	}

	future := g.inflight
	if future == nil {
		future = &refreshFuture{done: make(chan struct{})}
		g.inflight = future
		// Detach the refresh from the initiating caller so its
		// cancellation can't fail every waiter.
		go g.refresh(context.WithoutCancel(ctx), future)
	}
	g.mu.Unlock()

	select {
	case <-future.done:
		return future.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh performs the exchange and resolves the shared future. On
// success the credential is replaced and mirrored; on failure the prior
// state is left untouched and only this refresh's waiters see the error.
func (g *TokenGuard) refresh(ctx context.Context, future *refreshFuture) {
	cred, err := g.exchanger.Exchange(ctx)

	g.mu.Lock()
	if err == nil {
		g.cred = cred
		g.saveMirror(cred)
		if g.logger != nil {
			g.logger.Info("catalog credential refreshed", "expires_at", cred.ExpiresAt)
		}
	} else if g.logger != nil {
		g.logger.Warn("catalog credential refresh failed", "error", err)
	}
	g.inflight = nil
	g.mu.Unlock()

	future.cred = cred
	future.err = err
	close(future.done)
}

// loadMirror restores a previously persisted credential. A missing or
// expired mirror is not an error, it just means the first request pays
// for an exchange.
func (g *TokenGuard) loadMirror() {
	//#nosec G304 -- Mirror path is derived from validated data path
	data, err := os.ReadFile(g.mirrorPath)
	if err != nil {
		return
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		if g.logger != nil {
			g.logger.Warn("ignoring malformed credential mirror", "path", g.mirrorPath, "error", err)
		}
		return
	}

	if cred.UsableAt(g.now(), g.safetyMargin) {
		g.cred = cred
		if g.logger != nil {
			g.logger.Info("catalog credential restored from mirror", "expires_at", cred.ExpiresAt)
		}
	}
}

// saveMirror persists the credential. Mirror failures are logged, never
// surfaced: the in-memory credential is still valid.
func (g *TokenGuard) saveMirror(cred Credential) {
	if g.mirrorPath == "" {
		return
	}

	data, err := json.Marshal(cred)
	if err == nil {
		err = os.WriteFile(g.mirrorPath, data, 0o600)
	}
	if err != nil && g.logger != nil {
		g.logger.Warn("failed to persist credential mirror", "path", g.mirrorPath, "error", err)
	}
}

// TwitchExchanger exchanges IGDB client credentials for a bearer token
// via the Twitch OAuth client-credentials flow.
type TwitchExchanger struct {
	ClientID     string
	ClientSecret string

	// TokenURL overrides the exchange endpoint, for tests.
	TokenURL string
	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client

	now func() time.Time
}

// Exchange implements Exchanger.
func (e *TwitchExchanger) Exchange(ctx context.Context) (Credential, error) {
	tokenURL := e.TokenURL
	if tokenURL == "" {
		tokenURL = twitchTokenURL
	}
	client := e.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	nowFn := e.now
	if nowFn == nil {
		nowFn = time.Now
	}

	form := url.Values{
		"client_id":     {e.ClientID},
		"client_secret": {e.ClientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, wrapError("exchange", 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return Credential{}, wrapError("exchange", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, wrapError("exchange", 0, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return Credential{}, wrapError("exchange", 0,
			fmt.Errorf("status %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(body)), ErrUnauthorized))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Credential{}, wrapError("exchange", 0, fmt.Errorf("decode response: %w", err))
	}
	if payload.AccessToken == "" {
		return Credential{}, wrapError("exchange", 0, errors.New("empty access token in response"))
	}

	return Credential{
		AccessToken: payload.AccessToken,
		ExpiresAt:   nowFn().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}
