package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrAuthentication = errors.New("authentication failed")

const (
	tokenPath      = "usermgmt/v1/oauth/token"
	loginPath      = "authentication/v1/authentication/login"
	machineClient  = "TOAST_MACHINE_CLIENT"
	tokenExpiryGap = time.Minute
)

// Authenticator owns the bearer credential. It is safe for concurrent use.
type Authenticator struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time

	mu         sync.Mutex
	token      string
	expiry     time.Time
	authorized bool
}

func NewAuthenticator(config *Config, httpClient *http.Client, now func() time.Time) *Authenticator {
	return &Authenticator{
		config:     config,
		httpClient: httpClient,
		now:        now,
	}
}

// EnsureToken returns the cached credential, running the configured exchange
// when there is none or it is about to expire.
func (a *Authenticator) EnsureToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && (a.expiry.IsZero() || a.now().Add(tokenExpiryGap).Before(a.expiry)) {
		return a.token, nil
	}

	var (
		token  string
		expiry time.Time
		err    error
	)
	if a.config.loginFlow() {
		token, expiry, err = a.login(ctx)
	} else {
		token, expiry, err = a.clientCredentials(ctx)
	}
	if err != nil {
		return "", err
	}

	logger.Info("Authorization successful.")
	a.token = token
	a.expiry = expiry
	a.authorized = true
	return token, nil
}

// IsAuthorized reports whether a credential was obtained at least once
func (a *Authenticator) IsAuthorized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authorized
}

// Invalidate drops the cached credential so the next call exchanges again
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.expiry = time.Time{}
}

func (a *Authenticator) login(ctx context.Context) (string, time.Time, error) {
	var body bytes.Buffer
	err := requests.URL(a.config.BaseURL).
		Path(loginPath).
		Method(http.MethodPost).
		BodyJSON(map[string]string{
			"clientId":       a.config.ClientID,
			"clientSecret":   a.config.ClientSecret,
			"userAccessType": machineClient,
		}).
		Client(a.httpClient).
		ToBytesBuffer(&body).
		Fetch(ctx)
	if err != nil {
		return "", time.Time{}, classifyAuthError("login", err)
	}

	token := gjson.GetBytes(body.Bytes(), "token.accessToken")
	if token.String() == "" {
		return "", time.Time{}, fmt.Errorf("%w: login response carries no token.accessToken", ErrAuthentication)
	}

	var expiry time.Time
	if seconds := gjson.GetBytes(body.Bytes(), "token.expiresIn").Int(); seconds > 0 {
		expiry = a.now().Add(time.Duration(seconds) * time.Second)
	}
	return token.String(), expiry, nil
}

func (a *Authenticator) clientCredentials(ctx context.Context) (string, time.Time, error) {
	conf := clientcredentials.Config{
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
		TokenURL:     a.config.BaseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	token, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient))
	if err != nil {
		return "", time.Time{}, classifyAuthError("client credentials", err)
	}
	return token.AccessToken, token.Expiry, nil
}

// classifyAuthError leaves network failures retryable, everything else is fatal
func classifyAuthError(flow string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request failed: %w", flow, err)
	}
	return fmt.Errorf("%w: %s: %s", ErrAuthentication, flow, err)
}
