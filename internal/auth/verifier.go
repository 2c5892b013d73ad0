// Package auth verifies Firebase ID tokens presented as bearer credentials.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// certURL serves the x509 certificates Google signs securetoken JWTs with,
// keyed by key ID.
const certURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid authentication credentials")

// Claims is the verified identity attached to a request.
type Claims struct {
	UID   string
	Email string
}

// Verifier checks a bearer ID token and returns the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Claims, error)
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// FirebaseVerifier validates RS256 ID tokens issued by
// securetoken.google.com for a single project. Certificates are fetched
// lazily and cached until the max-age the endpoint advertises.
type FirebaseVerifier struct {
	projectID  string
	certURL    string
	httpClient *http.Client

	mu     sync.Mutex
	certs  map[string]*rsa.PublicKey
	expiry time.Time
}

// Option adjusts a FirebaseVerifier; used by tests to point at a local
// certificate endpoint.
type Option func(*FirebaseVerifier)

// WithCertURL overrides the certificate endpoint.
func WithCertURL(url string) Option {
	return func(v *FirebaseVerifier) { v.certURL = url }
}

// NewFirebaseVerifier builds a verifier for the given Firebase project.
func NewFirebaseVerifier(projectID string, opts ...Option) *FirebaseVerifier {
	v := &FirebaseVerifier{
		projectID:  projectID,
		certURL:    certURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates the ID token: RS256 signature against Google's
// published certificates, expiry, audience (project ID) and issuer.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Claims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.certificate(ctx, kid)
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyAudience(v.projectID, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if claims.Issuer != "https://securetoken.google.com/"+v.projectID {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Claims{UID: claims.Subject, Email: claims.Email}, nil
}

// certificate returns the public key for kid, refreshing the cached set when
// it is stale or the kid is unknown.
func (v *FirebaseVerifier) certificate(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.certs[kid]; ok && time.Now().Before(v.expiry) {
		return key, nil
	}
	if err := v.refreshLocked(ctx); err != nil {
		return nil, err
	}
	key, ok := v.certs[kid]
	if !ok {
		return nil, fmt.Errorf("no certificate for kid %q", kid)
	}
	return key, nil
}

func (v *FirebaseVerifier) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certURL, nil)
	if err != nil {
		return fmt.Errorf("create cert request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch certificates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch certificates: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read certificates: %w", err)
	}
	var pems map[string]string
	if err := json.Unmarshal(body, &pems); err != nil {
		return fmt.Errorf("decode certificates: %w", err)
	}

	certs := make(map[string]*rsa.PublicKey, len(pems))
	for kid, pemData := range pems {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			return fmt.Errorf("parse certificate %q: %w", kid, err)
		}
		certs[kid] = key
	}

	v.certs = certs
	v.expiry = time.Now().Add(maxAge(resp.Header.Get("Cache-Control")))
	return nil
}

// maxAge extracts the max-age directive, defaulting to an hour.
func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Hour
}
