// Package captcha verifies Cloudflare Turnstile tokens for the anonymous
// correction intake.
package captcha

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrMissingToken means the request carried no captcha token at all.
	ErrMissingToken = errors.New("captcha token missing")
	// ErrFailed means the provider evaluated the token and rejected it.
	ErrFailed = errors.New("captcha verification failed")
	// ErrUnavailable means the provider could not be reached or is not
	// configured, and the verifier is in enforce mode.
	ErrUnavailable = errors.New("captcha verification unavailable")
)

// Verifier checks tokens against the Turnstile siteverify endpoint.
//
// Two modes govern what happens when verification cannot run (no secret
// configured, or the provider is unreachable): "permissive" lets the
// request through, "enforce" rejects it. A missing token fails in both
// modes, and a token the provider rejects fails in both modes.
type Verifier struct {
	secret    string
	verifyURL string
	mode      string
	client    *resty.Client
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func New(secret, verifyURL, mode string) *Verifier {
	return &Verifier{
		secret:    secret,
		verifyURL: verifyURL,
		mode:      mode,
		client:    resty.New().SetTimeout(10 * time.Second),
	}
}

// Verify checks a client token. A nil return means the request may proceed.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrMissingToken
	}
	if v.secret == "" {
		return v.unavailable()
	}

	var result siteverifyResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   v.secret,
			"response": token,
			"remoteip": remoteIP,
		}).
		SetResult(&result).
		Post(v.verifyURL)
	if err != nil {
		return v.unavailable()
	}
	if resp.IsError() {
		return v.unavailable()
	}
	if !result.Success {
		return ErrFailed
	}
	return nil
}

func (v *Verifier) unavailable() error {
	if v.mode == "enforce" {
		return ErrUnavailable
	}
	return nil
}
