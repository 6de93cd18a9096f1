// Package hcaptcha checks the captcha on the public registration and
// password reset forms.
package hcaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
)

var (
	ErrMissingResponse = errors.New("captcha not solved")
	ErrNotConfigured   = errors.New("HCAPTCHA_SECRET not set")
)

var (
	verifyURL  = "https://api.hcaptcha.com/siteverify"
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

type siteverifyResult struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Enabled reports whether forms render and check the captcha. Both keys
// must be configured.
func Enabled() bool {
	return secret() != "" && SiteKey() != ""
}

func SiteKey() string {
	return env.GetEnv("HCAPTCHA_SITEKEY", "")
}

func secret() string {
	return env.GetEnv("HCAPTCHA_SECRET", "")
}

// Verify asks hCaptcha whether response is a solved challenge. remoteIP is
// optional.
func Verify(ctx context.Context, response, remoteIP string) error {
	if response == "" {
		return ErrMissingResponse
	}
	key := secret()
	if key == "" {
		return ErrNotConfigured
	}

	form := url.Values{"secret": {key}, "response": {response}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify: status %d", resp.StatusCode)
	}

	var result siteverifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("siteverify: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("captcha rejected: %s", strings.Join(result.ErrorCodes, ", "))
	}
	return nil
}
