// Package crm syncs corrected project data back to the upstream CRM
// form. Write-only: the core never reads CRM state.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"bidrelay_backend/platform/config"
	"bidrelay_backend/platform/logger"
)

// Client talks to the CRM open API. Access tokens are cached until
// shortly before expiry.
type Client struct {
	baseURL     string
	appKey      string
	appSecret   string
	systemToken string
	appType     string
	formUUID    string
	userID      string
	http        *http.Client
	log         *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a CRM client, or nil when CRM sync is not configured.
// A nil client is safe to call; every method becomes a no-op.
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	if !cfg.IsCRMEnabled() {
		return nil
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.GetCRMBaseURL(), "/"),
		appKey:      cfg.GetCRMAppKey(),
		appSecret:   cfg.GetCRMAppSecret(),
		systemToken: cfg.GetCRMSystemToken(),
		appType:     cfg.GetCRMAppType(),
		formUUID:    cfg.GetCRMProjectFormUUID(),
		userID:      cfg.GetCRMUserID(),
		http:        &http.Client{Timeout: 15 * time.Second},
		log:         log,
	}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpireIn    int64  `json:"expireIn"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	url := fmt.Sprintf("%s/v1.0/oauth2/accessToken", c.baseURL)
	body, err := json.Marshal(map[string]string{
		"appKey":    c.appKey,
		"appSecret": c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("crm token request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("crm token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode crm token: %w", err)
	}

	c.accessToken = tr.AccessToken
	// Refresh a minute before the reported expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpireIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// ProjectUpdate is the shape written back to the project form.
type ProjectUpdate struct {
	SerialNumber string `json:"serialNumber"`
	CompanyC     string `json:"companyC"`
	CompanyD     string `json:"companyD"`
}

// UpdateProjectForm upserts the form instance matching the project's
// serial number with the corrected C/D parties.
func (c *Client) UpdateProjectForm(ctx context.Context, update ProjectUpdate) error {
	if c == nil {
		return nil
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"systemToken":  c.systemToken,
		"formUuid":     c.formUUID,
		"userId":       c.userID,
		"appType":      c.appType,
		"searchCondition": []map[string]string{
			{"key": "serialNumber", "value": update.SerialNumber},
		},
		"updateFormDataJson": map[string]string{
			"companyC": update.CompanyC,
			"companyD": update.CompanyD,
		},
		"noExecuteExpression": "true",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal crm update: %w", err)
	}

	url := fmt.Sprintf("%s/v1.0/yida/forms/instances/insertOrUpdate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-acs-dingtalk-access-token", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm update request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("crm form update returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("crm project form updated", "serial", update.SerialNumber)
	return nil
}
