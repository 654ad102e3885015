package brokermatic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/silicondon/columbia-compliance-portal/internal/compliance"
	"github.com/silicondon/columbia-compliance-portal/pkg/config"
)

// Client is the Brokermatic API surface this service depends on
type Client interface {
	GetUploadURL(ctx context.Context, fileName string) (*UploadURLResponse, error)
	ParseCertificate(ctx context.Context, storageKey string) (*ParseResult, error)
	SubmitRequirements(ctx context.Context, sub RequirementSubmission) (*RequirementResponse, error)
	CreateCertificate(ctx context.Context, insuredID string, coverages []Coverage) (*Certificate, error)
	CheckCompliance(ctx context.Context, certificateID string, spec compliance.Requirements, certs []compliance.CertificateInput) (*compliance.Result, error)
	GetCertificate(ctx context.Context, id string) (*Certificate, error)
	DownloadCertificate(ctx context.Context, id string) (*DocumentDownload, error)
}

// NewClientFromConfig returns the mock client when no real API key is
// configured, otherwise the HTTP client
func NewClientFromConfig(cfg *config.BrokermaticConfig, logger *zap.Logger) Client {
	if cfg.UseMock() {
		logger.Info("Using mock Brokermatic client")
		return NewMockClient()
	}
	return NewHTTPClient(cfg.BaseURL, cfg.APIKey, logger)
}

// HTTPClient talks to the real Brokermatic Smart COI API
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates a client for the given API endpoint
func NewHTTPClient(baseURL, apiKey string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type apiError struct {
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("brokermatic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("brokermatic API error: %s (status %d)", apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("brokermatic API error: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) GetUploadURL(ctx context.Context, fileName string) (*UploadURLResponse, error) {
	var out UploadURLResponse
	endpoint := "/documents/upload-url?fileName=" + url.QueryEscape(fileName)
	if err := c.do(ctx, http.MethodPost, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ParseCertificate(ctx context.Context, storageKey string) (*ParseResult, error) {
	var out ParseResult
	body := map[string]string{"storageKey": storageKey}
	if err := c.do(ctx, http.MethodPost, "/documents/parse", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SubmitRequirements(ctx context.Context, sub RequirementSubmission) (*RequirementResponse, error) {
	var out RequirementResponse
	if err := c.do(ctx, http.MethodPost, "/compliance/requirements", sub, &out); err != nil {
		return nil, err
	}
	c.logger.Info("Submitted requirements to Brokermatic",
		zap.String("request_id", out.RequestID),
		zap.String("insured", sub.InsuredName))
	return &out, nil
}

type createCertificateRequest struct {
	InsuredID string     `json:"insuredId"`
	Source    string     `json:"source"`
	Coverages []Coverage `json:"coverages"`
}

func (c *HTTPClient) CreateCertificate(ctx context.Context, insuredID string, coverages []Coverage) (*Certificate, error) {
	var out Certificate
	body := createCertificateRequest{
		InsuredID: insuredID,
		Source:    "manual_entry",
		Coverages: coverages,
	}
	if err := c.do(ctx, http.MethodPost, "/certificates", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type complianceCheckRequest struct {
	CertificateID string                        `json:"certificateId"`
	Requirements  compliance.Requirements       `json:"requirements"`
	Coverages     []compliance.CertificateInput `json:"coverages"`
}

func (c *HTTPClient) CheckCompliance(ctx context.Context, certificateID string, spec compliance.Requirements, certs []compliance.CertificateInput) (*compliance.Result, error) {
	var out compliance.Result
	body := complianceCheckRequest{
		CertificateID: certificateID,
		Requirements:  spec,
		Coverages:     certs,
	}
	if err := c.do(ctx, http.MethodPost, "/compliance/check", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetCertificate(ctx context.Context, id string) (*Certificate, error) {
	var out Certificate
	if err := c.do(ctx, http.MethodGet, "/certificates/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DownloadCertificate(ctx context.Context, id string) (*DocumentDownload, error) {
	var out DocumentDownload
	if err := c.do(ctx, http.MethodGet, "/certificates/"+url.PathEscape(id)+"/document", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
