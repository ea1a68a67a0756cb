package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// GraphClient talks to the WhatsApp Cloud (Graph) API.
type GraphClient struct {
	logger        *slog.Logger
	httpClient    *http.Client
	baseURL       string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	wabaID        string
}

// GraphClientConfig collects the Graph API settings.
type GraphClientConfig struct {
	BaseURL       string
	APIVersion    string
	AccessToken   string
	PhoneNumberID string
	WABAID        string
}

func NewGraphClient(logger *slog.Logger, cfg GraphClientConfig, httpClient *http.Client) *GraphClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GraphClient{
		logger:        logger.With("provider", "whatsapp_graph"),
		httpClient:    httpClient,
		baseURL:       cfg.BaseURL,
		apiVersion:    cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		wabaID:        cfg.WABAID,
	}
}

func (c *GraphClient) GetName() string {
	return "whatsapp_graph"
}

// graphSendRequestBody is the Graph API messages payload for templates.
type graphSendRequestBody struct {
	MessagingProduct string        `json:"messaging_product"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Template         graphTemplate `json:"template"`
}

type graphTemplate struct {
	Name       string                   `json:"name"`
	Language   graphTemplateLanguage    `json:"language"`
	Components []map[string]interface{} `json:"components,omitempty"`
}

type graphTemplateLanguage struct {
	Code string `json:"code"`
}

type graphSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendTemplate forwards a template dispatch to the Graph API messages endpoint.
func (c *GraphClient) SendTemplate(ctx context.Context, req SendTemplateRequest) (*SendTemplateResult, error) {
	c.logger.InfoContext(ctx, "GraphClient: SendTemplate called",
		"recipient", req.To, "template", req.Template, "language", req.Language)

	body := graphSendRequestBody{
		MessagingProduct: "whatsapp",
		To:               req.To,
		Type:             "template",
		Template: graphTemplate{
			Name:       req.Template,
			Language:   graphTemplateLanguage{Code: req.Language},
			Components: req.Components,
		},
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	var resp graphSendResponse
	if err := c.postJSON(ctx, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, fmt.Errorf("graph api returned no message id for recipient %s", req.To)
	}

	return &SendTemplateResult{
		MessageID: resp.Messages[0].ID,
		Recipient: req.To,
	}, nil
}

type graphTemplateListResponse struct {
	Data []TemplateInfo `json:"data"`
}

// ListTemplates fetches the account's message templates.
func (c *GraphClient) ListTemplates(ctx context.Context) ([]TemplateInfo, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/message_templates?fields=%s&limit=100",
		c.baseURL, c.apiVersion, c.wabaID,
		url.QueryEscape("name,category,status,language"))

	var resp graphTemplateListResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type graphPhoneListResponse struct {
	Data []struct {
		ID                 string `json:"id"`
		DisplayPhoneNumber string `json:"display_phone_number"`
		VerifiedName       string `json:"verified_name"`
		QualityRating      string `json:"quality_rating"`
	} `json:"data"`
}

type graphWABAResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetAccount fetches the business account name and its phone numbers.
func (c *GraphClient) GetAccount(ctx context.Context) (*AccountInfo, error) {
	fields := url.QueryEscape("id,display_phone_number,verified_name,quality_rating")
	endpoint := fmt.Sprintf("%s/%s/%s/phone_numbers?fields=%s&limit=50",
		c.baseURL, c.apiVersion, c.wabaID, fields)

	var phoneResp graphPhoneListResponse
	if err := c.getJSON(ctx, endpoint, &phoneResp); err != nil {
		return nil, err
	}

	phones := make([]PhoneNumber, 0, len(phoneResp.Data))
	for _, p := range phoneResp.Data {
		display := p.DisplayPhoneNumber
		if display == "" {
			display = p.VerifiedName
		}
		if display == "" {
			display = p.ID
		}
		phones = append(phones, PhoneNumber{ID: p.ID, Display: display, Status: p.QualityRating})
	}

	account := &AccountInfo{Source: "live", WABAID: c.wabaID, Phones: phones}

	// Account name is best-effort; phone listing alone is still useful.
	var wabaResp graphWABAResponse
	nameEndpoint := fmt.Sprintf("%s/%s/%s?fields=id,name", c.baseURL, c.apiVersion, c.wabaID)
	if err := c.getJSON(ctx, nameEndpoint, &wabaResp); err != nil {
		c.logger.WarnContext(ctx, "Failed to fetch WABA name", "error", err)
	} else {
		account.Name = wabaResp.Name
	}

	return account, nil
}

type graphMediaMetadata struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// FetchMedia resolves a media id to its download URL, then streams the
// binary. Both hops require the bearer token.
func (c *GraphClient) FetchMedia(ctx context.Context, mediaID string) (*Media, error) {
	metaEndpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, mediaID)
	var meta graphMediaMetadata
	if err := c.getJSON(ctx, metaEndpoint, &meta); err != nil {
		return nil, err
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("graph api returned no download url for media %s", mediaID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media download request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("media download request failed: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("media download returned status %d: %s", httpResp.StatusCode, string(detail))
	}

	contentType := httpResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Media{
		ContentType:   contentType,
		ContentLength: httpResp.ContentLength,
		Body:          httpResp.Body,
	}, nil
}

func (c *GraphClient) postJSON(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal graph api request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create graph api request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(ctx, httpReq, out)
}

func (c *GraphClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create graph api request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	return c.do(ctx, httpReq, out)
}

func (c *GraphClient) do(ctx context.Context, req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph api request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read graph api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gErr graphErrorResponse
		if err := json.Unmarshal(respBytes, &gErr); err == nil && gErr.Error.Message != "" {
			c.logger.WarnContext(ctx, "Graph API error response",
				"status", resp.StatusCode, "code", gErr.Error.Code, "message", gErr.Error.Message)
			return fmt.Errorf("graph api error (status %d, code %d): %s",
				resp.StatusCode, gErr.Error.Code, gErr.Error.Message)
		}
		return fmt.Errorf("graph api returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("failed to decode graph api response: %w", err)
	}
	return nil
}
