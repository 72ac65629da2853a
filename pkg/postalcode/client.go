package postalcode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/types"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL           = "https://viacep.com.br/ws"
	postalCodeLength         = 8
	responseReadLimit  int64 = 64 << 10
	errorBodyReadLimit int64 = 1024
)

// Client resolves Brazilian postal codes (CEP) through ViaCEP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the ViaCEP base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Lookup returns the street-level address for a CEP. Number and complement
// are left for the buyer to fill in.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*types.DeliveryAddress, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "postal code client not configured")
	}
	cep := types.NormalizePostalCode(postalCode)
	if len(cep) != postalCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code must have 8 digits").
			WithDetails(map[string]any{"postal_code": postalCode})
	}

	endpoint := fmt.Sprintf("%s/%s/json/", strings.TrimRight(c.baseURL, "/"), cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build postal code request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute postal code request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code rejected by lookup service")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "postal code request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read postal code response")
	}
	if !gjson.ValidBytes(body) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "postal code service returned invalid json")
	}

	parsed := gjson.ParseBytes(body)
	// ViaCEP answers 200 with {"erro": true} (or "true") for unknown codes.
	if parsed.Get("erro").Bool() {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "postal code %s not found", cep)
	}

	returned := types.NormalizePostalCode(parsed.Get("cep").String())
	if returned == "" {
		returned = cep
	}
	return &types.DeliveryAddress{
		Street:       strings.TrimSpace(parsed.Get("logradouro").String()),
		Complement:   strings.TrimSpace(parsed.Get("complemento").String()),
		Neighborhood: strings.TrimSpace(parsed.Get("bairro").String()),
		City:         strings.TrimSpace(parsed.Get("localidade").String()),
		State:        strings.ToUpper(strings.TrimSpace(parsed.Get("uf").String())),
		PostalCode:   returned,
		Country:      types.DefaultCountry,
	}, nil
}
