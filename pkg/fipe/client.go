package fipe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL           = "https://parallelum.com.br/fipe/api/v1"
	defaultVehicleType       = "carros"
	responseReadLimit  int64 = 4 << 20
	errorBodyReadLimit int64 = 1024

	// zeroKmYear is the sentinel FIPE uses for brand-new vehicles.
	zeroKmYear = 32000
)

// Reference is one entry of a FIPE brand, model or year listing.
type Reference struct {
	Code string `json:"code"`
	Name string `json:"name"`
	// Year is only populated for year listings; 0 means a zero-km entry.
	Year int `json:"year,omitempty"`
}

// Client queries the public FIPE vehicle catalog.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	vehicleType string
	limiter     *rate.Limiter
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

// WithBaseURL overrides the FIPE base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithVehicleType selects the FIPE vehicle segment (carros, motos, caminhoes).
func WithVehicleType(vehicleType string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(vehicleType)
		if trimmed != "" {
			c.vehicleType = trimmed
		}
	}
}

// WithRateLimit throttles outbound calls; the public API bans aggressive clients.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     defaultBaseURL,
		vehicleType: defaultVehicleType,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Brands lists every brand of the configured vehicle type.
func (c *Client) Brands(ctx context.Context) ([]Reference, error) {
	body, err := c.get(ctx, "marcas")
	if err != nil {
		return nil, err
	}
	return parseReferences(gjson.ParseBytes(body)), nil
}

// Models lists the models of a brand.
func (c *Client) Models(ctx context.Context, brandCode string) ([]Reference, error) {
	brandCode = strings.TrimSpace(brandCode)
	if brandCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand code is required")
	}
	body, err := c.get(ctx, "marcas", brandCode, "modelos")
	if err != nil {
		return nil, err
	}
	return parseReferences(gjson.GetBytes(body, "modelos")), nil
}

// Years lists the model years (with fuel) available for a model.
func (c *Client) Years(ctx context.Context, brandCode, modelCode string) ([]Reference, error) {
	brandCode = strings.TrimSpace(brandCode)
	modelCode = strings.TrimSpace(modelCode)
	if brandCode == "" || modelCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand and model codes are required")
	}
	body, err := c.get(ctx, "marcas", brandCode, "modelos", modelCode, "anos")
	if err != nil {
		return nil, err
	}
	refs := parseReferences(gjson.ParseBytes(body))
	for i := range refs {
		refs[i].Year = parseYear(refs[i].Code)
	}
	return refs, nil
}

func (c *Client) get(ctx context.Context, segments ...string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fipe client not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fipe rate limiter")
		}
	}

	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, url.PathEscape(c.vehicleType))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.Join(escaped, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build fipe request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute fipe request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fipe reference not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "fipe request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read fipe response")
	}
	if !gjson.ValidBytes(body) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fipe returned invalid json")
	}
	return body, nil
}

// parseReferences accepts codes as strings or numbers; FIPE mixes both.
func parseReferences(list gjson.Result) []Reference {
	refs := []Reference{}
	list.ForEach(func(_, item gjson.Result) bool {
		code := item.Get("codigo").String()
		name := strings.TrimSpace(item.Get("nome").String())
		if code == "" || name == "" {
			return true
		}
		refs = append(refs, Reference{Code: code, Name: name})
		return true
	})
	return refs
}

// parseYear reads the year prefix of a code like "2014-3".
func parseYear(code string) int {
	prefix, _, _ := strings.Cut(code, "-")
	year, err := strconv.Atoi(prefix)
	if err != nil || year == zeroKmYear {
		return 0
	}
	return year
}
