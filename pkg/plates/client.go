package plates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	responseReadLimit  int64 = 256 << 10
	errorBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired = errors.New("plate api base url is required")
	errTokenRequired   = errors.New("plate api token is required")

	// Legacy (ABC1234) and Mercosul (ABC1D23) formats.
	platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)
)

// Providers disagree on field names, so every attribute is read from the
// first path that yields a value.
var (
	brandPaths        = []string{"MARCA", "marca", "brand", "extra.marca"}
	modelPaths        = []string{"MODELO", "modelo", "model", "extra.modelo"}
	modelYearPaths    = []string{"anoModelo", "ano_modelo", "extra.ano_modelo", "ano", "year"}
	fuelPaths         = []string{"combustivel", "extra.combustivel", "fuel"}
	displacementPaths = []string{"extra.cilindradas", "cilindradas", "displacement"}
	colorPaths        = []string{"cor", "color", "extra.cor"}
)

// Vehicle is the decoded registration data for a plate.
type Vehicle struct {
	Plate              string `json:"plate"`
	Brand              string `json:"brand"`
	Model              string `json:"model"`
	ModelYear          int    `json:"model_year"`
	Fuel               string `json:"fuel,omitempty"`
	EngineDisplacement string `json:"engine_displacement,omitempty"`
	Color              string `json:"color,omitempty"`
}

// Client decodes Brazilian license plates through a token-authenticated provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
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

// WithRateLimit throttles outbound calls; paid providers bill per lookup.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		token:      token,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// NormalizePlate upper-cases the plate and strips separators.
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPlate reports whether the plate matches a Brazilian format.
func ValidPlate(plate string) bool {
	return platePattern.MatchString(NormalizePlate(plate))
}

// Decode fetches the registration data of a plate.
func (c *Client) Decode(ctx context.Context, plate string) (*Vehicle, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plate client not configured")
	}
	normalized := NormalizePlate(plate)
	if !platePattern.MatchString(normalized) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid license plate").
			WithDetails(map[string]any{"plate": plate})
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "plate rate limiter")
		}
	}

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(normalized))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build plate request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute plate request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "plate %s not found", normalized)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "plate provider quota exceeded")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "plate request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read plate response")
	}
	if !gjson.ValidBytes(body) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "plate provider returned invalid json")
	}

	parsed := gjson.ParseBytes(body)
	vehicle := &Vehicle{
		Plate:              normalized,
		Brand:              firstString(parsed, brandPaths),
		Model:              firstString(parsed, modelPaths),
		ModelYear:          firstInt(parsed, modelYearPaths),
		Fuel:               firstString(parsed, fuelPaths),
		EngineDisplacement: firstString(parsed, displacementPaths),
		Color:              firstString(parsed, colorPaths),
	}
	if vehicle.Brand == "" || vehicle.Model == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "plate %s returned no vehicle data", normalized)
	}
	return vehicle, nil
}

func firstString(doc gjson.Result, paths []string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(doc.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(doc gjson.Result, paths []string) int {
	for _, path := range paths {
		raw := strings.TrimSpace(doc.Get(path).String())
		if raw == "" {
			continue
		}
		// some providers send "2019/2020"; the model year is the last part.
		if idx := strings.LastIndex(raw, "/"); idx >= 0 {
			raw = raw[idx+1:]
		}
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
