package spidervision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"spidervision-report/lib/crawlstatus"
	"spidervision-report/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrLoginFailed = errors.New("spider vision rejected the credentials")
	ErrNoToken     = errors.New("spider vision login response carries no token")
	ErrNoSession   = errors.New("spider vision client has no token, login first")
)

const (
	DefaultLoginEndpoint    = "/auth/login"
	DefaultOverviewEndpoint = "/overview"
)

// keys the login response may carry the token under
var tokenKeys = []string{"token", "access_token", "jwt", "accessToken", "authToken"}

// keys an object overview response may hold the retailer list under
var listKeys = []string{"data", "retailers", "items", "stores"}

type ClientOptions struct {
	BaseUrl          string
	LoginEndpoint    string
	OverviewEndpoint string
	Timeout          time.Duration
	// DumpOutput receives a dump of every exchange when debug logging is
	// enabled, it may be nil.
	DumpOutput restyutil.InstrumentOutput
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	loginEndpoint    string
	overviewEndpoint string
	token            string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("spider vision base url is not configured")
	}
	baseUrl, err := url.Parse(strings.TrimRight(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}
	if opts.LoginEndpoint == "" {
		opts.LoginEndpoint = DefaultLoginEndpoint
	}
	if opts.OverviewEndpoint == "" {
		opts.OverviewEndpoint = DefaultOverviewEndpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept", "application/json")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	restyutil.InstrumentClient(client, tracer, opts.DumpOutput)

	return &Client{
		BaseUrl:          baseUrl,
		Http:             client,
		loginEndpoint:    opts.LoginEndpoint,
		overviewEndpoint: opts.OverviewEndpoint,
	}, nil
}

// SetToken makes the client use a token issued beforehand instead of
// logging in.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

func (c *Client) Authenticated() bool {
	return c.token != ""
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if email == "" || password == "" {
		span.SetStatus(codes.Error, "missing credentials")
		return "", fmt.Errorf("%w: email and password are required", ErrLoginFailed)
	}

	var body map[string]any
	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		SetResult(&body).
		Post(c.loginEndpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return "", err
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))

	switch {
	case res.StatusCode() == http.StatusUnauthorized, res.StatusCode() == http.StatusForbidden:
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		return "", ErrLoginFailed
	case res.IsError():
		span.SetStatus(codes.Error, "unexpected login status")
		return "", fmt.Errorf("login: unexpected status %s: %s", res.Status(), truncate(res.String(), 200))
	}

	for _, key := range tokenKeys {
		token, ok := body[key].(string)
		if ok && token != "" {
			c.token = token
			slog.DebugContext(ctx, "logged in to spider vision", "token", restyutil.MaskSecret(token))
			return token, nil
		}
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	slog.WarnContext(ctx, "no token in login response", "keys", keys)
	span.SetStatus(codes.Error, ErrNoToken.Error())
	return "", ErrNoToken
}

// OverviewRows fetches the overview and returns its rows untouched.
func (c *Client) OverviewRows(ctx context.Context) ([]map[string]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "client:OverviewRows")
	defer span.End()

	if !c.Authenticated() {
		return nil, ErrNoSession
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		Get(c.overviewEndpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch overview")
		return nil, err
	}
	if res.StatusCode() == http.StatusUnauthorized || res.StatusCode() == http.StatusForbidden {
		span.SetStatus(codes.Error, "token rejected")
		return nil, fmt.Errorf("%w: overview returned %s", ErrLoginFailed, res.Status())
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "unexpected overview status")
		return nil, fmt.Errorf("overview: unexpected status %s: %s", res.Status(), truncate(res.String(), 200))
	}

	rows, err := DecodeOverview(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode overview")
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	slog.InfoContext(ctx, "fetched spider vision overview", "rows", len(rows))
	return rows, nil
}

// Overview fetches the overview and turns every row into a record.
func (c *Client) Overview(ctx context.Context) ([]crawlstatus.Record, error) {
	rows, err := c.OverviewRows(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]crawlstatus.Record, len(rows))
	for i, row := range rows {
		records[i] = crawlstatus.RecordFromJSON(row)
	}
	return records, nil
}

// DecodeOverview accepts either a bare list of rows or an object holding
// the list under one of the known keys. Entries that are not objects are
// skipped.
func DecodeOverview(body []byte) ([]map[string]json.RawMessage, error) {
	var list []json.RawMessage
	err := json.Unmarshal(body, &list)
	if err != nil {
		var object map[string]json.RawMessage
		err = json.Unmarshal(body, &object)
		if err != nil {
			return nil, fmt.Errorf("overview is neither a list nor an object: %w", err)
		}
		found := false
		for _, key := range listKeys {
			raw, ok := object[key]
			if !ok {
				continue
			}
			err = json.Unmarshal(raw, &list)
			if err != nil {
				return nil, fmt.Errorf("overview field %q is not a list: %w", key, err)
			}
			found = true
			break
		}
		if !found {
			// a single retailer object
			list = []json.RawMessage{body}
		}
	}

	rows := make([]map[string]json.RawMessage, 0, len(list))
	for _, raw := range list {
		var row map[string]json.RawMessage
		err := json.Unmarshal(raw, &row)
		if err != nil || row == nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
