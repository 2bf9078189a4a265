package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	devicesPath     = "/api/dcim/devices/"
	defaultPageSize = 100
	defaultTimeout  = 30 * time.Second

	// NotAvailable fills site/model when the registry has no value.
	NotAvailable = "N/A"
)

var (
	ErrRegistry  = errors.New("inventory registry error")
	ErrAuth      = errors.Wrap(ErrRegistry, "authentication failed")
	ErrNoDevices = errors.Wrap(ErrRegistry, "no devices matched filter")
)

// Device is a single device record as returned by the registry.
type Device struct {
	Name string
	// Address is the primary IP without its prefix length, empty when unset.
	Address string
	Site    string
	Model   string
}

// Filter narrows the device query.
type Filter struct {
	Manufacturer string
	Status       string
}

// Options configures the registry client.
type Options struct {
	URL                string
	Token              string
	PageSize           int
	Timeout            time.Duration
	Retries            int
	InsecureSkipVerify bool
}

// Client queries a NetBox compatible device registry.
type Client struct {
	baseURL  *url.URL
	token    string
	pageSize int
	http     *retryablehttp.Client
	logger   *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.Wrap(ErrRegistry, "registry URL is empty")
	}

	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.URL), "/"))
	if err != nil {
		return nil, errors.Wrap(ErrRegistry, "registry URL: "+err.Error())
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrap(ErrRegistry, fmt.Sprintf("registry URL %q needs a scheme and host", opts.URL))
	}

	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	if opts.Retries < 0 {
		opts.Retries = 0
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		// nolint:gosec // operator opted in with netbox.insecure_skip_verify
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

		logger.Warn("TLS certificate verification against the registry is disabled")
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout, Transport: tr}
	rc.RetryMax = opts.Retries
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// disable default debug logging on the retryable client
	if logger.Level < logrus.DebugLevel {
		rc.Logger = nil
	} else {
		rc.Logger = logger
	}

	return &Client{
		baseURL:  u,
		token:    opts.Token,
		pageSize: opts.PageSize,
		http:     rc,
		logger:   logger,
	}, nil
}

// Devices returns every device matching the filter, following pagination.
//
// Order is as returned by the registry. An empty result is ErrNoDevices.
func (c *Client) Devices(ctx context.Context, f Filter) ([]Device, error) {
	q := url.Values{}
	if f.Manufacturer != "" {
		q.Set("manufacturer", f.Manufacturer)
	}

	if f.Status != "" {
		q.Set("status", f.Status)
	}

	q.Set("limit", strconv.Itoa(c.pageSize))

	next := c.baseURL.JoinPath(devicesPath).String() + "?" + q.Encode()

	var devices []Device

	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, d := range page.Results {
			devices = append(devices, d.toDevice())
		}

		c.logger.WithFields(logrus.Fields{
			"count":   page.Count,
			"fetched": len(devices),
		}).Debug("registry page fetched")

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	if len(devices) == 0 {
		return nil, errors.Wrap(ErrNoDevices, fmt.Sprintf("manufacturer=%s status=%s", f.Manufacturer, f.Status))
	}

	return devices, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*devicePage, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(ErrRegistry, err.Error())
	}

	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrRegistry, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, errors.Wrap(ErrAuth, "status "+resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.Wrap(ErrRegistry, fmt.Sprintf("URL: %s, status code %s", pageURL, resp.Status))
	}

	page := &devicePage{}
	if err := json.NewDecoder(resp.Body).Decode(page); err != nil {
		return nil, errors.Wrap(ErrRegistry, "decode response: "+err.Error())
	}

	return page, nil
}
