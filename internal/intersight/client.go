// Package intersight is a thin client for the Intersight REST API. It covers
// only what the provisioning driver needs: signed list, create and patch
// calls with typed error mapping.
package intersight

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/metrics"
	"github.com/ucs-toolbox/podcfg/internal/model"
)

const apiPrefix = "/api/v1/"

// Resource paths, relative to /api/v1/, keyed by managed-object type.
var resourcePaths = map[string]string{
	model.TypeOrganization:  "organization/Organizations",
	model.TypeResourceGroup: "resource/Groups",
	model.TypeRackUnit:      "compute/RackUnits",
	model.TypeMacPool:       "macpool/Pools",
	model.TypeUUIDPool:      "uuidpool/Pools",
	model.TypeBiosPolicy:    "bios/Policies",
	model.TypeQosPolicy:     "vnic/EthQosPolicies",
	model.TypeEthAdapter:    "vnic/EthAdapterPolicies",
	model.TypeNetworkGroup:  "fabric/EthNetworkGroupPolicies",
	model.TypeLanPolicy:     "vnic/LanConnectivityPolicies",
	model.TypeEthIf:         "vnic/EthIfs",
	model.TypeBootPolicy:    "boot/PrecisionPolicies",
	model.TypeStoragePolicy: "storage/StoragePolicies",
	model.TypeTemplate:      "server/ProfileTemplates",
	model.TypeProfile:       "server/Profiles",
}

// ResourcePath maps a managed-object type to its REST collection path.
func ResourcePath(objectType string) (string, error) {
	path, ok := resourcePaths[objectType]
	if !ok {
		return "", errors.Errorf("no resource path for object type %q", objectType)
	}

	return path, nil
}

// Client issues signed requests against the Intersight API.
type Client struct {
	http   *retryablehttp.Client
	base   *url.URL
	signer *Signer
}

// New constructs a client from the given options. It fails when the key id
// is unset or the private key file cannot be loaded, before any network
// call.
func New(opts *config.IntersightOptions, logger *logrus.Logger) (*Client, error) {
	if opts.KeyID == "" {
		return nil, errors.Wrap(model.ErrConfig, "intersight key id not set")
	}

	signer, err := NewSigner(opts.KeyID, opts.KeyFile)
	if err != nil {
		return nil, errors.Wrap(model.ErrConfig, err.Error())
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(model.ErrConfig, "parsing base URL: "+err.Error())
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.Logger = nil

	if logger != nil {
		rc.Logger = logger
	}
	rc.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		if attempt > 0 {
			metrics.APIRetries.Inc()
		}
	}

	return &Client{http: rc, base: base, signer: signer}, nil
}

type listResponse struct {
	Results []json.RawMessage `json:"Results"`
}

// List returns the managed objects of the given type matching the optional
// $filter expression.
func (c *Client) List(ctx context.Context, objectType, filter string) ([]model.Mo, error) {
	raw, err := c.ListRaw(ctx, objectType, filter)
	if err != nil {
		return nil, err
	}

	results := make([]model.Mo, 0, len(raw))

	for _, r := range raw {
		var mo model.Mo
		if err := json.Unmarshal(r, &mo); err != nil {
			return nil, errors.Wrap(model.ErrUpstream, "decoding list result: "+err.Error())
		}

		results = append(results, mo)
	}

	return results, nil
}

// ListRaw is List without the decode, for callers that need fields beyond
// model.Mo.
func (c *Client) ListRaw(ctx context.Context, objectType, filter string) ([]json.RawMessage, error) {
	path, err := ResourcePath(objectType)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if filter != "" {
		query.Set("$filter", filter)
	}

	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(model.ErrUpstream, "decoding list response: "+err.Error())
	}

	return resp.Results, nil
}

// Create POSTs a new managed object and returns its identity fields.
func (c *Client) Create(ctx context.Context, objectType string, payload any) (*model.Mo, error) {
	path, err := ResourcePath(objectType)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, err
	}

	var mo model.Mo
	if err := json.Unmarshal(body, &mo); err != nil {
		return nil, errors.Wrap(model.ErrUpstream, "decoding create response: "+err.Error())
	}

	return &mo, nil
}

// Patch updates an existing managed object by MOID.
func (c *Client) Patch(ctx context.Context, objectType, moid string, payload any) (*model.Mo, error) {
	path, err := ResourcePath(objectType)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPatch, path+"/"+moid, nil, payload)
	if err != nil {
		return nil, err
	}

	var mo model.Mo
	if err := json.Unmarshal(body, &mo); err != nil {
		return nil, errors.Wrap(model.ErrUpstream, "decoding patch response: "+err.Error())
	}

	return &mo, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	u := *c.base
	u.Path = apiPrefix + path
	u.RawQuery = query.Encode()

	var bodyBytes []byte

	if payload != nil {
		var err error

		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.signer.Sign(req.Request, bodyBytes); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(model.ErrUpstream, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(model.ErrUpstream, "reading response body: "+err.Error())
	}

	if err := mapStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// mapStatus converts an error response to one of the typed error kinds so
// callers can branch deterministically.
func mapStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return errors.Wrap(model.ErrNotFound, snippet(body))
	case status == http.StatusConflict:
		return errors.Wrap(model.ErrAlreadyExists, snippet(body))
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "already exists"):
		return errors.Wrap(model.ErrAlreadyExists, snippet(body))
	default:
		return errors.Wrapf(model.ErrUpstream, "status %d: %s", status, snippet(body))
	}
}

func snippet(body []byte) string {
	const max = 256

	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}

	return s
}
