package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/odvcencio/sprout/pkg/object"
)

// Endpoint identifies a Sprout protocol repository endpoint.
// BaseURL is normalized to ".../sprout/{owner}/{repo}" with no trailing
// slash.
type Endpoint struct {
	Raw     string
	BaseURL string
	Host    string
	Owner   string
	Repo    string
	user    string
	pass    string
}

// ParseEndpoint parses a remote URL into a canonical endpoint.
//
// Supported inputs include:
//   - https://host/sprout/owner/repo
//   - https://host/owner/repo (expanded to /sprout/owner/repo)
//   - https://host/api/v1/sprout/owner/repo
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Endpoint{}, fmt.Errorf("remote URL must include scheme and host")
	}

	segments := splitPathSegments(u.Path)
	if len(segments) < 2 {
		return Endpoint{}, fmt.Errorf("remote URL must include owner and repository")
	}

	protoIdx := -1
	for i := 0; i+2 < len(segments); i++ {
		if segments[i] == "sprout" {
			protoIdx = i
		}
	}

	var owner, repo string
	var baseSegments []string
	if protoIdx >= 0 {
		owner = segments[protoIdx+1]
		repo = segments[protoIdx+2]
		baseSegments = append(baseSegments, segments[:protoIdx+3]...)
	} else {
		owner = segments[len(segments)-2]
		repo = segments[len(segments)-1]
		baseSegments = append(baseSegments, segments[:len(segments)-2]...)
		baseSegments = append(baseSegments, "sprout", owner, repo)
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(repo) == "" {
		return Endpoint{}, fmt.Errorf("remote URL must include non-empty owner and repository")
	}

	endpointURL := *u
	endpointURL.Path = "/" + strings.Join(baseSegments, "/")
	endpointURL.RawPath = ""
	endpointURL.RawQuery = ""
	endpointURL.Fragment = ""
	user := ""
	pass := ""
	if endpointURL.User != nil {
		user = endpointURL.User.Username()
		pass, _ = endpointURL.User.Password()
	}
	endpointURL.User = nil

	return Endpoint{
		Raw:     raw,
		BaseURL: strings.TrimRight(endpointURL.String(), "/"),
		Host:    u.Hostname(),
		Owner:   owner,
		Repo:    repo,
		user:    user,
		pass:    pass,
	}, nil
}

func splitPathSegments(p string) []string {
	p = strings.TrimSpace(path.Clean(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return nil
	}
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

// ObjectRecord is an object payload used by push/pull operations.
type ObjectRecord struct {
	Hash object.Hash
	Type object.ObjectType
	Data []byte
}

// RefUpdate is one atomic reference update request.
type RefUpdate struct {
	Name string
	Old  *object.Hash
	New  *object.Hash
}

// ClientOptions configures the remote protocol client.
type ClientOptions struct {
	Timeout     time.Duration      // HTTP client timeout (default 60s)
	MaxAttempts int                // retry attempts (default 3)
	Credentials CredentialProvider // defaults to env + credentials file
}

// Response limits per endpoint type.
const (
	responseLimitDefault = 2 << 20  // 2MB
	responseLimitRefs    = 8 << 20  // 8MB
	responseLimitBatch   = 64 << 20 // 64MB
	responseLimitObject  = 32 << 20 // 32MB
)

// pushCompressThreshold is the payload size above which push bodies are
// zstd-compressed.
const pushCompressThreshold = 1 << 10

// Client is a transport client for the Sprout exchange protocol.
type Client struct {
	endpoint    Endpoint
	httpClient  *http.Client
	cred        Credential
	maxAttempts int
}

// NewClient creates a remote protocol client with default options.
//
// Auth resolution order:
//  1. SPROUT_TOKEN (Bearer)
//  2. SPROUT_USERNAME + SPROUT_PASSWORD (Basic)
//  3. stored credentials file
//  4. URL userinfo (Basic)
func NewClient(remoteURL string) (*Client, error) {
	return NewClientWithOptions(remoteURL, ClientOptions{})
}

// NewClientWithOptions creates a remote protocol client with configurable
// options. Zero-value fields in opts receive defaults.
func NewClientWithOptions(remoteURL string, opts ClientOptions) (*Client, error) {
	endpoint, err := ParseEndpoint(remoteURL)
	if err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	provider := opts.Credentials
	if provider == nil {
		provider = DefaultCredentialProvider()
	}

	cred, err := provider.Credential(endpoint.Host)
	if err != nil {
		return nil, fmt.Errorf("resolve credentials for %s: %w", endpoint.Host, err)
	}
	if cred.IsZero() && endpoint.user != "" {
		cred = Credential{Username: endpoint.user, Password: endpoint.pass}
	}

	return &Client{
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		cred:        cred,
		maxAttempts: opts.MaxAttempts,
	}, nil
}

// Endpoint returns the parsed endpoint metadata.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// ListRefs returns all remote refs (e.g. heads/main).
func (c *Client) ListRefs(ctx context.Context) (map[string]object.Hash, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.BaseURL+"/refs", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.doWithLimit(req, http.StatusOK, responseLimitRefs, "application/json")
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode refs response: %w", err)
	}
	refs := make(map[string]object.Hash, len(raw))
	for name, hash := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h := object.Hash(strings.TrimSpace(hash))
		if err := ValidateHash(h); err != nil {
			return nil, fmt.Errorf("invalid hash for ref %q: %w", name, err)
		}
		refs[name] = h
	}
	return refs, nil
}

type wireObject struct {
	Hash string `json:"hash"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

func decodeObjectList(objs []wireObject) ([]ObjectRecord, error) {
	out := make([]ObjectRecord, 0, len(objs))
	for _, obj := range objs {
		objType, err := parseObjectType(obj.Type)
		if err != nil {
			return nil, err
		}
		h := object.Hash(strings.TrimSpace(obj.Hash))
		if err := ValidateHash(h); err != nil {
			return nil, fmt.Errorf("invalid hash in batch response: %w", err)
		}
		out = append(out, ObjectRecord{Hash: h, Type: objType, Data: obj.Data})
	}
	return out, nil
}

// BatchObjects fetches objects reachable from wants and not in haves. The
// response body may arrive zstd-compressed; Truncated indicates that the
// server stopped short of maxObjects and another round is needed.
func (c *Client) BatchObjects(ctx context.Context, wants, haves []object.Hash, maxObjects int) ([]ObjectRecord, bool, error) {
	reqBody := struct {
		Wants      []string `json:"wants"`
		Haves      []string `json:"haves,omitempty"`
		MaxObjects int      `json:"max_objects,omitempty"`
	}{
		MaxObjects: maxObjects,
	}
	for _, h := range wants {
		if strings.TrimSpace(string(h)) != "" {
			reqBody.Wants = append(reqBody.Wants, string(h))
		}
	}
	for _, h := range haves {
		if strings.TrimSpace(string(h)) != "" {
			reqBody.Haves = append(reqBody.Haves, string(h))
		}
	}
	if len(reqBody.Wants) == 0 {
		return nil, false, fmt.Errorf("at least one non-empty want hash is required")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.BaseURL+"/objects/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "zstd")

	body, err := c.doWithLimit(req, http.StatusOK, responseLimitBatch, "application/json")
	if err != nil {
		return nil, false, err
	}

	var resp struct {
		Objects   []wireObject `json:"objects"`
		Truncated bool         `json:"truncated"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("decode batch response: %w", err)
	}
	records, err := decodeObjectList(resp.Objects)
	if err != nil {
		return nil, false, err
	}
	return records, resp.Truncated, nil
}

// GetObject fetches one object by hash.
func (c *Client) GetObject(ctx context.Context, hash object.Hash) (ObjectRecord, error) {
	hash = object.Hash(strings.TrimSpace(string(hash)))
	if hash == "" {
		return ObjectRecord{}, fmt.Errorf("object hash is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.BaseURL+"/objects/"+string(hash), nil)
	if err != nil {
		return ObjectRecord{}, err
	}
	c.applyAuth(req)

	resp, err := retryDo(c.httpClient, req, c.maxAttempts)
	if err != nil {
		return ObjectRecord{}, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, responseLimitObject))
	if readErr != nil {
		return ObjectRecord{}, readErr
	}
	if resp.StatusCode != http.StatusOK {
		if re := tryParseRemoteError(body); re != nil {
			return ObjectRecord{}, re
		}
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return ObjectRecord{}, fmt.Errorf("remote request failed (%s %s): %s", req.Method, req.URL.Path, msg)
	}
	if isZstdEncoded(resp.Header.Get("Content-Encoding")) {
		body, err = decompressZstd(body)
		if err != nil {
			return ObjectRecord{}, fmt.Errorf("decompress object %s: %w", hash, err)
		}
	}

	objType, err := parseObjectType(strings.TrimSpace(resp.Header.Get("X-Object-Type")))
	if err != nil {
		return ObjectRecord{}, fmt.Errorf("decode object %s: %w", hash, err)
	}
	return ObjectRecord{Hash: hash, Type: objType, Data: body}, nil
}

// PushObjects uploads objects as a newline-delimited JSON payload,
// zstd-compressed when large enough to benefit.
func (c *Client) PushObjects(ctx context.Context, objects []ObjectRecord) error {
	if len(objects) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, obj := range objects {
		if _, err := parseObjectType(string(obj.Type)); err != nil {
			return fmt.Errorf("push object %d: %w", i, err)
		}
		computedHash := object.HashObject(obj.Type, obj.Data)
		if provided := object.Hash(strings.TrimSpace(string(obj.Hash))); provided != "" && provided != computedHash {
			return fmt.Errorf("push object %d: hash mismatch (provided %s, computed %s)", i, provided, computedHash)
		}
		if err := enc.Encode(wireObject{
			Hash: string(computedHash),
			Type: string(obj.Type),
			Data: obj.Data,
		}); err != nil {
			return fmt.Errorf("push object %d: encode: %w", i, err)
		}
	}

	payload := buf.Bytes()
	compressed := false
	if len(payload) > pushCompressThreshold {
		z, err := compressZstd(payload)
		if err != nil {
			return fmt.Errorf("compress push payload: %w", err)
		}
		payload = z
		compressed = true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.BaseURL+"/objects", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if compressed {
		req.Header.Set("Content-Encoding", "zstd")
	}

	if _, err := c.doWithLimit(req, http.StatusOK, responseLimitDefault, "application/json"); err != nil {
		return err
	}
	return nil
}

// UpdateRefs applies atomic CAS updates on the remote refs. A nil Old means
// "create only"; a nil New deletes the ref.
func (c *Client) UpdateRefs(ctx context.Context, updates []RefUpdate) (map[string]object.Hash, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("at least one ref update is required")
	}

	type refUpdatePayload struct {
		Name string  `json:"name"`
		Old  *string `json:"old,omitempty"`
		New  *string `json:"new"`
	}
	payload := struct {
		Updates []refUpdatePayload `json:"updates"`
	}{
		Updates: make([]refUpdatePayload, 0, len(updates)),
	}
	for _, u := range updates {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return nil, fmt.Errorf("ref update name is required")
		}
		var oldStr *string
		if u.Old != nil {
			v := strings.TrimSpace(string(*u.Old))
			oldStr = &v
		}
		newVal := ""
		if u.New != nil {
			newVal = strings.TrimSpace(string(*u.New))
		}
		payload.Updates = append(payload.Updates, refUpdatePayload{
			Name: name,
			Old:  oldStr,
			New:  &newVal,
		})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.BaseURL+"/refs", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.doWithLimit(req, http.StatusOK, responseLimitDefault, "application/json")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Updated map[string]string `json:"updated"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode ref update response: %w", err)
	}

	out := make(map[string]object.Hash, len(resp.Updated))
	for name, hash := range resp.Updated {
		out[name] = object.Hash(strings.TrimSpace(hash))
	}
	return out, nil
}

func (c *Client) doWithLimit(req *http.Request, expectedStatus int, maxBytes int64, expectedContentType string) ([]byte, error) {
	c.applyAuth(req)
	resp, err := retryDo(c.httpClient, req, c.maxAttempts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode != expectedStatus {
		if re := tryParseRemoteError(body); re != nil {
			return nil, re
		}
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("remote request failed (%s %s): %s", req.Method, req.URL.Path, msg)
	}

	if isZstdEncoded(resp.Header.Get("Content-Encoding")) {
		body, err = decompressZstd(body)
		if err != nil {
			return nil, fmt.Errorf("decompress response: %w", err)
		}
	}

	if expectedContentType != "" {
		ct := resp.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, expectedContentType) {
			return nil, fmt.Errorf("unexpected content type %q (expected %s) from %s %s",
				ct, expectedContentType, req.Method, req.URL.Path)
		}
	}

	return body, nil
}

func (c *Client) applyAuth(req *http.Request) {
	req.Header.Set(headerProtocol, ProtocolVersion)
	req.Header.Set(headerCapabilities, ClientCapabilities)

	if strings.TrimSpace(c.cred.Token) != "" {
		req.Header.Set("Authorization", "Bearer "+c.cred.Token)
		return
	}
	if strings.TrimSpace(c.cred.Username) != "" {
		req.SetBasicAuth(c.cred.Username, c.cred.Password)
	}
}

func parseObjectType(raw string) (object.ObjectType, error) {
	switch t := object.ObjectType(strings.TrimSpace(raw)); t {
	case object.TypeBlob, object.TypeTree, object.TypeCommit:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported object type %q", raw)
	}
}
