package ipfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// VersionUnknown is the sentinel returned when the node cannot be reached.
// Callers must not treat it as a real version string.
const VersionUnknown = "Unknown"

// Client talks to a Kubo-compatible node over its HTTP RPC API
// (POST-only, /api/v0). All transport failures are absorbed here: read
// operations degrade to sentinel values, write operations return errors.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// flexInt64 tolerates the node reporting sizes as either a JSON number or a
// quoted string; anything unparseable decodes to 0.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt64(n)
	return nil
}

type objectStatResponse struct {
	CumulativeSize flexInt64 `json:"CumulativeSize"`
}

type addResponse struct {
	Name string    `json:"Name"`
	Hash string    `json:"Hash"`
	Size flexInt64 `json:"Size"`
}

type versionResponse struct {
	Version string `json:"Version"`
}

type swarmPeersResponse struct {
	Peers []json.RawMessage `json:"Peers"`
}

// AddResult is what the node reported for an upload. Size may legitimately be
// 0 when the node omits or garbles it; callers fall back to the byte count
// they observed on the wire.
type AddResult struct {
	CID  string
	Size int64
}

func (c *Client) post(ctx context.Context, endpoint string, query string, out interface{}) error {
	url := c.apiURL + "/" + endpoint
	if query != "" {
		url += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ipfs api %s: status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postIdempotent retries a read exactly once. Pin and Add must never go
// through here.
func (c *Client) postIdempotent(ctx context.Context, endpoint string, query string, out interface{}) error {
	err := c.post(ctx, endpoint, query, out)
	if err == nil || ctx.Err() != nil {
		return err
	}
	return c.post(ctx, endpoint, query, out)
}

// Exists reports whether the node knows the CID. Any transport or not-found
// failure maps to false; it never returns an error.
func (c *Client) Exists(ctx context.Context, cid string) bool {
	var stat objectStatResponse
	err := c.postIdempotent(ctx, "object/stat", "arg="+cid, &stat)
	return err == nil
}

// ResolveSize returns the cumulative size the node reports for a CID. The
// second return is false when the size is unavailable or malformed; the zero
// it returns then means "unknown", not "empty".
func (c *Client) ResolveSize(ctx context.Context, cid string) (int64, bool) {
	var stat objectStatResponse
	if err := c.postIdempotent(ctx, "object/stat", "arg="+cid, &stat); err != nil {
		return 0, false
	}
	if stat.CumulativeSize <= 0 {
		return 0, false
	}
	return int64(stat.CumulativeSize), true
}

// Pin asks the node to retain the CID. Not retried: a pin that timed out may
// still have landed.
func (c *Client) Pin(ctx context.Context, cid string) error {
	if err := c.post(ctx, "pin/add", "arg="+cid, nil); err != nil {
		return fmt.Errorf("pin/add %s: %w", cid, err)
	}
	return nil
}

// Add streams new content to the node and returns the assigned CID.
func (c *Client) Add(ctx context.Context, content io.Reader, filename, mimeType string) (*AddResult, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
		if mimeType != "" {
			header["Content-Type"] = []string{mimeType}
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/add", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("add: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return nil, fmt.Errorf("add: decoding response: %w", err)
	}
	if added.Hash == "" {
		return nil, fmt.Errorf("add: node returned no CID")
	}

	return &AddResult{CID: added.Hash, Size: int64(added.Size)}, nil
}

// PeerCount is best effort; 0 on any failure.
func (c *Client) PeerCount(ctx context.Context) int {
	var peers swarmPeersResponse
	if err := c.postIdempotent(ctx, "swarm/peers", "", &peers); err != nil {
		return 0
	}
	return len(peers.Peers)
}

// Version is best effort; VersionUnknown on any failure.
func (c *Client) Version(ctx context.Context) string {
	var ver versionResponse
	if err := c.postIdempotent(ctx, "version", "", &ver); err != nil || ver.Version == "" {
		return VersionUnknown
	}
	return ver.Version
}
