package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Qefaraki/treescape/pkg/cache"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/httputil"
	"github.com/Qefaraki/treescape/pkg/observability"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// HTTPSource fetches nodes from the tree data service over HTTP.
// Responses are cached as raw bytes in a pluggable cache backend so that
// repeated fetches of the same region (common while panning back and
// forth) skip the network entirely.
type HTTPSource struct {
	baseURL string
	treeID  string
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
}

// NewHTTPSource creates an HTTP source for the service at baseURL.
// Pass a NullCache to disable response caching.
func NewHTTPSource(baseURL, treeID string, c cache.Cache) *HTTPSource {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &HTTPSource{
		baseURL: baseURL,
		treeID:  treeID,
		http:    NewHTTPClient(),
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		ttl:     15 * time.Minute,
	}
}

// FetchRegion requests the nodes inside bounds from the data service.
func (s *HTTPSource) FetchRegion(ctx context.Context, bounds geom.Rect, maxDepth int) ([]tree.Node, error) {
	key := s.keyer.RegionKey(s.treeID, cache.RegionKeyOpts{
		MinX: bounds.MinX, MinY: bounds.MinY,
		MaxX: bounds.MaxX, MaxY: bounds.MaxY,
		MaxDepth: maxDepth,
	})

	q := url.Values{}
	q.Set("minx", formatCoord(bounds.MinX))
	q.Set("miny", formatCoord(bounds.MinY))
	q.Set("maxx", formatCoord(bounds.MaxX))
	q.Set("maxy", formatCoord(bounds.MaxY))
	if maxDepth > 0 {
		q.Set("depth", strconv.Itoa(maxDepth))
	}
	return s.fetch(ctx, key, s.baseURL+"/v1/nodes?"+q.Encode())
}

// FetchInitial requests the root and its first generations.
func (s *HTTPSource) FetchInitial(ctx context.Context, rootID string, generations int) ([]tree.Node, error) {
	key := s.keyer.InitialKey(s.treeID, cache.InitialKeyOpts{
		RootID:      rootID,
		Generations: generations,
	})

	q := url.Values{}
	if rootID != "" {
		q.Set("root", rootID)
	}
	if generations > 0 {
		q.Set("generations", strconv.Itoa(generations))
	}
	u := s.baseURL + "/v1/nodes/initial"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return s.fetch(ctx, key, u)
}

// fetch retrieves a node payload from cache or the service, with retry.
func (s *HTTPSource) fetch(ctx context.Context, key, rawURL string) ([]tree.Node, error) {
	if data, hit, _ := s.cache.Get(ctx, key); hit {
		observability.Cache().OnCacheHit(ctx, "region")
		return decodeNodes(data)
	}
	observability.Cache().OnCacheMiss(ctx, "region")

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var ferr error
		body, ferr = s.doRequest(ctx, rawURL)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	nodes, err := decodeNodes(body)
	if err != nil {
		return nil, err
	}
	if cerr := s.cache.Set(ctx, key, body, s.ttl); cerr == nil {
		observability.Cache().OnCacheSet(ctx, "region", len(body))
	}
	return nodes, nil
}

func (s *HTTPSource) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func decodeNodes(data []byte) ([]tree.Node, error) {
	var t tree.Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t.Nodes, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Ensure HTTPSource implements NodeSource.
var _ NodeSource = (*HTTPSource)(nil)
