package places

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"staybook/internal/domain"
)

// Client talks to the places API with client-side rate limiting and retries.
// Status errors wrap the domain sentinels so callers can branch without
// knowing this package.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) SearchNearby(ctx context.Context, lat, lng, radiusM float64) ([]map[string]any, error) {
	body := map[string]any{
		"includedTypes":  []string{"lodging"},
		"maxResultCount": 20,
		"locationRestriction": map[string]any{
			"circle": map[string]any{
				"center": map[string]any{"latitude": lat, "longitude": lng},
				"radius": radiusM,
			},
		},
	}
	return c.search(ctx, "/places:searchNearby", body)
}

func (c *Client) SearchText(ctx context.Context, query string) ([]map[string]any, error) {
	body := map[string]any{"textQuery": query, "maxResultCount": 20}
	return c.search(ctx, "/places:searchText", body)
}

// Media fetches one photo by reference and returns the bytes plus the
// upstream content type.
func (c *Client) Media(ctx context.Context, ref string) ([]byte, string, error) {
	u := fmt.Sprintf("%s/%s/media?maxWidthPx=800&key=%s", c.base, strings.Trim(ref, "/"), url.QueryEscape(c.key))
	var buf bytes.Buffer
	ctype, err := c.do(ctx, http.MethodGet, u, nil, func(resp *http.Response) error {
		_, cerr := io.Copy(&buf, io.LimitReader(resp.Body, 8<<20))
		return cerr
	})
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ctype, nil
}

// ---- Internals ----

func (c *Client) search(ctx context.Context, path string, body map[string]any) ([]map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Places  []map[string]any `json:"places"`
		Results []map[string]any `json:"results"` // legacy shape
	}
	_, err = c.do(ctx, http.MethodPost, c.base+path, payload, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, err
	}
	if len(out.Places) > 0 {
		return out.Places, nil
	}
	return out.Results, nil
}

// do performs one request with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided. onOK consumes the
// body of a successful response; the returned string is the content type.
func (c *Client) do(ctx context.Context, method, url string, body []byte, onOK func(*http.Response) error) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// fresh request each attempt
		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return "", err
		}
		req.Header.Set("X-Goog-Api-Key", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "staybook/1.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Goog-FieldMask",
				"places.id,places.displayName,places.rating,places.userRatingCount,places.types,places.formattedAddress,places.location,places.photos")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamDown, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			ctype := resp.Header.Get("Content-Type")
			err := onOK(resp)
			resp.Body.Close()
			return ctype, err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return "", nil

		case http.StatusNotFound:
			resp.Body.Close()
			return "", fmt.Errorf("places: %w", domain.ErrNotFound)

		case http.StatusUnauthorized:
			resp.Body.Close()
			return "", fmt.Errorf("places: %w", domain.ErrUnauthorized)

		case http.StatusForbidden:
			resp.Body.Close()
			return "", fmt.Errorf("places: %w", domain.ErrForbidden)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", lastErr

		default:
			// surface a small slice of the error body; the frontend shows it verbatim
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return "", lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
