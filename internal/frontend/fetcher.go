package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// HTTPFetcher は JSON API から一覧を取得します。
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	token   string
}

// FetcherOption は HTTPFetcher の任意設定です。
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient は利用する http.Client を設定します。
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithBearerToken は Authorization ヘッダに付与するトークンを設定します。
func WithBearerToken(token string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.token = strings.TrimSpace(token)
	}
}

// NewHTTPFetcher は baseURL (例: http://localhost:8080) に対する HTTPFetcher を生成します。
func NewHTTPFetcher(baseURL string, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch は一覧 API を呼び出します。401 は ErrLoginRequired です。
func (f *HTTPFetcher) Fetch(ctx context.Context, p Params) (*Result, error) {
	q := url.Values{}
	if p.Letter != "" {
		q.Set("letter", p.Letter)
	} else if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Department != "" {
		q.Set("department", p.Department)
	}
	if p.Sort != "" {
		q.Set("sort", string(p.Sort))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Instance != "" {
		q.Set("instance", p.Instance)
	}

	var res Result
	if err := f.get(ctx, "/api/v1/employees", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Departments は部署一覧を取得します。
func (f *HTTPFetcher) Departments(ctx context.Context) ([]string, error) {
	var body struct {
		Departments []string `json:"departments"`
	}
	if err := f.get(ctx, "/api/v1/departments", nil, &body); err != nil {
		return nil, err
	}
	return body.Departments, nil
}

func (f *HTTPFetcher) get(ctx context.Context, path string, q url.Values, out any) error {
	target := f.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrLoginRequired
	}
	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, body.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
