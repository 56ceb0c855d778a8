package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/opt"
	"github.com/vango-dev/composables/pkg/storage"
)

// Remote is a storage.Storage backed by one area of a hub's REST API.
// Changes made through it reach every connected client.
type Remote struct {
	base   string
	area   string
	client *http.Client
}

// NewRemote returns the area of the hub at baseURL, e.g.
// "http://localhost:7300". A nil client uses a client with a 10s timeout.
func NewRemote(baseURL, area string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if area == "" {
		area = storage.AreaLocal
	}
	return &Remote{base: strings.TrimSuffix(baseURL, "/"), area: area, client: client}
}

var _ storage.Storage = (*Remote)(nil)

func (r *Remote) url(key string) string {
	u := r.base + "/storage"
	if key != "" {
		u += "/" + url.PathEscape(key)
	}
	return u + "?area=" + url.QueryEscape(r.area)
}

func (r *Remote) do(method, key string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(context.Background(), method, r.url(key), body)
	if err != nil {
		return nil, errors.New("E301").Wrap(err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.New("E301").WithDetail(r.base).Wrap(err)
	}
	return resp, nil
}

// fail turns an unexpected response into an error carrying the server's
// code when it sent one.
func (r *Remote) fail(op, key string, resp *http.Response) error {
	var e errorResponse
	json.NewDecoder(resp.Body).Decode(&e)
	detail := fmt.Sprintf("%s %q: status %d", op, key, resp.StatusCode)
	if e.Message != "" {
		detail += ": " + e.Message
	}
	code := e.Code
	if code == "" {
		code = "E202"
	}
	err := errors.New(code).WithDetail(detail)
	if resp.StatusCode == http.StatusInsufficientStorage {
		return err.Wrap(storage.ErrQuotaExceeded)
	}
	return err
}

// GetItem implements storage.Storage.
func (r *Remote) GetItem(key string) (opt.Value[string], error) {
	resp, err := r.do(http.MethodGet, key, nil)
	if err != nil {
		return opt.Null[string](), err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var item itemResponse
		if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
			return opt.Null[string](), errors.New("E302").Wrap(err)
		}
		return opt.Of(item.Value), nil
	case http.StatusNotFound:
		return opt.Null[string](), nil
	}
	return opt.Null[string](), r.fail("get", key, resp)
}

// SetItem implements storage.Storage.
func (r *Remote) SetItem(key, value string) error {
	return r.expectNoContent(http.MethodPut, "set", key, strings.NewReader(value))
}

// RemoveItem implements storage.Storage.
func (r *Remote) RemoveItem(key string) error {
	return r.expectNoContent(http.MethodDelete, "remove", key, nil)
}

// Clear implements storage.Storage.
func (r *Remote) Clear() error {
	return r.expectNoContent(http.MethodDelete, "clear", "", nil)
}

func (r *Remote) expectNoContent(method, op, key string, body io.Reader) error {
	resp, err := r.do(method, key, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return r.fail(op, key, resp)
	}
	return nil
}

// Items returns every item of the area.
func (r *Remote) Items() (map[string]string, error) {
	resp, err := r.do(http.MethodGet, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, r.fail("list", "", resp)
	}
	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, errors.New("E302").Wrap(err)
	}
	return list.Items, nil
}

// Keys implements storage.Storage.
func (r *Remote) Keys() ([]string, error) {
	items, err := r.Items()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
