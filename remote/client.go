package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	mon = monkit.Package()

	// Error is the error class for failed calls to the remote host.
	Error = errs.Class("remote")
)

type Config struct {
	Address string        `default:"http://127.0.0.1:5005" help:"base address of the remote host"`
	Timeout time.Duration `default:"0s" help:"per-request timeout. 0 relies on the transport"`
}

// Client talks to a remote host's screen and input endpoints.
type Client struct {
	base string
	http *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		base: strings.TrimRight(cfg.Address, "/"),
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Screen fetches the latest frame. The request bypasses intermediate caches.
func (c *Client) Screen(ctx context.Context) (image string, err error) {
	defer mon.Task()(&ctx)(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+PathScreen, nil)
	if err != nil {
		return "", Error.Wrap(err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(resp.Body.Close())) }()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var body ScreenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", Error.Wrap(err)
	}
	if body.Image == "" {
		return "", Error.New("response has no image")
	}
	return body.Image, nil
}

// Mouse sends a pointer action.
func (c *Client) Mouse(ctx context.Context, m MouseRequest) (err error) {
	defer mon.Task()(&ctx)(&err)
	return c.post(ctx, PathMouse, m)
}

// Keyboard sends a key press.
func (c *Client) Keyboard(ctx context.Context, key string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return c.post(ctx, PathKeyboard, KeyboardRequest{Key: key})
}

func (c *Client) post(ctx context.Context, path string, v interface{}) (err error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Error.Wrap(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return Error.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(resp.Body.Close())) }()

	if err := checkStatus(resp); err != nil {
		return err
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return Error.Wrap(err)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return Error.New("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
}

// String implements fmt.Stringer.
func (c *Client) String() string {
	return fmt.Sprintf("remote(%s)", c.base)
}
