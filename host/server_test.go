package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/webhelp.v1/whfatal"

	"github.com/jtolio/remotectl/remote"
	"github.com/jtolio/remotectl/utils"
)

type fakeSource struct {
	mu   sync.Mutex
	n    int
	fail bool
}

func (s *fakeSource) Screenshot(ctx context.Context) (*utils.SerializedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.fail {
		return nil, errors.New("no display")
	}
	return &utils.SerializedImage{Data: []byte("jpeg"), Extension: ".jpg", MIMEType: "image/jpeg"}, nil
}

func (s *fakeSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

type call struct {
	op     string
	x, y   int
	button string
	key    string
}

type fakeActuator struct {
	mu    sync.Mutex
	calls []call
}

func (a *fakeActuator) record(c call) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, c)
	return nil
}

func (a *fakeActuator) Move(ctx context.Context, x, y int) error {
	return a.record(call{op: "move", x: x, y: y})
}

func (a *fakeActuator) Click(ctx context.Context, x, y int, button string) error {
	return a.record(call{op: "click", x: x, y: y, button: button})
}

func (a *fakeActuator) Press(ctx context.Context, key string) error {
	return a.record(call{op: "key", key: key})
}

func (a *fakeActuator) recorded() []call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]call(nil), a.calls...)
}

type fakeDest struct {
	mu     sync.Mutex
	stored int
}

func (d *fakeDest) Store(ctx context.Context, ts time.Time, img *utils.SerializedImage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stored++
	return nil
}

func (d *fakeDest) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stored
}

func testConfig() Config {
	return Config{
		FrameInterval:   time.Millisecond,
		ErrorBackoff:    time.Millisecond,
		MoveInterval:    time.Millisecond,
		ArchiveInterval: time.Millisecond,
	}
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, string) {
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestScreen(t *testing.T) {
	s := New(testConfig(), &fakeSource{}, nil, &fakeActuator{})
	srv := httptest.NewServer(whfatal.Catch(s))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/screen")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No frame available", strings.TrimSpace(string(body)))

	require.NoError(t, s.Capture(context.Background()))

	resp, err = http.Get(srv.URL + "/screen")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))

	var screen remote.ScreenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&screen))
	assert.Equal(t, "anBlZw==", screen.Image)
}

func TestMovesAreCoalesced(t *testing.T) {
	actuator := &fakeActuator{}
	s := New(testConfig(), &fakeSource{}, nil, actuator)
	srv := httptest.NewServer(whfatal.Catch(s))
	defer srv.Close()

	status, body := post(t, srv, "/mouse", `{"action": "move", "x": 1, "y": 2}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)
	post(t, srv, "/mouse", `{"action": "move", "x": 3, "y": 4}`)

	s.applyMove(context.Background())
	s.applyMove(context.Background())

	assert.Equal(t, []call{{op: "move", x: 3, y: 4}}, actuator.recorded())
}

func TestClickAndKeyboard(t *testing.T) {
	actuator := &fakeActuator{}
	s := New(testConfig(), &fakeSource{}, nil, actuator)
	srv := httptest.NewServer(whfatal.Catch(s))
	defer srv.Close()

	status, _ := post(t, srv, "/mouse", `{"action": "click", "x": 5, "y": 6}`)
	assert.Equal(t, http.StatusOK, status)
	post(t, srv, "/mouse", `{"action": "click", "button": "right", "x": 7, "y": 8}`)
	status, _ = post(t, srv, "/keyboard", `{"key": "enter"}`)
	assert.Equal(t, http.StatusOK, status)
	status, _ = post(t, srv, "/keyboard", `{}`)
	assert.Equal(t, http.StatusOK, status)

	status, _ = post(t, srv, "/mouse", `{"action": "drag"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = post(t, srv, "/keyboard", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, []call{
		{op: "click", x: 5, y: 6, button: "left"},
		{op: "click", x: 7, y: 8, button: "right"},
		{op: "key", key: "enter"},
	}, actuator.recorded())
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSource{}
	dest := &fakeDest{}
	actuator := &fakeActuator{}
	s := New(testConfig(), source, dest, actuator)
	s.move.Store(&point{x: 9, y: 9})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return source.count() >= 3 && dest.count() >= 1 && len(actuator.recorded()) == 1
	}, 5*time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []call{{op: "move", x: 9, y: 9}}, actuator.recorded())
}

func TestRunPaused(t *testing.T) {
	source := &fakeSource{}
	s := New(testConfig(), source, nil, &fakeActuator{})
	srv := httptest.NewServer(whfatal.Catch(s))
	defer srv.Close()

	status, _ := post(t, srv, "/pause", ``)
	require.Equal(t, http.StatusOK, status)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, source.count())

	post(t, srv, "/resume", ``)
	require.Eventually(t, func() bool { return source.count() > 0 }, 5*time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestCaptureFailureKeepsServing(t *testing.T) {
	source := &fakeSource{}
	s := New(testConfig(), source, nil, &fakeActuator{})
	require.NoError(t, s.Capture(context.Background()))

	source.mu.Lock()
	source.fail = true
	source.mu.Unlock()
	require.Error(t, s.Capture(context.Background()))

	c := s.latest.Load()
	require.NotNil(t, c)
	assert.Equal(t, "anBlZw==", c.encoded)
}
