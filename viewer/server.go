// Package viewer serves the local page a person uses to watch and drive the
// remote host.
package viewer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dsnet/try"
	"gopkg.in/webhelp.v1/wherr"
	"gopkg.in/webhelp.v1/whfatal"
	"gopkg.in/webhelp.v1/whmux"

	"github.com/jtolio/remotectl/input"
	"github.com/jtolio/remotectl/surface"
)

type Config struct {
	Addr string `default:"127.0.0.1:8080" help:"address for the viewer to listen on"`
}

// Frames provides the currently displayed frame.
type Frames interface {
	Latest() (surface.Frame, bool)
}

// Forwarder sends interactions to the remote host.
type Forwarder interface {
	Move(ctx context.Context, clientX, clientY float64, rect surface.Rect) bool
	Click(ctx context.Context, button input.Button, rect surface.Rect) error
	Key(ctx context.Context, key string) error
}

type Server struct {
	frames Frames
	input  Forwarder

	http.Handler
}

func New(frames Frames, input Forwarder) *Server {
	s := &Server{
		frames: frames,
		input:  input,
	}
	s.Handler = whmux.Dir{
		"":            whmux.Exact(http.HandlerFunc(s.pageLanding)),
		"frame":       whmux.Exact(http.HandlerFunc(s.pageFrame)),
		"latest":      whmux.Exact(http.HandlerFunc(s.pageLatest)),
		"move":        whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionMove)}),
		"click":       whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionClick)}),
		"key":         whmux.ExactPath(whmux.Method{"POST": http.HandlerFunc(s.actionKey)}),
		"favicon.ico": whmux.Exact(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})),
	}
	return s
}

func (s *Server) pageLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	try.E(indexHTML.Execute(w, struct{ Keys []string }{Keys: input.Keys}))
}

type frameResponse struct {
	Seq uint64 `json:"seq"`
	Src string `json:"src"`
}

func (s *Server) pageFrame(w http.ResponseWriter, r *http.Request) {
	noCache(w)
	f, ok := s.frames.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, frameResponse{Seq: f.Seq, Src: f.Source()})
}

func (s *Server) pageLatest(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frames.Latest()
	if !ok {
		whfatal.Error(wherr.NotFound.New("no frame yet"))
	}
	data, err := f.Bytes()
	if err != nil {
		whfatal.Error(wherr.InternalServerError.New("undecodable frame: %v", err))
	}
	noCache(w)
	w.Header().Set("Content-Type", "image/jpeg")
	try.E1(w.Write(data))
}

type moveRequest struct {
	ClientX float64      `json:"clientX"`
	ClientY float64      `json:"clientY"`
	Rect    surface.Rect `json:"rect"`
}

type clickRequest struct {
	Button input.Button `json:"button"`
	Rect   surface.Rect `json:"rect"`
}

type keyRequest struct {
	Key string `json:"key"`
}

func (s *Server) actionMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	decodeJSON(r, &req)
	accepted := s.input.Move(r.Context(), req.ClientX, req.ClientY, req.Rect)
	writeJSON(w, map[string]bool{"accepted": accepted})
}

func (s *Server) actionClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	decodeJSON(r, &req)
	if err := s.input.Click(r.Context(), req.Button, req.Rect); err != nil {
		whfatal.Error(wherr.BadRequest.New("%v", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) actionKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	decodeJSON(r, &req)
	if err := s.input.Key(r.Context(), req.Key); err != nil {
		whfatal.Error(wherr.BadRequest.New("%v", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, v interface{}) {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v); err != nil {
		whfatal.Error(wherr.BadRequest.New("invalid request body: %v", err))
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	try.E(json.NewEncoder(w).Encode(v))
}

func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
