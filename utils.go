package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dsnet/try"
	"golang.org/x/exp/slog"
	"gopkg.in/webhelp.v1/whfatal"
	"gopkg.in/webhelp.v1/whlog"
	"gopkg.in/webhelp.v1/whroute"
)

// serve runs an HTTP server on addr until ctx is canceled.
func serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, ln, h)
}

// serveListener serves on ln until ctx is canceled. It returns only once
// in-flight requests have drained or the shutdown grace period has passed.
func serveListener(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler: whlog.LogRequests(logDebug, whlog.LogResponses(logDebug,
			whfatal.Catch(tryShim(h)))),
	}
	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown error", "addr", ln.Addr().String(), "err", err)
		}
	}()
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdown
		return ctx.Err()
	}
	return err
}

func tryShim(h http.Handler) http.Handler {
	return whroute.HandlerFunc(h, func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer try.HandleF(&err, func() { whfatal.Error(err) })
		h.ServeHTTP(w, r)
	})
}

func logDebug(format string, arg ...interface{}) {
	slog.Debug(fmt.Sprintf(format, arg...))
}

func logInfo(format string, arg ...interface{}) {
	slog.Info(fmt.Sprintf(format, arg...))
}
