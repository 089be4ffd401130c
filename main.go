package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dsnet/try"
	"github.com/rs/cors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"storj.io/private/cfgstruct"

	"github.com/jtolio/remotectl/actuate"
	"github.com/jtolio/remotectl/host"
	"github.com/jtolio/remotectl/input"
	"github.com/jtolio/remotectl/poller"
	"github.com/jtolio/remotectl/remote"
	"github.com/jtolio/remotectl/report"
	"github.com/jtolio/remotectl/screenshots"
	"github.com/jtolio/remotectl/storage"
	"github.com/jtolio/remotectl/surface"
	"github.com/jtolio/remotectl/viewer"
)

var cfg struct {
	Remote remote.Config
	Poller poller.Config
	Input  input.Config
	Viewer viewer.Config

	Addr        string `default:":5005" help:"address for the host to listen on"`
	Host        host.Config
	Screenshots screenshots.Config
	Actuate     actuate.Config
	Storage     storage.Config
}

func init() { cfgstruct.Bind(pflag.CommandLine, &cfg) }

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [view|host] [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch mode := pflag.Arg(0); mode {
	case "", "view":
		try.E(ignoreCanceled(runViewer(ctx)))
	case "host":
		try.E(ignoreCanceled(runHost(ctx)))
	default:
		pflag.Usage()
		os.Exit(2)
	}
}

func runViewer(ctx context.Context) error {
	client := remote.New(cfg.Remote)
	display := surface.New()

	var tally report.Tally
	defer func() {
		polls, moves := tally.Get(report.OpPoll), tally.Get(report.OpMove)
		logInfo("session ended: %d/%d polls failed, %d/%d moves failed",
			polls.Failed, polls.Failed+polls.Succeeded,
			moves.Failed, moves.Failed+moves.Succeeded)
	}()

	fwd := input.New(cfg.Input, client, &tally)
	defer func() { _ = fwd.Close() }()

	p := poller.New(cfg.Poller, client, display, nil, &tally)
	v := viewer.New(display, fwd)

	logInfo("viewing %s on http://%s", client, cfg.Viewer.Addr)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return serve(ctx, cfg.Viewer.Addr, v) })
	group.Go(func() error { return p.Run(ctx) })
	return group.Wait()
}

func runHost(ctx context.Context) error {
	source, err := screenshots.NewSource(cfg.Screenshots)
	if err != nil {
		return err
	}
	actuator, err := actuate.New(cfg.Actuate)
	if err != nil {
		return err
	}

	var dest host.ScreenshotDest
	if cfg.Storage.Enabled() {
		archive, err := storage.NewFrameArchive(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()
		dest = archive
	}

	s := host.New(cfg.Host, source, dest, actuator)
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Cache-Control", "Pragma"},
	}).Handler(s)

	logInfo("host listening on %s", cfg.Addr)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return serve(ctx, cfg.Addr, handler) })
	group.Go(func() error { return s.Run(ctx) })
	return group.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
