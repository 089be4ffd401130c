package storage

import (
	"context"
	"time"

	"github.com/zeebo/errs"
	"storj.io/uplink"

	"github.com/jtolio/remotectl/utils"
)

// Error is the error class for archive failures.
var Error = errs.Class("storage")

type Config struct {
	UplinkAccess string        `help:"storj uplink access grant. empty disables the frame archive"`
	Bucket       string        `help:"storj bucket"`
	PathPrefix   string        `help:"storj path prefix"`
	Expiration   time.Duration `default:"1m" help:"when archived frames expire. 0 means no expiration."`
	History      bool          `help:"if true, keep every archived frame, not just the latest" default:"false"`
}

// Enabled reports whether an archive is configured.
func (cfg Config) Enabled() bool { return cfg.UplinkAccess != "" }

// FrameArchive uploads captured frames to a Storj bucket.
type FrameArchive struct {
	cfg  Config
	proj *uplink.Project
}

func NewFrameArchive(ctx context.Context, cfg Config) (*FrameArchive, error) {
	if cfg.Bucket == "" {
		return nil, Error.New("bucket required")
	}
	access, err := uplink.ParseAccess(cfg.UplinkAccess)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	proj, err := uplink.OpenProject(ctx, access)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	_, err = proj.EnsureBucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, errs.Combine(Error.Wrap(err), proj.Close())
	}
	return &FrameArchive{
		cfg:  cfg,
		proj: proj,
	}, nil
}

func (d *FrameArchive) upload(ctx context.Context, path string, data []byte, mimeType string, expiration time.Time) error {
	w, err := d.proj.UploadObject(ctx, d.cfg.Bucket, d.cfg.PathPrefix+path,
		&uplink.UploadOptions{Expires: expiration})
	if err != nil {
		return Error.Wrap(err)
	}
	_, err = w.Write(data)
	if err != nil {
		return errs.Combine(Error.Wrap(err), w.Abort())
	}
	if mimeType != "" {
		err = w.SetCustomMetadata(ctx, uplink.CustomMetadata{
			"Content-Type": mimeType,
		})
		if err != nil {
			return errs.Combine(Error.Wrap(err), w.Abort())
		}
	}
	return Error.Wrap(w.Commit())
}

// Store uploads img as the latest frame and, with History set, under a
// timestamped path.
func (d *FrameArchive) Store(ctx context.Context, ts time.Time, img *utils.SerializedImage) error {
	var expiration time.Time
	if d.cfg.Expiration > 0 {
		expiration = time.Now().Add(d.cfg.Expiration)
	}
	if d.cfg.History {
		err := d.upload(ctx, HistoryPath(ts, img.Extension), img.Data, img.MIMEType, expiration)
		if err != nil {
			return err
		}
	}
	return d.upload(ctx, "latest"+img.Extension, img.Data, img.MIMEType, expiration)
}

// HistoryPath is the object path a frame captured at ts is archived under.
func HistoryPath(ts time.Time, ext string) string {
	return ts.UTC().Format("2006/01/02/15-04-05.000") + ext
}

func (d *FrameArchive) Close() error {
	return Error.Wrap(d.proj.Close())
}
