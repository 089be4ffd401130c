package screenshots

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"os/exec"
	"text/template"

	"github.com/zeebo/errs"
	"golang.org/x/image/draw"

	"github.com/jtolio/remotectl/utils"
)

// Error is the error class for capture failures.
var Error = errs.Class("screenshots")

type Config struct {
	Command     string  `default:"import -window root {{.Output}}" help:"command to run to get a png stored in {{.Output}}"`
	JPEGQuality int     `default:"30" help:"jpeg quality, 1 to 100, higher is better"`
	ScaleFactor float64 `default:"0.75" help:"factor to scale captures by before encoding"`
	Grayscale   bool    `default:"false" help:"if true, convert captures to grayscale"`
	MaxBytes    int     `default:"0" help:"max bytes for an encoded capture. 0 means no limit"`
}

type ScreenshotSource struct {
	cfg     Config
	cmdTmpl *template.Template
}

func NewSource(cfg Config) (*ScreenshotSource, error) {
	tmpl, err := template.New("command").Parse(cfg.Command)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, Error.New("jpeg quality %d out of range", cfg.JPEGQuality)
	}
	if cfg.ScaleFactor <= 0 || cfg.ScaleFactor > 1 {
		return nil, Error.New("scale factor %v out of range", cfg.ScaleFactor)
	}
	return &ScreenshotSource{
		cfg:     cfg,
		cmdTmpl: tmpl,
	}, nil
}

func (s *ScreenshotSource) Screenshot(ctx context.Context) (_ *utils.SerializedImage, err error) {
	fh, err := os.CreateTemp("", "screenshot-*.png")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	name := fh.Name()
	defer func() {
		err = errs.Combine(err, Error.Wrap(os.Remove(name)))
	}()
	err = fh.Close()
	if err != nil {
		return nil, Error.Wrap(err)
	}

	var cmdBuf bytes.Buffer
	if err = s.cmdTmpl.Execute(&cmdBuf, struct {
		Output string
	}{
		Output: name,
	}); err != nil {
		return nil, Error.Wrap(err)
	}
	command := cmdBuf.String()

	out, err := exec.CommandContext(ctx, "/bin/sh", "-c", command).CombinedOutput()
	if err != nil {
		return nil, Error.Wrap(fmt.Errorf("process error: %q\n%w\n%q", command, err, string(out)))
	}

	fh, err = os.Open(name)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() {
		err = errs.Combine(err, Error.Wrap(fh.Close()))
	}()

	pixels, err := png.Decode(fh)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s.encode(pixels)
}

// encode scales, optionally grays, and JPEG-encodes pixels.
func (s *ScreenshotSource) encode(pixels image.Image) (*utils.SerializedImage, error) {
	if s.cfg.ScaleFactor != 1 {
		pixels = scale(pixels, s.cfg.ScaleFactor)
	}

	if s.cfg.Grayscale {
		region := pixels.Bounds()
		toGrey := image.NewGray(region)
		for y := region.Min.Y; y < region.Max.Y; y++ {
			for x := region.Min.X; x < region.Max.X; x++ {
				toGrey.Set(x, y, color.GrayModel.Convert(pixels.At(x, y)))
			}
		}
		pixels = toGrey
	}

	var outBuf bytes.Buffer
	for {
		err := jpeg.Encode(&outBuf, pixels, &jpeg.Options{Quality: s.cfg.JPEGQuality})
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if s.cfg.MaxBytes <= 0 || outBuf.Len() <= s.cfg.MaxBytes {
			break
		}

		ratio := math.Sqrt(float64(s.cfg.MaxBytes) / float64(outBuf.Len()))
		if pixels.Bounds().Dx() <= 1 || pixels.Bounds().Dy() <= 1 {
			return nil, Error.New("cannot fit capture in %d bytes", s.cfg.MaxBytes)
		}
		outBuf.Reset()
		pixels = scale(pixels, ratio)
	}

	return &utils.SerializedImage{
		Data:      outBuf.Bytes(),
		Extension: ".jpg",
		MIMEType:  "image/jpeg",
	}, nil
}

func scale(pixels image.Image, factor float64) image.Image {
	b := pixels.Bounds()
	newX := int(float64(b.Dx()) * factor)
	newY := int(float64(b.Dy()) * factor)
	if newX < 1 {
		newX = 1
	}
	if newY < 1 {
		newY = 1
	}
	resized := image.NewRGBA(image.Rect(0, 0, newX, newY))
	draw.NearestNeighbor.Scale(resized, resized.Rect, pixels, b, draw.Over, nil)
	return resized
}
