package surface

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/zeebo/errs"
)

// Error is the error class for this package.
var Error = errs.Class("surface")

const dataURIPrefix = "data:image/jpeg;base64,"

// Frame is one screen image delivered by the remote host. Payload is kept
// exactly as received; the client never decodes the image itself.
type Frame struct {
	Seq      uint64
	Payload  string
	Received time.Time
}

// Source returns the frame as a displayable data URI.
func (f Frame) Source() string {
	return dataURIPrefix + f.Payload
}

// Bytes returns the base64-decoded payload. Both padded and unpadded
// encodings are accepted.
func (f Frame) Bytes() ([]byte, error) {
	payload := strings.TrimSpace(f.Payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	if rawErr != nil {
		return nil, Error.Wrap(err)
	}
	return data, nil
}
