package utils

import "encoding/base64"

// SerializedImage is an encoded image ready to be sent or stored.
type SerializedImage struct {
	Data      []byte
	Extension string
	MIMEType  string
}

// Base64 returns the image data in standard base64 encoding.
func (img *SerializedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}
