package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryPath(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 250*int(time.Millisecond), time.FixedZone("X", 3600))
	assert.Equal(t, "2024/03/09/13-05-07.250.jpg", HistoryPath(ts, ".jpg"))
}

func TestEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{UplinkAccess: "grant"}.Enabled())
}

func TestNewFrameArchiveValidates(t *testing.T) {
	_, err := NewFrameArchive(context.Background(), Config{UplinkAccess: "grant"})
	require.Error(t, err)
	assert.True(t, Error.Has(err))

	_, err = NewFrameArchive(context.Background(), Config{UplinkAccess: "not-a-grant", Bucket: "frames"})
	require.Error(t, err)
	assert.True(t, Error.Has(err))
}
