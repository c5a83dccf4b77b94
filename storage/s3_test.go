package storage

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestSniffImagePNG(t *testing.T) {
	data := encodePNG(t, 12, 8)

	format, width, height := sniffImage(data, "image/png")

	assert.Equal(t, "png", format)
	assert.Equal(t, 12, width)
	assert.Equal(t, 8, height)
}

func TestSniffImageFallsBackToContentType(t *testing.T) {
	format, width, height := sniffImage([]byte("not an image"), "image/webp")

	assert.Equal(t, "webp", format)
	assert.Zero(t, width)
	assert.Zero(t, height)
}

func TestSniffImageUnknownPayload(t *testing.T) {
	format, _, _ := sniffImage([]byte("junk"), "application/octet-stream")

	assert.Empty(t, format)
}

func TestFormatFromContentTypeIgnoresParameters(t *testing.T) {
	assert.Equal(t, "jpeg", formatFromContentType("image/jpeg; charset=binary"))
	assert.Empty(t, formatFromContentType("text/plain"))
	assert.Empty(t, formatFromContentType(""))
}

func TestNewAssetID(t *testing.T) {
	id := newAssetID("png")

	assert.True(t, strings.HasPrefix(id, keyPrefix))
	assert.True(t, strings.HasSuffix(id, ".png"))
	assert.NotEqual(t, id, newAssetID("png"))

	bare := newAssetID("")
	assert.True(t, strings.HasPrefix(bare, keyPrefix))
	assert.False(t, strings.Contains(strings.TrimPrefix(bare, keyPrefix), "."))
}
