package imageprocessor

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func encodeJPEG(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return bytes.NewReader(buf.Bytes())
}

func decodeDims(t *testing.T, r io.Reader) (int, int) {
	t.Helper()
	img, _, err := image.Decode(r)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessAvatar_DownscalesLargeImage(t *testing.T) {
	t.Parallel()

	p := NewProcessor(400, 85)
	out, ext, contentType, err := p.ProcessAvatar(encodeJPEG(t, 1600, 800))
	require.NoError(t, err)
	assert.Equal(t, "jpg", ext)
	assert.Equal(t, "image/jpeg", contentType)

	w, h := decodeDims(t, out)
	assert.Equal(t, 400, w)
	assert.Equal(t, 200, h) // пропорции сохранены
}

func TestProcessAvatar_SmallImageKeepsSize(t *testing.T) {
	t.Parallel()

	p := NewProcessor(400, 85)
	out, ext, contentType, err := p.ProcessAvatar(encodePNG(t, 120, 80))
	require.NoError(t, err)
	assert.Equal(t, "png", ext)
	assert.Equal(t, "image/png", contentType)

	w, h := decodeDims(t, out)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)
}

func TestProcessAvatar_RejectsNonImage(t *testing.T) {
	t.Parallel()

	p := NewProcessor(400, 85)
	_, _, _, err := p.ProcessAvatar(strings.NewReader("not an image at all"))
	assert.Error(t, err)
}
