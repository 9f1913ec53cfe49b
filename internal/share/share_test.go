package share

import (
	"bytes"
	"image/png"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepLink(t *testing.T) {
	link, err := DeepLink("https://feed.example.com/", "aB3xY9")
	require.NoError(t, err)
	assert.Equal(t, "https://feed.example.com/?post_id=aB3xY9", link)

	link, err = DeepLink("https://feed.example.com/app?theme=dark", "aB3xY9")
	require.NoError(t, err)
	assert.Equal(t, "https://feed.example.com/app?post_id=aB3xY9&theme=dark", link)
}

func TestFor(t *testing.T) {
	links, err := For("https://feed.example.com/", "aB3xY9")
	require.NoError(t, err)

	wa, err := url.Parse(links.WhatsApp)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", wa.Host)
	assert.Contains(t, wa.Query().Get("text"), links.Link)

	assert.Contains(t, links.Email, "mailto:?subject=Check%20out%20this%20post&body=")
	assert.NotContains(t, links.Email, "+")
}

func TestQRCode(t *testing.T) {
	data, err := QRCode("https://feed.example.com/?post_id=aB3xY9")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
