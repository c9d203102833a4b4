package core

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInlineImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})
	img, err := ParseInlineImage("data:image/png;base64," + payload)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, img.Data)
}

func TestParseInlineImageEmpty(t *testing.T) {
	img, err := ParseInlineImage("")
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestParseInlineImageRejectsMalformed(t *testing.T) {
	for _, dataURL := range []string{
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:;base64,AAAA",
		"data:image/png,AAAA",
		"data:image/png;base64,not-base64!!!",
	} {
		_, err := ParseInlineImage(dataURL)
		assert.Error(t, err, "data URL %q", dataURL)
	}
}

func TestEncodeInlineImageRoundTrip(t *testing.T) {
	original := &InlineImage{MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")}
	encoded := EncodeInlineImage(original)

	decoded, err := ParseInlineImage(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	assert.Empty(t, EncodeInlineImage(nil))
}
