package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeRoundTrip(t *testing.T) {
	for _, ct := range []ContentType{
		Mpeg, OggAppl, OggAudio, WebmAudio, WebmVideo, AAC, AACPlus, Flac, Wav, MP4Audio, MP4Video,
		ContentTypeOfString("audio/x-matroska"),
	} {
		assert.Equal(t, ct, ContentTypeOfString(ct.String()))
	}
}

func TestContentTypeEquality(t *testing.T) {
	assert.Equal(t, Mpeg, ContentTypeOfString("audio/mpeg"))
	assert.NotEqual(t, OggAppl, OggAudio)
}
