package source

// ContentType is the MIME type announced for the stream payload. It is an
// opaque wrapper; two content types are equal when their strings are equal.
type ContentType string

// Content types understood by common relay servers. Callers streaming a
// format not listed here can construct one with ContentTypeOfString.
const (
	Mpeg      ContentType = "audio/mpeg"
	OggAppl   ContentType = "application/ogg"
	OggAudio  ContentType = "audio/ogg"
	WebmAudio ContentType = "audio/webm"
	WebmVideo ContentType = "video/webm"
	AAC       ContentType = "audio/aac"
	AACPlus   ContentType = "audio/aacp"
	Flac      ContentType = "audio/flac"
	Wav       ContentType = "audio/wav"
	MP4Audio  ContentType = "audio/mp4"
	MP4Video  ContentType = "video/mp4"
)

// ContentTypeOfString wraps a raw MIME string.
func ContentTypeOfString(s string) ContentType {
	return ContentType(s)
}

func (ct ContentType) String() string {
	return string(ct)
}
