package audio

import (
	"log/slog"
	"strings"
)

// Encoder turns PCM frames into one container stream. The stream is
// Header, then each Encode result, then Trailer, in order; Seal fixes up
// the assembled object in place.
type Encoder interface {
	Header() []byte
	Encode(pcm []int16) ([]byte, error)
	Trailer() ([]byte, error)
	Seal(object []byte)
}

// Format is a container and codec the recorder can produce.
type Format struct {
	MIMEType  string
	Extension string
	New       func() (Encoder, error)
}

// FileName is the upload name for an object in this format.
func (f Format) FileName() string {
	return "recording." + f.Extension
}

var (
	OggOpus = Format{MIMEType: "audio/ogg;codecs=opus", Extension: "ogg", New: newOggOpusEncoder}
	WAV     = Format{MIMEType: "audio/wav", Extension: "wav", New: func() (Encoder, error) {
		return NewWAVEncoder(SampleRate, Channels), nil
	}}
)

// DefaultFormat is used when no preferred format is available.
var DefaultFormat = WAV

// DefaultPreference orders formats from most to least preferred.
var DefaultPreference = []string{OggOpus.MIMEType, WAV.MIMEType}

var known = []Format{OggOpus, WAV}

// Lookup finds a known format by MIME type, ignoring case and spaces
// around parameters.
func Lookup(mime string) (Format, bool) {
	want := normalizeMIME(mime)
	for _, f := range known {
		if normalizeMIME(f.MIMEType) == want {
			return f, true
		}
	}
	return Format{}, false
}

// Supported reports whether mime is known and its encoder can be built in
// this binary.
func Supported(mime string) bool {
	f, ok := Lookup(mime)
	if !ok {
		return false
	}
	if _, err := f.New(); err != nil {
		return false
	}
	return true
}

// SelectFormat returns the first supported format from prefs, or
// DefaultFormat.
func SelectFormat(prefs []string) Format {
	for _, mime := range prefs {
		if Supported(mime) {
			f, _ := Lookup(mime)
			return f
		}
		slog.Debug("audio format unavailable", "mime", mime)
	}
	return DefaultFormat
}

func normalizeMIME(s string) string {
	parts := strings.Split(s, ";")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ";")
}
