package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

type fakePackets struct{ n int }

func (f *fakePackets) EncodePacket(pcm []int16) ([]byte, error) {
	f.n++
	return bytes.Repeat([]byte{byte(f.n)}, 300), nil
}

type oggPageInfo struct {
	flags   byte
	granule int64
	seq     uint32
	payload []byte
}

func parseOggPages(t *testing.T, data []byte) []oggPageInfo {
	t.Helper()
	var pages []oggPageInfo
	for len(data) > 0 {
		if len(data) < 27 || string(data[:4]) != "OggS" {
			t.Fatalf("bad page capture at %d bytes left", len(data))
		}
		nseg := int(data[26])
		size := 0
		for _, l := range data[27 : 27+nseg] {
			size += int(l)
		}
		total := 27 + nseg + size
		page := append([]byte(nil), data[:total]...)

		stored := binary.LittleEndian.Uint32(page[22:])
		binary.LittleEndian.PutUint32(page[22:], 0)
		if got := oggCRC(page); got != stored {
			t.Errorf("page %d crc = %08x, stored %08x", len(pages), got, stored)
		}

		pages = append(pages, oggPageInfo{
			flags:   data[5],
			granule: int64(binary.LittleEndian.Uint64(data[6:])),
			seq:     binary.LittleEndian.Uint32(data[18:]),
			payload: data[27+nseg : total],
		})
		data = data[total:]
	}
	return pages
}

func TestOggOpusStream(t *testing.T) {
	enc := newOggEncoder(&fakePackets{})
	stream := enc.Header()
	frame := make([]int16, FrameSize)
	for range 3 {
		out, err := enc.Encode(frame)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		stream = append(stream, out...)
	}
	tail, err := enc.Trailer()
	if err != nil {
		t.Fatalf("Trailer: %v", err)
	}
	stream = append(stream, tail...)

	pages := parseOggPages(t, stream)
	if len(pages) != 5 {
		t.Fatalf("got %d pages, want 5", len(pages))
	}
	if pages[0].flags != oggBOS || !bytes.HasPrefix(pages[0].payload, []byte("OpusHead")) {
		t.Errorf("first page flags %x payload %q", pages[0].flags, pages[0].payload[:8])
	}
	if !bytes.HasPrefix(pages[1].payload, []byte("OpusTags")) {
		t.Errorf("second page is not OpusTags")
	}
	for i, p := range pages {
		if p.seq != uint32(i) {
			t.Errorf("page %d seq = %d", i, p.seq)
		}
	}
	for i, p := range pages[2:] {
		if want := int64(opusPreSkip + (i+1)*FrameSize); p.granule != want {
			t.Errorf("audio page %d granule = %d, want %d", i, p.granule, want)
		}
		if len(p.payload) != 300 {
			t.Errorf("audio page %d payload %d bytes", i, len(p.payload))
		}
	}
	if pages[4].flags != oggEOS {
		t.Errorf("last page flags = %x, want EOS", pages[4].flags)
	}
	if pages[3].flags != 0 {
		t.Errorf("middle page flags = %x", pages[3].flags)
	}
}

func TestOggTrailerWithoutAudio(t *testing.T) {
	enc := newOggEncoder(&fakePackets{})
	_ = enc.Header()
	tail, err := enc.Trailer()
	if err != nil || tail != nil {
		t.Errorf("Trailer() = %v, %v; want nil, nil", tail, err)
	}
}

func TestWAVSeal(t *testing.T) {
	w := NewWAVEncoder(SampleRate, Channels)
	obj := w.Header()
	pcm, _ := w.Encode([]int16{1, -1, 256})
	obj = append(obj, pcm...)
	w.Seal(obj)

	if string(obj[0:4]) != "RIFF" || string(obj[8:12]) != "WAVE" || string(obj[36:40]) != "data" {
		t.Fatalf("bad header: %q", obj[:44])
	}
	if got := binary.LittleEndian.Uint32(obj[4:]); got != uint32(len(obj)-8) {
		t.Errorf("riff size = %d, want %d", got, len(obj)-8)
	}
	if got := binary.LittleEndian.Uint32(obj[40:]); got != 6 {
		t.Errorf("data size = %d, want 6", got)
	}
	if got := binary.LittleEndian.Uint32(obj[24:]); got != SampleRate {
		t.Errorf("sample rate = %d", got)
	}
	if !bytes.Equal(obj[44:], []byte{1, 0, 0xff, 0xff, 0, 1}) {
		t.Errorf("samples = %v", obj[44:])
	}
}

func TestSelectFormat(t *testing.T) {
	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"wav preferred", []string{"audio/wav"}, WAV.MIMEType},
		{"unknown skipped", []string{"audio/webm;codecs=opus", "audio/mp4", "audio/wav"}, WAV.MIMEType},
		{"nothing known", []string{"audio/webm"}, DefaultFormat.MIMEType},
		{"empty", nil, DefaultFormat.MIMEType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectFormat(tt.prefs).MIMEType; got != tt.want {
				t.Errorf("SelectFormat(%v) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestLookupNormalizes(t *testing.T) {
	f, ok := Lookup("Audio/Ogg; codecs=opus")
	if !ok || f.Extension != "ogg" {
		t.Errorf("Lookup = %+v, %v", f, ok)
	}
	if WAV.FileName() != "recording.wav" {
		t.Errorf("FileName = %q", WAV.FileName())
	}
}

func TestLevel(t *testing.T) {
	if Level(nil) != 0 {
		t.Error("Level(nil) != 0")
	}
	if got := Level([]int16{3, -3, 3, -3}); got != 3 {
		t.Errorf("Level = %v, want 3", got)
	}
}
