package audio

import (
	"encoding/binary"
	"math/rand/v2"
)

const (
	oggBOS = 0x02
	oggEOS = 0x04

	opusPreSkip = 312
)

// packetEncoder produces one codec packet per PCM frame.
type packetEncoder interface {
	EncodePacket(pcm []int16) ([]byte, error)
}

// OggOpusEncoder writes one Opus packet per Ogg page. The newest page is
// held back so the final one can carry the end-of-stream flag.
type OggOpusEncoder struct {
	packets packetEncoder
	serial  uint32
	seq     uint32
	granule int64

	held        []byte
	heldGranule int64
}

func newOggOpusEncoder() (Encoder, error) {
	pe, err := newOpusPacketEncoder()
	if err != nil {
		return nil, err
	}
	return newOggEncoder(pe), nil
}

func newOggEncoder(pe packetEncoder) *OggOpusEncoder {
	return &OggOpusEncoder{packets: pe, serial: rand.Uint32()}
}

// Header returns the OpusHead and OpusTags pages.
func (o *OggOpusEncoder) Header() []byte {
	head := make([]byte, 19)
	copy(head, "OpusHead")
	head[8] = 1 // version
	head[9] = Channels
	binary.LittleEndian.PutUint16(head[10:], opusPreSkip)
	binary.LittleEndian.PutUint32(head[12:], SampleRate)
	// output gain and mapping family stay zero

	vendor := "medscribe"
	tags := make([]byte, 8+4+len(vendor)+4)
	copy(tags, "OpusTags")
	binary.LittleEndian.PutUint32(tags[8:], uint32(len(vendor)))
	copy(tags[12:], vendor)

	out := oggPage(oggBOS, 0, o.serial, 0, head)
	out = append(out, oggPage(0, 0, o.serial, 1, tags)...)
	o.seq = 2
	return out
}

// Encode returns the page for the previously encoded frame, if any.
func (o *OggOpusEncoder) Encode(pcm []int16) ([]byte, error) {
	pkt, err := o.packets.EncodePacket(pcm)
	if err != nil {
		return nil, err
	}
	o.granule += int64(len(pcm) / Channels)

	var out []byte
	if o.held != nil {
		out = oggPage(0, o.heldGranule, o.serial, o.seq, o.held)
		o.seq++
	}
	o.held = pkt
	// page granules count decoded samples, which start with the pre-skip
	o.heldGranule = opusPreSkip + o.granule
	return out, nil
}

// Trailer returns the last page flagged end-of-stream.
func (o *OggOpusEncoder) Trailer() ([]byte, error) {
	if o.held == nil {
		return nil, nil
	}
	out := oggPage(oggEOS, o.heldGranule, o.serial, o.seq, o.held)
	o.seq++
	o.held = nil
	return out, nil
}

func (o *OggOpusEncoder) Seal([]byte) {}

// oggPage frames a single packet as one Ogg page.
func oggPage(flags byte, granule int64, serial, seq uint32, packet []byte) []byte {
	lacing := make([]byte, 0, len(packet)/255+1)
	n := len(packet)
	for n >= 255 {
		lacing = append(lacing, 255)
		n -= 255
	}
	lacing = append(lacing, byte(n))

	page := make([]byte, 27+len(lacing)+len(packet))
	copy(page, "OggS")
	page[5] = flags
	binary.LittleEndian.PutUint64(page[6:], uint64(granule))
	binary.LittleEndian.PutUint32(page[14:], serial)
	binary.LittleEndian.PutUint32(page[18:], seq)
	page[26] = byte(len(lacing))
	copy(page[27:], lacing)
	copy(page[27+len(lacing):], packet)
	binary.LittleEndian.PutUint32(page[22:], oggCRC(page))
	return page
}

var oggCRCTable = func() (t [256]uint32) {
	for i := range t {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		t[i] = r
	}
	return t
}()

func oggCRC(b []byte) uint32 {
	var crc uint32
	for _, v := range b {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^v]
	}
	return crc
}
