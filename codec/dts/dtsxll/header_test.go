package dtsxll

import (
	"testing"

	"github.com/ausocean/dts/codec/dts/bits"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

// buildCommonHeader assembles a minimal, CRC-valid XLL common header: one
// channel set, one segment, two samples per segment, no scalable LSBs.
func buildCommonHeader() []byte {
	var bw bitWriter
	bw.write(xllSyncWord, 32)
	bw.write(0, 4)  // version (stored as version-1)
	bw.write(12, 8) // header_len -> HeaderSize = 13
	bw.write(7, 5)  // frame_size_nbits -> 8-bit frame_size field
	bw.write(49, 8) // frame_size -> FrameSize = 50
	bw.write(0, 4)  // nchsets -> 1
	bw.write(0, 4)  // nframesegs_log2 -> 1 segment
	bw.write(1, 4)  // nsegsamples_log2 -> 2 samples/segment
	bw.write(7, 5)  // seg_size_nbits -> 8
	bw.write(0, 2)  // band_crc_present
	bw.write(0, 1)  // scalable_lsbs
	bw.write(2, 5)  // ch_mask_nbits -> 3
	for bw.nbit%8 != 0 {
		bw.write(0, 1)
	}
	buf := bw.bytes()
	crc := bits.Compute(buf[4:11])
	bw.write(uint32(crc>>8), 8)
	bw.write(uint32(crc&0xff), 8)
	return bw.bytes()
}

func TestParseCommonHeader(t *testing.T) {
	buf := buildCommonHeader()
	r := bits.NewReader(buf)
	hdr, err := parseCommonHeader(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &XllCommonHeader{
		HeaderSize:      13,
		FrameSize:       50,
		NChSets:         1,
		NFrameSegs:      1,
		NSegSamples:     2,
		NSegSamplesLog2: 1,
		NFrameSamples:   2,
		SegSizeNbits:    8,
		ChMaskNbits:     3,
	}
	if diff := cmp.Diff(want, hdr); diff != "" {
		t.Errorf("parseCommonHeader() mismatch (-want +got):\n%s", diff)
	}
	if r.TellBits() != hdr.HeaderSize*8 {
		t.Errorf("reader left at bit %d; want %d", r.TellBits(), hdr.HeaderSize*8)
	}
}

func TestParseCommonHeaderBadSync(t *testing.T) {
	buf := buildCommonHeader()
	buf[0] ^= 0xff
	r := bits.NewReader(buf)
	_, err := parseCommonHeader(r)
	if !errors.Is(err, ErrNeedsSync) {
		t.Errorf("err = %v; want wrapping ErrNeedsSync", err)
	}
}

func TestParseCommonHeaderCorruptedCrc(t *testing.T) {
	buf := buildCommonHeader()
	buf[9] ^= 0xff // inside the crc-protected span, after header_size/frame_size fields
	r := bits.NewReader(buf)
	_, err := parseCommonHeader(r)
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("err = %v; want wrapping ErrInvalidData", err)
	}
}

func TestCeilLog2(t *testing.T) {
	tests := []struct {
		v    int
		want int
	}{
		{1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4},
	}
	for _, test := range tests {
		if got := ceilLog2(test.v); got != test.want {
			t.Errorf("ceilLog2(%d) = %d; want %d", test.v, got, test.want)
		}
	}
}
