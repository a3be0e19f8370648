package dtsxll

import (
	"testing"

	"github.com/ausocean/dts/codec/dts/bits"
)

func TestParseNaviSingleBandSingleSet(t *testing.T) {
	hdr := &XllCommonHeader{NFrameSegs: 1, NChSets: 1, SegSizeNbits: 8, FrameSize: 50}

	var bw bitWriter
	bw.write(9, 8) // navi entry: sz = 9+1 = 10
	buf := bw.bytes()
	crc := bits.Compute(buf)
	bw.write(uint32(crc>>8), 8)
	bw.write(uint32(crc&0xff), 8)

	r := bits.NewReader(bw.bytes())
	owns := func(chset, band int) bool { return band == 0 }
	navi, err := parseNavi(r, hdr, owns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := navi.At(0, 0, 0); got != 10 {
		t.Errorf("navi.At(0,0,0) = %d; want 10", got)
	}
	if r.TellBits() != len(bw.bytes())*8 {
		t.Errorf("reader left at bit %d; want %d", r.TellBits(), len(bw.bytes())*8)
	}
}

func TestParseNaviRejectsEntryAtOrAboveFrameSize(t *testing.T) {
	hdr := &XllCommonHeader{NFrameSegs: 1, NChSets: 1, SegSizeNbits: 8, FrameSize: 10}

	var bw bitWriter
	bw.write(254, 8) // sz = 255, way over frame_size
	r := bits.NewReader(bw.bytes())
	owns := func(chset, band int) bool { return band == 0 }
	if _, err := parseNavi(r, hdr, owns); err == nil {
		t.Error("expected error for navi entry >= frame_size")
	}
}

func TestParseNaviCorruptedCrc(t *testing.T) {
	hdr := &XllCommonHeader{NFrameSegs: 1, NChSets: 1, SegSizeNbits: 8, FrameSize: 50}

	var bw bitWriter
	bw.write(9, 8)
	buf := bw.bytes()
	crc := bits.Compute(buf)
	bw.write(uint32(crc>>8), 8)
	bw.write(uint32(crc&0xff), 8)

	corrupted := bw.bytes()
	corrupted[len(corrupted)-1] ^= 0xff

	r := bits.NewReader(corrupted)
	owns := func(chset, band int) bool { return band == 0 }
	if _, err := parseNavi(r, hdr, owns); err == nil {
		t.Error("expected crc mismatch error")
	}
}
