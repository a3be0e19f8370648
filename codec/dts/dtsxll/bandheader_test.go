package dtsxll

import (
	"testing"

	"github.com/ausocean/dts/codec/dts/bits"
)

// buildBandHeader packs the tail of a single-channel, non-zero-band
// (bandIdx != 0) band header: decor_enabled=0, adapt_pred_order=0,
// fixed_pred_order=0, no dmix_embedded bit (cs.DmixEmbedded is false),
// then the two independent presence bits under test.
func buildBandHeader(lsbPresent, scalablePresent bool) []byte {
	var bw bitWriter
	bw.write(0, 1) // decor_enabled
	bw.write(0, 4) // adapt_pred_order[0]
	bw.write(0, 2) // fixed_pred_order[0]
	bw.write(b2u(lsbPresent), 1)
	if lsbPresent {
		bw.write(0, 8) // lsb_section_size (seg_size_nbits=8)
		bw.write(0, 4) // nscalablelsbs[0]
	}
	bw.write(b2u(scalablePresent), 1)
	if scalablePresent {
		bw.write(5, 4) // bit_width_adjust[0]
	}
	for bw.nbit%8 != 0 {
		bw.write(0, 1)
	}
	return bw.bytes()
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func TestParseBandHeaderTwoBandIndependentPresenceBits(t *testing.T) {
	tests := []struct {
		name               string
		lsbPresent         bool
		scalablePresent    bool
		wantLSBSectionSize int
		wantNScalableLSBs  int
		wantBitWidthAdjust int
	}{
		{"both absent", false, false, 0, 0, 0},
		{"lsb present, scalable absent", true, false, 0, 0, 0},
		{"lsb absent, scalable present", false, true, 0, 0, 5},
		{"both present", true, true, 0, 0, 5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := buildBandHeader(test.lsbPresent, test.scalablePresent)
			r := bits.NewReader(buf)
			cs := &ChannelSet{NChannels: 1}
			hdr := &XllCommonHeader{SegSizeNbits: 8}
			b := &Band{}

			if err := parseBandHeader(r, cs, b, 1, hdr); err != nil {
				t.Fatalf("parseBandHeader() error = %v", err)
			}
			if b.LSBSectionSize != test.wantLSBSectionSize {
				t.Errorf("LSBSectionSize = %d; want %d", b.LSBSectionSize, test.wantLSBSectionSize)
			}
			if b.NScalableLSBs[0] != test.wantNScalableLSBs {
				t.Errorf("NScalableLSBs[0] = %d; want %d", b.NScalableLSBs[0], test.wantNScalableLSBs)
			}
			if b.BitWidthAdjust[0] != test.wantBitWidthAdjust {
				t.Errorf("BitWidthAdjust[0] = %d; want %d", b.BitWidthAdjust[0], test.wantBitWidthAdjust)
			}
		})
	}
}
