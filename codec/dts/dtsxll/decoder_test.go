package dtsxll

import (
	"testing"

	"github.com/pkg/errors"
)

// fakeCore is a minimal CoreBridge stand-in for exercising Decoder without
// a real lossy-core implementation.
type fakeCore struct {
	parseErr   error
	outputRate int
	mapping    map[Speaker]int
	samples    map[int][]int32
	filterErr  error
}

func (f *fakeCore) Parse(data []byte) error                          { return f.parseErr }
func (f *fakeCore) ParseExss(data []byte, asset *ExssAsset) error     { return nil }
func (f *fakeCore) FilterFixed(x96Synth bool) error                   { return nil }
func (f *fakeCore) FilterFrame(frame *Frame) error                    { return f.filterErr }
func (f *fakeCore) NPCMSamples() int                                  { return 0 }
func (f *fakeCore) OutputRate() int                                   { return f.outputRate }
func (f *fakeCore) OutputSamples(ch int) []int32                      { return f.samples[ch] }
func (f *fakeCore) MapSpeaker(sp Speaker) (int, bool) {
	ch, ok := f.mapping[sp]
	return ch, ok
}

type fakeExssParser struct {
	asset *ExssAsset
	err   error
}

func (f *fakeExssParser) Parse(data []byte) (*ExssAsset, error) { return f.asset, f.err }

func buildCoreOnlyPacket() []byte {
	var bw bitWriter
	bw.write(coreSyncWord, 32)
	bw.write(0, 1)
	bw.write(0, 5)
	bw.write(0, 7)
	bw.write(11, 14) // fsize -> size=12, rounds to 12 (already multiple of 4)
	buf := bw.bytes()
	for len(buf) < 16 {
		buf = append(buf, 0)
	}
	return buf
}

func TestDecodeCoreOnlyPacket(t *testing.T) {
	core := &fakeCore{outputRate: 48000}
	d := NewDecoder(core, &fakeExssParser{}, Options{})

	pkt, err := d.Decode(buildCoreOnlyPacket())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt.Flags&FlagHasCore == 0 {
		t.Error("expected FlagHasCore set")
	}
	if pkt.Flags&FlagHasXLL != 0 {
		t.Error("did not expect FlagHasXLL for a core-only packet")
	}
	if pkt.Frame == nil || pkt.Frame.SampleRate != 48000 {
		t.Errorf("pkt.Frame = %+v; want a frame at 48000Hz", pkt.Frame)
	}
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	d := NewDecoder(&fakeCore{}, &fakeExssParser{}, Options{})
	_, err := d.Decode(make([]byte, 4))
	if !errors.Is(err, ErrShortPacket) {
		t.Errorf("err = %v; want ErrShortPacket", err)
	}
}

func TestDecodeRejectsOversizePacket(t *testing.T) {
	d := NewDecoder(&fakeCore{}, &fakeExssParser{}, Options{})
	_, err := d.Decode(make([]byte, maxPacketSize+1))
	if !errors.Is(err, ErrOversizePacket) {
		t.Errorf("err = %v; want ErrOversizePacket", err)
	}
}

func TestCheckCrossConsistencyDetectsOverlappingMasks(t *testing.T) {
	d := &Decoder{
		core: &fakeCore{outputRate: 48000},
		chsets: []ChannelSet{
			{NChannels: 2, ChMask: MaskStereo, ResidualEncode: 0b11},
			{NChannels: 2, ChMask: MaskStereo, ResidualEncode: 0b11},
		},
	}
	err := d.checkCrossConsistency(&XllCommonHeader{NFrameSamples: 4})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("err = %v; want ErrInvalidData for overlapping channel masks", err)
	}
}

func TestCheckCrossConsistencyRequiresCoreMappingForResidualChannels(t *testing.T) {
	d := &Decoder{
		core: &fakeCore{outputRate: 48000, mapping: map[Speaker]int{}},
		chsets: []ChannelSet{
			{NChannels: 2, ChMask: MaskStereo, ResidualEncode: 0, ChRemap: [maxChannels]Speaker{SpeakerL, SpeakerR}},
		},
	}
	err := d.checkCrossConsistency(&XllCommonHeader{NFrameSamples: 4})
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("err = %v; want ErrInvalidData for unmapped residual channel", err)
	}
}

func TestCheckCrossConsistencyPasses(t *testing.T) {
	d := &Decoder{
		core: &fakeCore{outputRate: 48000, mapping: map[Speaker]int{SpeakerL: 0, SpeakerR: 1}},
		chsets: []ChannelSet{
			{NChannels: 2, ChMask: MaskStereo, ResidualEncode: 0, ChRemap: [maxChannels]Speaker{SpeakerL, SpeakerR}, Freq: 48000},
		},
	}
	if err := d.checkCrossConsistency(&XllCommonHeader{NFrameSamples: 4}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestForceLossyOutputDisablesResidualAndDownmix(t *testing.T) {
	d := &Decoder{
		core: &fakeCore{mapping: map[Speaker]int{SpeakerL: 0, SpeakerR: 1}},
		chsets: []ChannelSet{
			{NChannels: 2, NFreqBands: 1, ResidualEncode: 0b11, ChRemap: [maxChannels]Speaker{SpeakerL, SpeakerR}},
			{NChannels: 1, NFreqBands: 1, DmixEmbedded: true},
		},
	}
	d.forceLossyOutput()

	if d.chsets[0].ResidualEncode != 0 {
		t.Errorf("ResidualEncode = %b; want 0 (both channels flipped to core-decoded)", d.chsets[0].ResidualEncode)
	}
	if d.chsets[1].DmixEmbedded {
		t.Error("expected non-primary set's DmixEmbedded cleared")
	}
	if !d.disableLSB {
		t.Error("expected disableLSB set")
	}
}
