package dtsxll

import "testing"

func newTestBand(nch, nframesamples int) *Band {
	b := &Band{}
	for c := 0; c < nch; c++ {
		b.MSBSampleBuffer[c] = make([]int32, nframesamples+DeciHistoryMax)
	}
	return b
}

func TestInversePredictionFixedOrderOne(t *testing.T) {
	band := newTestBand(1, 4)
	band.FixedPredOrder[0] = 1
	samples := band.MSBSampleBuffer[0][DeciHistoryMax:]
	copy(samples, []int32{1, 1, 1, 1})

	inversePrediction(band.MSBSampleBuffer[0], 4, band, 0)

	want := []int32{1, 2, 3, 4}
	for i, w := range want {
		if samples[i] != w {
			t.Errorf("samples[%d] = %d; want %d", i, samples[i], w)
		}
	}
}

func TestInversePredictionFixedOrderTwo(t *testing.T) {
	band := newTestBand(1, 4)
	band.FixedPredOrder[0] = 2
	samples := band.MSBSampleBuffer[0][DeciHistoryMax:]
	copy(samples, []int32{1, 1, 1, 1})

	inversePrediction(band.MSBSampleBuffer[0], 4, band, 0)

	// One prefix sum pass gives [1,2,3,4]; a second gives [1,3,6,10].
	want := []int32{1, 3, 6, 10}
	for i, w := range want {
		if samples[i] != w {
			t.Errorf("samples[%d] = %d; want %d", i, samples[i], w)
		}
	}
}

func TestInversePredictionZeroOrderIsIdentity(t *testing.T) {
	band := newTestBand(1, 3)
	samples := band.MSBSampleBuffer[0][DeciHistoryMax:]
	copy(samples, []int32{5, -2, 9})

	inversePrediction(band.MSBSampleBuffer[0], 3, band, 0)

	want := []int32{5, -2, 9}
	for i, w := range want {
		if samples[i] != w {
			t.Errorf("samples[%d] = %d; want %d", i, samples[i], w)
		}
	}
}

func TestInversePairwiseDecorrelation(t *testing.T) {
	cs := &ChannelSet{NChannels: 2}
	band := newTestBand(2, 2)
	band.DecorEnabled = true
	band.OrigOrder[0] = 0
	band.OrigOrder[1] = 1
	band.DecorCoeff[0] = 1 << 3 // unity in Q3

	copy(band.MSBSampleBuffer[0][DeciHistoryMax:], []int32{10, 20})
	copy(band.MSBSampleBuffer[1][DeciHistoryMax:], []int32{1, 2})

	inversePairwiseDecorrelation(cs, band, 2)

	wantB := []int32{11, 22}
	gotB := band.MSBSampleBuffer[1][DeciHistoryMax:]
	for i, w := range wantB {
		if gotB[i] != w {
			t.Errorf("channel 1 sample[%d] = %d; want %d", i, gotB[i], w)
		}
	}
}

func TestInversePairwiseDecorrelationDisabledIsNoop(t *testing.T) {
	cs := &ChannelSet{NChannels: 2}
	band := newTestBand(2, 2)
	copy(band.MSBSampleBuffer[0][DeciHistoryMax:], []int32{10, 20})
	copy(band.MSBSampleBuffer[1][DeciHistoryMax:], []int32{1, 2})

	inversePairwiseDecorrelation(cs, band, 2)

	got := band.MSBSampleBuffer[1][DeciHistoryMax:]
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("decorrelation ran while disabled: got %v", got)
	}
}

func TestReassembleTwoBandsOutputLength(t *testing.T) {
	band0 := make([]int32, 4)
	band1 := make([]int32, 4)
	var history [DeciHistoryMax]int32

	out := reassembleTwoBands(band0, band1, history, 4)
	if len(out) != 8 {
		t.Fatalf("len(out) = %d; want 8", len(out))
	}
}

func TestReassembleTwoBandsSilenceStaysSilent(t *testing.T) {
	band0 := make([]int32, 4)
	band1 := make([]int32, 4)
	var history [DeciHistoryMax]int32

	out := reassembleTwoBands(band0, band1, history, 4)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %d; want 0 for all-silent input", i, v)
		}
	}
}

func TestReassembleTwoBandsNonzeroInputProducesNonzeroOutput(t *testing.T) {
	band0 := []int32{4194304, 0, 0, 0}
	band1 := []int32{0, 0, 0, 0}
	var history [DeciHistoryMax]int32

	out := reassembleTwoBands(band0, band1, history, 4)
	allZero := true
	for _, v := range out {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("reassembleTwoBands produced all-zero output for a nonzero band0 sample")
	}
}

// referenceReassembleTwoBands is a literal, pointer-chasing transliteration
// of chs_assemble_freq_bands in original_source/libavcodec/dca2_xll.c:
// four whole-vector vmul22_sub passes followed by 8 taps of three
// vmul23_sub passes each, with band0's base index walked back one sample
// per tap. reassembleTwoBands fuses these into per-index loops for the
// same result; this keeps that fusion honest against the source structure.
func referenceReassembleTwoBands(band0, band1 []int32, history [DeciHistoryMax]int32, nframesamples int) []int32 {
	buf0 := make([]int32, DeciHistoryMax+nframesamples)
	for i := 1; i < DeciHistoryMax; i++ {
		buf0[DeciHistoryMax-i] = history[i]
	}
	copy(buf0[DeciHistoryMax:], band0)
	buf1 := append([]int32(nil), band1...)
	p0 := DeciHistoryMax

	vsub22 := func(dst []int32, dstBase int, src []int32, srcBase int, coeff int32) {
		for i := 0; i < nframesamples; i++ {
			dst[dstBase+i] = clip23(int64(dst[dstBase+i]) - int64(mul22(src[srcBase+i], coeff)))
		}
	}
	vsub23 := func(dst []int32, dstBase int, src []int32, srcBase int, coeff int32) {
		for i := 0; i < nframesamples; i++ {
			dst[dstBase+i] = clip23(int64(dst[dstBase+i]) - int64(mul23(src[srcBase+i], coeff)))
		}
	}

	vsub22(buf0, p0, buf1, 0, 868669)
	vsub22(buf1, 0, buf0, p0, -5931642)
	vsub22(buf0, p0, buf1, 0, -1228483)
	vsub22(buf1, 0, buf0, p0, 1<<22)

	for k := 0; k < DeciHistoryMax; k++ {
		vsub23(buf0, p0, buf1, 0, bandCoeff1[k])
		vsub23(buf1, 0, buf0, p0, bandCoeff2[k])
		vsub23(buf0, p0, buf1, 0, bandCoeff1[k])
		p0--
	}

	out := make([]int32, 2*nframesamples)
	for t := 0; t < nframesamples; t++ {
		out[2*t] = buf1[t]
		p0++
		out[2*t+1] = buf0[p0]
	}
	return out
}

func TestReassembleTwoBandsMatchesReferenceAlgorithm(t *testing.T) {
	band0 := []int32{120000, -45000, 98765, 4321, -6789, 15000, -250, 88888}
	band1 := []int32{-30000, 60000, -12345, 8765, 4321, -9999, 1234, -5678}
	var history [DeciHistoryMax]int32
	for i := 1; i < DeciHistoryMax; i++ {
		history[i] = int32(i * 1000)
	}

	got := reassembleTwoBands(band0, band1, history, len(band0))
	want := referenceReassembleTwoBands(band0, band1, history, len(band0))

	if len(got) != len(want) {
		t.Fatalf("len(got) = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %d; want %d", i, got[i], want[i])
		}
	}
}

func TestNormalizeLayoutRemapsWideSurrounds(t *testing.T) {
	mask := MaskStereo | SpeakerLss.Bit() | SpeakerRss.Bit()
	got := NormalizeLayout(mask, Request5Point1)
	if got.Has(SpeakerLss) || got.Has(SpeakerRss) {
		t.Error("NormalizeLayout should clear Lss/Rss for a non-native request")
	}
	if !got.Has(SpeakerLs) || !got.Has(SpeakerRs) {
		t.Error("NormalizeLayout should set Ls/Rs in their place")
	}
}

func TestNormalizeLayoutLeavesNativeAlone(t *testing.T) {
	mask := MaskStereo | SpeakerLss.Bit() | SpeakerRss.Bit()
	got := NormalizeLayout(mask, RequestNative)
	if got != mask {
		t.Errorf("NormalizeLayout(RequestNative) = %v; want unchanged %v", got, mask)
	}
}
