/*
NAME
  dtsdec

DESCRIPTION
  dtsdec decodes a single DTS Coherent Acoustics packet (core, EXSS and
  XLL substreams) to a WAV file, exercising github.com/ausocean/dts/codec/dts/dtsxll
  end to end.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements dtsdec, a command-line DTS-HD Master Audio
// (DCA/XLL) packet decoder.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/ausocean/dts/codec/dts/dtsxll"
	"github.com/ausocean/utils/logging"
	"github.com/go-audio/wav"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logging configuration, matching cmd/speaker's file-rotation setup.
const (
	logPath      = "/var/log/dtsdec/dtsdec.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

const wavFormatPCM = 1

func main() {
	inPtr := flag.String("in", "", "path to a raw DCA packet (core+EXSS+XLL)")
	outPtr := flag.String("out", "out.wav", "path to write the decoded WAV file to")
	layoutPtr := flag.String("layout", "native", "requested channel layout: native, stereo, 5.0, 5.1")
	explodePtr := flag.Bool("explode", false, "propagate decode errors instead of concealing them")
	coreOnlyPtr := flag.Bool("core-only", false, "skip EXSS/XLL parsing and decode only the lossy core")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	dtsxll.Log = log

	if *inPtr == "" {
		log.Fatal("no input path provided, check usage")
	}

	data, err := os.ReadFile(*inPtr)
	if err != nil {
		log.Fatal("could not read input file", "error", err)
	}

	opts := dtsxll.Options{
		CoreOnly:             *coreOnlyPtr,
		Explode:              *explodePtr,
		RequestChannelLayout: parseLayout(*layoutPtr),
	}

	log.Debug("initialising decoder")
	dec := dtsxll.NewDecoder(&silentCore{rate: 48000}, assetParser{}, opts)

	log.Debug("decoding packet", "path", *inPtr, "bytes", len(data))
	pkt, err := dec.Decode(data)
	if err != nil {
		log.Fatal("decode failed", "error", err)
	}
	if pkt.Frame == nil {
		log.Fatal("decode produced no frame")
	}

	log.Info("decoded frame",
		"sampleRate", pkt.Frame.SampleRate,
		"channels", pkt.Frame.NChannels(),
		"storageBitRes", pkt.Frame.StorageBitRes,
		"hasCore", pkt.Flags&dtsxll.FlagHasCore != 0,
		"hasXLL", pkt.Flags&dtsxll.FlagHasXLL != 0,
		"recovery", pkt.Flags&dtsxll.FlagRecovery != 0,
	)

	if err := writeWav(*outPtr, pkt.Frame); err != nil {
		log.Fatal("could not write wav file", "error", err)
	}
	log.Debug("wrote wav file", "path", *outPtr)
}

// parseLayout maps a CLI layout name to a dtsxll.RequestChannelLayout,
// defaulting to RequestNative for anything unrecognised.
func parseLayout(s string) dtsxll.RequestChannelLayout {
	switch s {
	case "stereo":
		return dtsxll.RequestStereo
	case "5.0":
		return dtsxll.Request5Point0
	case "5.1":
		return dtsxll.Request5Point1
	default:
		return dtsxll.RequestNative
	}
}

// writeWav encodes frame to a WAV file at path, following
// exp/flac/decode.go's use of go-audio/wav.NewEncoder.
func writeWav(path string, frame *dtsxll.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := frame.ToIntBuffer()
	enc := wav.NewEncoder(f, buf.Format.SampleRate, buf.SourceBitDepth, buf.Format.NumChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
