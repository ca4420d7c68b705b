package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
)

const opusFrame = 20 * time.Millisecond

// opus TOC for a 20ms CELT silence frame
var opusSilence = []byte{0xf8, 0xff, 0xfe}

type sampleWriter interface {
	WriteSample(sample media.Sample, opts *lksdk.SampleWriteOptions) error
}

// Microphone produces Opus samples for the published track until ctx ends.
type Microphone interface {
	Run(ctx context.Context, w sampleWriter) error
}

type Silence struct{}

func (Silence) Run(ctx context.Context, w sampleWriter) error {
	ticker := time.NewTicker(opusFrame)
	defer ticker.Stop()
	for {
		if err := w.WriteSample(media.Sample{Data: opusSilence, Duration: opusFrame}, nil); err != nil {
			return fmt.Errorf("write silence: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// OggFile streams an Ogg/Opus file, optionally looping it.
type OggFile struct {
	Path string
	Loop bool
}

func (o OggFile) Run(ctx context.Context, w sampleWriter) error {
	for {
		if err := o.playOnce(ctx, w); err != nil {
			return err
		}
		if !o.Loop || ctx.Err() != nil {
			return nil
		}
	}
}

func (o OggFile) playOnce(ctx context.Context, w sampleWriter) error {
	f, err := os.Open(o.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", o.Path, err)
	}
	defer f.Close()

	ogg, _, err := oggreader.NewWith(f)
	if err != nil {
		return fmt.Errorf("read ogg header: %w", err)
	}

	ticker := time.NewTicker(opusFrame)
	defer ticker.Stop()

	var lastGranule uint64
	for {
		page, header, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse ogg page: %w", err)
		}

		// granule position counts 48kHz samples
		duration := opusFrame
		if header.GranulePosition >= lastGranule {
			duration = time.Duration(header.GranulePosition-lastGranule) * time.Second / 48000
		}
		lastGranule = header.GranulePosition

		if err := w.WriteSample(media.Sample{Data: page, Duration: duration}, nil); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
