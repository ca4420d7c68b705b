package rtc

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu      sync.Mutex
	samples []media.Sample
}

func (w *recordingWriter) WriteSample(s media.Sample, _ *lksdk.SampleWriteOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

func TestSilenceWritesFramesUntilCancelled(t *testing.T) {
	w := &recordingWriter{}
	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	require.NoError(t, Silence{}.Run(ctx, w))
	assert.GreaterOrEqual(t, w.count(), 2)
	assert.Equal(t, opusSilence, w.samples[0].Data)
	assert.Equal(t, opusFrame, w.samples[0].Duration)
}

func writeTestOgg(t *testing.T, packets int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mic.ogg")
	ogg, err := oggwriter.New(path, 48000, 2)
	require.NoError(t, err)
	for i := 0; i < packets; i++ {
		require.NoError(t, ogg.WriteRTP(&rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				SequenceNumber: uint16(i),
				Timestamp:      uint32((i + 1) * 960),
			},
			Payload: opusSilence,
		}))
	}
	require.NoError(t, ogg.Close())
	return path
}

func TestOggFilePlaysEveryPage(t *testing.T) {
	path := writeTestOgg(t, 5)
	w := &recordingWriter{}

	require.NoError(t, OggFile{Path: path}.Run(context.Background(), w))

	// comment header page plus one page per packet
	require.Equal(t, 6, w.count())
	last := w.samples[len(w.samples)-1]
	assert.Equal(t, opusSilence, last.Data)
	assert.Equal(t, opusFrame, last.Duration)
}

func TestOggFileMissing(t *testing.T) {
	err := OggFile{Path: filepath.Join(t.TempDir(), "nope.ogg")}.Run(context.Background(), &recordingWriter{})
	require.Error(t, err)
}
