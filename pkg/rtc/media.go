package rtc

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

// Media acquires local capture for a call. Acquisition may block on the
// user or the device and may fail; the call-state timeouts bound it, there
// is no separate media timeout.
type Media interface {
	Acquire(video bool) (LocalMedia, error)
}

// LocalMedia is an acquired microphone (and optionally camera).
type LocalMedia interface {
	Tracks() []webrtc.TrackLocal
	SetEnabled(kind string, enabled bool) bool
	Enabled(kind string) bool
	Close() error
}

var ErrNoDevice = errors.New("no capture device")

// SampleMedia backs a call with TrackLocalStaticSample tracks the embedder
// feeds (file playback, synthesized audio, a bot's canned clips). Toggling
// flips the enabled flags; whoever writes samples is expected to honour
// them.
type SampleMedia struct{}

func (SampleMedia) Acquire(video bool) (LocalMedia, error) {
	audio, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "local")
	if err != nil {
		return nil, err
	}

	m := &sampleMedia{
		audio:   audio,
		enabled: map[string]bool{"audio": true},
	}
	if video {
		v, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "local")
		if err != nil {
			return nil, err
		}
		m.video = v
		m.enabled["video"] = true
	}
	return m, nil
}

type sampleMedia struct {
	mu      sync.Mutex
	audio   *webrtc.TrackLocalStaticSample
	video   *webrtc.TrackLocalStaticSample
	enabled map[string]bool
}

func (m *sampleMedia) Tracks() []webrtc.TrackLocal {
	tracks := []webrtc.TrackLocal{m.audio}
	if m.video != nil {
		tracks = append(tracks, m.video)
	}
	return tracks
}

func (m *sampleMedia) SetEnabled(kind string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enabled[kind]; !ok {
		return false
	}
	m.enabled[kind] = enabled
	return true
}

func (m *sampleMedia) Enabled(kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[kind]
}

func (m *sampleMedia) Close() error { return nil }

// AudioTrack exposes the sample sink for embedders that feed real audio.
func (m *sampleMedia) AudioTrack() *webrtc.TrackLocalStaticSample { return m.audio }

// VideoTrack is nil for voice calls.
func (m *sampleMedia) VideoTrack() *webrtc.TrackLocalStaticSample { return m.video }
