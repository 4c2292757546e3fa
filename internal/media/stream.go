package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/demotape/demotape/internal/core"
)

const (
	timeUpdateInterval = 500 * time.Millisecond
	eventBufferSize    = 16
)

// Stream is the beep-backed Element. It fetches the source over HTTP,
// decodes it by format and plays it on the system speaker. The whole
// source is buffered before decoding so that seeking works; the server
// streams finished files, not live feeds.
type Stream struct {
	mu sync.Mutex

	httpClient *http.Client

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	playing  bool

	baseRate    beep.SampleRate
	speakerInit bool
	gen         uint64

	events chan Event
	ticker *time.Ticker
	closed bool
	done   chan struct{}
}

// NewStream creates a stream element. The speaker is initialized lazily on
// the first Load.
func NewStream() *Stream {
	s := &Stream{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		events:     make(chan Event, eventBufferSize),
		done:       make(chan struct{}),
	}
	go s.timeUpdateLoop()
	return s
}

// Load implements Element. The fetched bytes are decoded according to the
// track format; trackers and sid tunes arrive transcoded to ogg.
func (s *Stream) Load(ctx context.Context, url string, format core.Format) error {
	data, err := s.fetch(ctx, url)
	if err != nil {
		s.emit(Event{Kind: EventError, Err: err})
		return err
	}

	streamer, beepFormat, err := decode(data, format)
	if err != nil {
		err = fmt.Errorf("failed to decode %s source: %w", format, err)
		s.emit(Event{Kind: EventError, Err: err})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	if !s.speakerInit {
		if err := speaker.Init(beepFormat.SampleRate, beepFormat.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			err = fmt.Errorf("failed to open audio device: %w", err)
			s.emit(Event{Kind: EventError, Err: err})
			return err
		}
		s.speakerInit = true
		s.baseRate = beepFormat.SampleRate
	}

	s.streamer = streamer
	s.format = beepFormat
	s.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}

	var out beep.Streamer = s.ctrl
	if beepFormat.SampleRate != s.baseRate {
		out = beep.Resample(4, beepFormat.SampleRate, s.baseRate, s.ctrl)
	}

	s.gen++
	gen := s.gen
	speaker.Play(beep.Seq(out, beep.Callback(func() {
		// Fires on the audio goroutine with the speaker mutex held;
		// taking s.mu here inverts the lock order used by Position,
		// SeekTo, Play and Pause.
		go s.handleEnded(gen)
	})))

	s.emit(Event{Kind: EventCanPlay})
	return nil
}

func (s *Stream) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stream request failed: %d %s",
			resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return data, nil
}

func decode(data []byte, format core.Format) (beep.StreamSeekCloser, beep.Format, error) {
	rc := io.NopCloser(bytes.NewReader(data))

	switch format {
	case core.FormatMP3:
		return mp3.Decode(readSeekCloser{bytes.NewReader(data)})
	case core.FormatWAV:
		return wav.Decode(rc)
	case core.FormatFLAC:
		return flac.Decode(rc)
	default:
		// ogg, plus everything the server transcodes to ogg.
		return vorbis.Decode(rc)
	}
}

// readSeekCloser lets the mp3 decoder seek within the buffered source.
type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

// Play implements Element.
func (s *Stream) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	s.playing = true
}

// Pause implements Element.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.playing = false
}

// Playing implements Element.
func (s *Stream) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Position implements Element.
func (s *Stream) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos)
}

// Duration implements Element.
func (s *Stream) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

// SeekTo implements Element.
func (s *Stream) SeekTo(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return fmt.Errorf("no source loaded")
	}

	sample := s.format.SampleRate.N(pos)
	if sample < 0 {
		sample = 0
	}
	if total := s.streamer.Len(); sample >= total {
		sample = total - 1
	}

	speaker.Lock()
	err := s.streamer.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	return nil
}

// Events implements Element.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Close implements Element.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopLocked()
	close(s.done)
	close(s.events)
	return nil
}

func (s *Stream) stopLocked() {
	if s.streamer == nil {
		return
	}
	speaker.Clear()
	_ = s.streamer.Close()
	s.streamer = nil
	s.ctrl = nil
	s.playing = false
}

// handleEnded runs off the audio goroutine. The generation check drops
// callbacks that were dispatched for a source Load has since replaced.
func (s *Stream) handleEnded(gen uint64) {
	s.mu.Lock()
	ended := gen == s.gen && s.streamer != nil && s.playing
	if ended {
		s.playing = false
	}
	s.mu.Unlock()
	if ended {
		s.emit(Event{Kind: EventEnded})
	}
}

func (s *Stream) timeUpdateLoop() {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			playing := s.playing
			s.mu.Unlock()
			if playing {
				s.emit(Event{Kind: EventTimeUpdate})
			}
		}
	}
}

// emit delivers an event without blocking; stale events are droppable
// because consumers re-read element state on every event.
func (s *Stream) emit(ev Event) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

// Verify Stream implements Element at compile time.
var _ Element = (*Stream)(nil)
