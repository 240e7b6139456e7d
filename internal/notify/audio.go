package notify

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/logging"
)

// AlarmSounder plays the repeating alarm tone until stopped.
type AlarmSounder interface {
	// Start begins the repeating alarm loop. Starting an already-running
	// sounder is a no-op.
	Start()
	// Stop silences the alarm. Idempotent and never blocks on playback.
	Stop()
}

// Global audio context singleton; oto allows only one per process.
var (
	audioCtx     *oto.Context
	audioCtxOnce sync.Once
	audioReady   bool
)

func initAudioContext(sampleRate int) {
	audioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			logging.Warn("audio context unavailable", logging.KeyError, err)
			return
		}

		// Wait for the hardware audio device to be ready
		<-readyChan

		audioCtx = ctx
		audioReady = true
		logging.DebugLog("audio context initialized")
	})
}

// TonePlayer is the oto-backed AlarmSounder. It synthesizes the alarm tone
// sequence and replays it on a fixed period until stopped.
type TonePlayer struct {
	pcm      []byte
	interval time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewTonePlayer creates the alarm tone player. When audio is disabled or
// the device is unavailable the player is inert: Start and Stop still work,
// nothing plays, nothing crashes.
func NewTonePlayer() *TonePlayer {
	cfg := config.Global
	p := &TonePlayer{
		interval: cfg.Ack.AlarmRepeatInterval,
	}
	if !cfg.Audio.Enabled {
		return p
	}

	initAudioContext(cfg.Audio.SampleRate)
	if audioReady {
		p.pcm = beepSequencePCM(cfg.Audio.SampleRate)
	}
	return p
}

// Start begins the repeating alarm loop.
func (p *TonePlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})

	go p.playLoop(p.stopChan)
}

// Stop silences the alarm.
func (p *TonePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	close(p.stopChan)
}

func (p *TonePlayer) playLoop(stop chan struct{}) {
	p.playOnce(stop)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.playOnce(stop)
		}
	}
}

func (p *TonePlayer) playOnce(stop chan struct{}) {
	if p.pcm == nil || audioCtx == nil {
		return
	}

	player := audioCtx.NewPlayer(bytes.NewReader(p.pcm))
	player.Play()

	for player.IsPlaying() {
		select {
		case <-stop:
			player.Pause()
			player.Close()
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	if err := player.Close(); err != nil {
		logging.DebugLog("failed to close audio player", logging.KeyError, err)
	}
}

// beepSequencePCM synthesizes the alarm tone: three repetitions of an
// 880 Hz / 1100 Hz beep pair, 200ms each, as mono signed 16-bit PCM.
func beepSequencePCM(sampleRate int) []byte {
	const (
		beepDur   = 200 * time.Millisecond
		rampDur   = 10 * time.Millisecond
		amplitude = 0.5
	)

	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		writeBeep(&buf, sampleRate, 880, beepDur, rampDur, amplitude)
		writeBeep(&buf, sampleRate, 1100, beepDur, rampDur, amplitude)
	}
	return buf.Bytes()
}

// writeBeep appends one sine beep with linear attack/release ramps so the
// tone edges don't click.
func writeBeep(buf *bytes.Buffer, sampleRate int, freq float64, dur, ramp time.Duration, amplitude float64) {
	total := int(float64(sampleRate) * dur.Seconds())
	rampSamples := int(float64(sampleRate) * ramp.Seconds())

	for i := 0; i < total; i++ {
		gain := amplitude
		if i < rampSamples {
			gain *= float64(i) / float64(rampSamples)
		} else if remaining := total - i; remaining < rampSamples {
			gain *= float64(remaining) / float64(rampSamples)
		}

		sample := gain * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		binary.Write(buf, binary.LittleEndian, int16(sample*math.MaxInt16))
	}
}
