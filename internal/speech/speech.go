// Package speech wraps OpenAI Whisper transcription and TTS synthesis.
// Concurrent synthesis requests for identical text are collapsed through
// singleflight, so one practice sentence is rendered once per burst.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/singleflight"

	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
)

// ttsVoice is the voice used for all reference audio.
const ttsVoice = openai.AudioSpeechNewParamsVoiceShimmer

// ttsInputLimit caps text sent to the TTS endpoint (API limit is 4096).
const ttsInputLimit = 4096

// Transcriber converts spoken audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Synthesizer renders text to MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Service implements Transcriber and Synthesizer on the OpenAI audio APIs.
type Service struct {
	transcribeFn func(ctx context.Context, audio io.Reader) (string, error)
	synthesizeFn func(ctx context.Context, text string) ([]byte, error)
	group        singleflight.Group
	metrics      *metrics.Metrics
}

// NewService creates a speech service backed by OpenAI.
func NewService(apiKey string, m *metrics.Metrics) *Service {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Service{
		transcribeFn: func(ctx context.Context, audio io.Reader) (string, error) {
			resp, err := client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
				Model: openai.AudioModelWhisper1,
				File:  audio,
			})
			if err != nil {
				return "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("transcribe: %w", err))
			}
			return resp.Text, nil
		},
		synthesizeFn: func(ctx context.Context, text string) ([]byte, error) {
			resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
				Model: openai.SpeechModelTTS1,
				Voice: ttsVoice,
				Input: text,
			})
			if err != nil {
				return nil, apperrors.NewUpstreamError("openai", 0, fmt.Errorf("synthesize: %w", err))
			}
			defer resp.Body.Close()
			return io.ReadAll(resp.Body)
		},
		metrics: m,
	}
}

// newServiceWithFns creates a service with injected API calls. Used by tests.
func newServiceWithFns(
	transcribe func(ctx context.Context, audio io.Reader) (string, error),
	synthesize func(ctx context.Context, text string) ([]byte, error),
	m *metrics.Metrics,
) *Service {
	return &Service{transcribeFn: transcribe, synthesizeFn: synthesize, metrics: m}
}

// Transcribe converts audio to trimmed text.
func (s *Service) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.TranscriptionTimeout)
	defer cancel()

	text, err := s.transcribeFn(ctx, audio)
	if err != nil {
		s.record("transcribe", "error")
		return "", err
	}
	s.record("transcribe", "success")
	return strings.TrimSpace(text), nil
}

// Synthesize renders text to MP3. Identical texts in flight share one
// upstream call.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	runes := []rune(text)
	if len(runes) > ttsInputLimit {
		runes = runes[:ttsInputLimit]
		text = string(runes)
	}

	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	result, err, shared := s.group.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, config.SynthesisTimeout)
		defer cancel()
		return s.synthesizeFn(ctx, text)
	})
	if shared && s.metrics != nil {
		s.metrics.RecordSpeechDedup()
	}
	if err != nil {
		s.record("synthesize", "error")
		return nil, err
	}
	s.record("synthesize", "success")
	return result.([]byte), nil
}

// EstimateDurationMS estimates playback length for synthesized speech.
// LINE audio messages require a duration; an estimate from word count is
// close enough for the player UI.
func EstimateDurationMS(text string) int64 {
	words := len(strings.Fields(text))
	ms := int64(float64(words) / 2.2 * 1000)
	if ms < 1000 {
		ms = 1000
	}
	return ms
}

func (s *Service) record(direction, status string) {
	if s.metrics != nil {
		s.metrics.RecordSpeech(direction, status)
	}
}
