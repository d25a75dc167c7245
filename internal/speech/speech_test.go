package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribeTrimsText(t *testing.T) {
	s := newServiceWithFns(
		func(ctx context.Context, audio io.Reader) (string, error) {
			return "  qi flows through meridians \n", nil
		},
		nil, nil,
	)

	text, err := s.Transcribe(context.Background(), strings.NewReader("fake-audio"))
	require.NoError(t, err)
	assert.Equal(t, "qi flows through meridians", text)
}

func TestTranscribeError(t *testing.T) {
	s := newServiceWithFns(
		func(ctx context.Context, audio io.Reader) (string, error) {
			return "", errors.New("whisper down")
		},
		nil, nil,
	)

	_, err := s.Transcribe(context.Background(), strings.NewReader("fake-audio"))
	assert.Error(t, err)
}

func TestSynthesizeReturnsAudio(t *testing.T) {
	s := newServiceWithFns(nil,
		func(ctx context.Context, text string) ([]byte, error) {
			return []byte("mp3:" + text), nil
		},
		nil,
	)

	audio, err := s.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3:hello"), audio)
}

func TestSynthesizeDedupsConcurrentIdenticalText(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	s := newServiceWithFns(nil,
		func(ctx context.Context, text string) ([]byte, error) {
			calls.Add(1)
			<-release
			return []byte("audio"), nil
		},
		nil,
	)

	const workers = 5
	var wg sync.WaitGroup
	results := make([][]byte, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			audio, err := s.Synthesize(context.Background(), "same sentence")
			assert.NoError(t, err)
			results[i] = audio
		}(i)
	}

	// Give the goroutines time to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, audio := range results {
		assert.Equal(t, []byte("audio"), audio)
	}
}

func TestSynthesizeDifferentTextsDoNotShare(t *testing.T) {
	var calls atomic.Int32
	s := newServiceWithFns(nil,
		func(ctx context.Context, text string) ([]byte, error) {
			calls.Add(1)
			return []byte(text), nil
		},
		nil,
	)

	_, err := s.Synthesize(context.Background(), "one")
	require.NoError(t, err)
	_, err = s.Synthesize(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestEstimateDurationMS(t *testing.T) {
	assert.Equal(t, int64(1000), EstimateDurationMS(""))
	assert.Equal(t, int64(1000), EstimateDurationMS("hi"))

	// 11 words at 2.2 words per second is about 5s.
	text := strings.Repeat("word ", 11)
	assert.InDelta(t, 5000, EstimateDurationMS(text), 1)
}
