package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply string
	err   error

	gotSystem string
	gotUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string, _ int) (string, error) {
	f.gotSystem = system
	f.gotUser = user
	return f.reply, f.err
}

func TestReviseUsesWritingInstructions(t *testing.T) {
	fake := &fakeCompleter{reply: "寫得很好！"}
	r := NewReviser(fake)

	reply, err := r.Revise(context.Background(), "I has a apple.")
	require.NoError(t, err)
	assert.Equal(t, "寫得很好！", reply)
	assert.Equal(t, WritingInstructions, fake.gotSystem)
	assert.Contains(t, fake.gotUser, "I has a apple.")
}

func TestReviseEmptyReplyFallsBack(t *testing.T) {
	r := NewReviser(&fakeCompleter{reply: ""})

	reply, err := r.Revise(context.Background(), "text")
	require.NoError(t, err)
	assert.Contains(t, reply, "歡迎繼續")
}

func TestRevisePropagatesError(t *testing.T) {
	r := NewReviser(&fakeCompleter{err: errors.New("rate limited")})

	_, err := r.Revise(context.Background(), "text")
	assert.Error(t, err)
}

func TestReviseTruncatesLongInput(t *testing.T) {
	fake := &fakeCompleter{reply: "ok"}
	r := NewReviser(fake)

	long := strings.Repeat("字", reviseUserPromptLimit+500)
	_, err := r.Revise(context.Background(), long)
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(fake.gotUser)), reviseUserPromptLimit+50)
}
