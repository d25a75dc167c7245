package shadowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePerfect(t *testing.T) {
	ref := "Acupuncture and herbal medicine are used to restore the balance of yin and yang."
	r := Score(ref, ref)

	assert.Equal(t, 100, r.Score)
	assert.Empty(t, r.Missing)
	assert.True(t, r.Passed())
}

func TestScoreIgnoresCaseAndPunctuation(t *testing.T) {
	ref := "Ginseng tonifies the qi, while licorice harmonizes the other herbs."
	transcript := "GINSENG TONIFIES THE QI WHILE LICORICE HARMONIZES THE OTHER HERBS"

	r := Score(ref, transcript)
	assert.Equal(t, 100, r.Score)
	assert.True(t, r.Passed())
}

func TestScoreReportsMissingWordsInOrder(t *testing.T) {
	ref := "qi flows through meridians"
	transcript := "qi flows"

	r := Score(ref, transcript)
	assert.Equal(t, 50, r.Score)
	assert.Equal(t, []string{"through", "meridians"}, r.Missing)
	assert.False(t, r.Passed())
}

func TestScoreEmptyTranscript(t *testing.T) {
	r := Score("balance of qi", "")
	assert.Equal(t, 0, r.Score)
	assert.Len(t, r.Missing, 3)
}

func TestScoreEmptyReference(t *testing.T) {
	r := Score("", "anything at all")
	assert.Equal(t, 100, r.Score)
	assert.True(t, r.Passed())
}

func TestScoreCountsDistinctWordsOnce(t *testing.T) {
	// "the" appears twice in the reference but is one distinct word.
	r := Score("the qi and the blood", "qi blood and")
	assert.Equal(t, []string{"the"}, r.Missing)
	assert.Equal(t, 75, r.Score)
}

func TestPassBoundary(t *testing.T) {
	// 4 of 5 distinct words = 80, exactly the threshold.
	r := Score("one two three four five", "one two three four")
	assert.Equal(t, 80, r.Score)
	assert.True(t, r.Passed())

	// 3 of 5 = 60, below.
	r = Score("one two three four five", "one two three")
	assert.Equal(t, 60, r.Score)
	assert.False(t, r.Passed())
}

func TestFailureReport(t *testing.T) {
	r := Result{Score: 40, Missing: []string{"meridians", "acupuncture"}}
	report := FailureReport("sample sentence", r)

	assert.Contains(t, report, "40 分")
	assert.Contains(t, report, "meridians、acupuncture")
	assert.Contains(t, report, "「sample sentence」")
}

func TestPassReport(t *testing.T) {
	report := PassReport(Result{Score: 95})
	assert.Contains(t, report, "95 分")
	assert.Contains(t, report, "練習下一句")
}
