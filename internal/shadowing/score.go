package shadowing

import (
	"fmt"
	"strings"
	"unicode"
)

// PassThreshold is the minimum score that clears the current sentence.
const PassThreshold = 80

// Result is the outcome of scoring one transcript against its reference
// sentence.
type Result struct {
	Score   int      // 0-100
	Missing []string // reference words absent from the transcript, in sentence order
}

// Passed reports whether the attempt clears the sentence.
func (r Result) Passed() bool {
	return r.Score >= PassThreshold
}

// Score compares a transcript against the reference sentence word by word.
// Comparison is case- and punctuation-insensitive. The score is the
// percentage of distinct reference words present in the transcript,
// rounded to the nearest integer.
func Score(reference, transcript string) Result {
	refWords := tokenize(reference)
	if len(refWords) == 0 {
		return Result{Score: 100}
	}

	heard := make(map[string]bool)
	for _, w := range tokenize(transcript) {
		heard[w] = true
	}

	seen := make(map[string]bool)
	var distinct, matched int
	var missing []string
	for _, w := range refWords {
		if seen[w] {
			continue
		}
		seen[w] = true
		distinct++
		if heard[w] {
			matched++
		} else {
			missing = append(missing, w)
		}
	}

	score := (matched*100 + distinct/2) / distinct
	return Result{Score: score, Missing: missing}
}

// tokenize lowercases the text and splits it into words. Anything that is
// not a letter or digit acts as a separator, which makes the comparison
// punctuation-insensitive.
func tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// FailureReport renders the feedback for a below-threshold attempt.
func FailureReport(sentence string, r Result) string {
	missing := "無"
	if len(r.Missing) > 0 {
		missing = strings.Join(r.Missing, "、")
	}
	return fmt.Sprintf(
		"📊 口說練習回饋\n・得分：%d 分\n・需加強單字：%s\n・建議多聽示範音檔並跟讀。\n\n🔊 請跟著唸：「%s」",
		r.Score, missing, sentence,
	)
}

// PassReport renders the feedback for a passing attempt.
func PassReport(r Result) string {
	return fmt.Sprintf("🎉 發音非常標準（%d 分）！太棒了！\n\n要再練習下一句嗎？", r.Score)
}
