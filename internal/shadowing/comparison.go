package shadowing

import (
	"fmt"
	"strings"
)

// comparisonReference is the fixed course passage voice messages are measured
// against when no practice sentence is active. The informational report sent
// in question-answering mode compares every transcript to this text.
const comparisonReference = "Traditional Chinese Medicine (TCM) emphasizes the balance of qi and the flow of energy through meridians. Acupuncture and herbal medicine are used to restore this balance."

// comparisonTerms are the key course terms the report checks off.
var comparisonTerms = []string{
	"qi", "meridian", "meridians", "acupuncture", "herbal",
	"balance", "Traditional Chinese Medicine", "TCM", "energy",
}

// fuzzyCutoff is the minimum bigram similarity for a transcript word to
// count as an attempt at a key term.
const fuzzyCutoff = 0.6

// ComparisonReport measures a transcript against the fixed reference passage
// and renders the informational feedback block. A term counts as correct when
// it appears verbatim in the transcript or a transcript word is close enough
// to it. The report is advisory only and never gates anything.
func ComparisonReport(transcript string) string {
	transcriptLower := strings.ToLower(transcript)
	words := tokenize(transcript)

	refLower := strings.ToLower(comparisonReference)
	var total, correct int
	var missing []string
	for _, term := range comparisonTerms {
		termLower := strings.ToLower(term)
		if !strings.Contains(refLower, termLower) {
			continue
		}
		total++
		if strings.Contains(transcriptLower, termLower) || fuzzyHasWord(words, termLower) {
			correct++
		} else {
			missing = append(missing, term)
		}
	}

	rate := 0
	if total > 0 {
		rate = (correct*100 + total/2) / total
	}
	similarity := int(bigramSimilarity(
		strings.Join(tokenize(comparisonReference), " "),
		strings.Join(words, " "),
	)*100 + 0.5)

	missingLine := "無"
	if len(missing) > 0 {
		missingLine = strings.Join(missing, ", ")
	}

	return fmt.Sprintf(
		"📊 Shadowing 回饋報告\n・正確率：%d%%（關鍵術語）\n・整體與教材相似度：%d%%\n・需改進單字：%s\n・發音建議：%s",
		rate, similarity, missingLine, pronunciationTip(missing),
	)
}

// pronunciationTip renders the advice line. At most ten missing terms are
// listed.
func pronunciationTip(missing []string) string {
	if len(missing) == 0 {
		return "發音與關鍵術語掌握良好，請持續練習整段流暢度。"
	}
	if len(missing) > 10 {
		missing = missing[:10]
	}
	return "建議多聽教材音檔並跟讀以下術語：" + strings.Join(missing, "、") + "。可善用線上發音字典確認重音與音節。"
}

// fuzzyHasWord reports whether any word is close enough to the term.
func fuzzyHasWord(words []string, term string) bool {
	for _, w := range words {
		if bigramSimilarity(term, w) >= fuzzyCutoff {
			return true
		}
	}
	return false
}

// bigramSimilarity is the Dice coefficient over rune bigrams, 0 to 1.
// Identical strings with fewer than two runes still compare equal.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ga, na := bigrams(a)
	gb, nb := bigrams(b)
	if na == 0 || nb == 0 {
		return 0
	}
	var overlap int
	for g, n := range ga {
		if m, ok := gb[g]; ok {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}
	return 2 * float64(overlap) / float64(na+nb)
}

func bigrams(s string) (map[string]int, int) {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil, 0
	}
	grams := make(map[string]int, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams, len(runes) - 1
}
