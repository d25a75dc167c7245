// Package shadowing implements the pronunciation practice loop: a fixed
// ordered sentence list, a per-user cursor, and word-level transcript
// scoring against the issued sentence.
package shadowing

// Practice sentences, issued in order. The list is append-only; reordering
// shifts every user's stored cursor onto a different sentence.
var sentences = []string{
	"Traditional Chinese Medicine emphasizes the balance of qi and the flow of energy through meridians.",
	"Acupuncture and herbal medicine are used to restore the balance of yin and yang.",
	"The five elements theory links the wood, fire, earth, metal and water phases to the organs.",
	"Pulse diagnosis and tongue inspection are the core diagnostic methods in clinical practice.",
	"Ginseng tonifies the qi while licorice harmonizes the other herbs in a formula.",
	"Moxibustion applies heat to acupuncture points to warm the meridians and dispel cold.",
	"A practitioner selects acupoints along the meridians to regulate the flow of qi and blood.",
	"Herbal formulas are modified according to the pattern differentiation of each patient.",
}

// SentenceAt returns the sentence for a cursor value.
// Any non-negative cursor maps into the list by modulo, so the loop wraps
// around indefinitely.
func SentenceAt(index int) string {
	if index < 0 {
		index = 0
	}
	return sentences[index%len(sentences)]
}

// Count returns the number of practice sentences.
func Count() int {
	return len(sentences)
}
