// Package session manages per-user conversation state: the active mode and
// the OpenAI assistant thread handle.
package session

// Mode is a conversation mode. The mode decides how incoming text and audio
// are routed and which instructions the assistant receives.
type Mode string

const (
	// ModeTCM is the default question-answering mode.
	ModeTCM Mode = "tcm"

	// ModeSpeaking runs the pronunciation shadowing loop.
	ModeSpeaking Mode = "speaking"

	// ModeWriting runs the writing revision loop.
	ModeWriting Mode = "writing"
)

// displayNames are the localized labels shown in acks and confirmations.
var displayNames = map[Mode]string{
	ModeTCM:      "🩺 中醫問答",
	ModeSpeaking: "🗣️ 口說練習",
	ModeWriting:  "✍️ 寫作修訂",
}

// ParseMode maps a postback mode value to a Mode.
// Unknown values fall back to the default mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case ModeTCM, ModeSpeaking, ModeWriting:
		return Mode(value), true
	}
	return ModeTCM, false
}

// DisplayName returns the localized label for the mode.
func (m Mode) DisplayName() string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return displayNames[ModeTCM]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := displayNames[m]
	return ok
}
