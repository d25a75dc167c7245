package store

import "fmt"

// Logical key builders. Key shapes are part of the deployed data contract;
// changing them orphans live user state.

// UserModeKey holds the user's current conversation mode.
func UserModeKey(userID string) string {
	return fmt.Sprintf("user_mode:%s", userID)
}

// UserThreadKey holds the user's OpenAI assistant thread ID.
func UserThreadKey(userID string) string {
	return fmt.Sprintf("user_thread:%s", userID)
}

// ShadowingSentenceKey holds the sentence the user is currently practicing.
func ShadowingSentenceKey(userID string) string {
	return fmt.Sprintf("shadowing_sentence:%s", userID)
}

// ShadowingIndexKey holds the user's position in the practice sentence list.
func ShadowingIndexKey(userID string) string {
	return fmt.Sprintf("shadowing_index:%s", userID)
}

// AudioKey holds a base64 TTS payload addressed by its download token.
func AudioKey(token string) string {
	return fmt.Sprintf("tts_audio:%s", token)
}

// QuestionLogKey is the capped list of AI-delegated questions feeding the
// weekly report.
const QuestionLogKey = "question_log"
