package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shuhanlo/tcm-linebot-go/internal/session"
)

func TestComposeMessageTCM(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	msg := ComposeMessage(session.ModeTCM, "請問氣虛的症狀？", false, now)

	assert.Contains(t, msg, "【檢索與回答規則】")
	assert.Contains(t, msg, "2026-03-15")
	assert.Contains(t, msg, "【🩺 中醫問答】")
	assert.Contains(t, msg, "使用者的話：請問氣虛的症狀？")
	assert.Contains(t, msg, "參考資料出處")
	assert.NotContains(t, msg, "語音辨識")
}

func TestComposeMessageSpeakingVoice(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	msg := ComposeMessage(session.ModeSpeaking, "qi flows through meridians", true, now)

	assert.Contains(t, msg, "【🗣️ 口說練習】")
	assert.Contains(t, msg, "語音辨識")
	assert.NotContains(t, msg, "(提醒：回答末尾請提供參考資料出處)")
}
