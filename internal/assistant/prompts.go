package assistant

import (
	"fmt"
	"time"

	"github.com/shuhanlo/tcm-linebot-go/internal/session"
)

// SafetyDisclaimer is appended to every answer delivered in the default
// question-answering mode.
const SafetyDisclaimer = "\n\n⚠️ 僅供教學用途，不具醫療建議。"

// retrievalInstructions constrains the assistant's retrieval and citation
// behavior for the course Q&A modes.
func retrievalInstructions(today time.Time) string {
	return "【檢索與回答規則】\n" +
		"1. 教材檢索範圍：僅使用「講義/教材標題日期 ≤ 今日」的內容；今日為 " + today.Format("2006-01-02") + "。\n" +
		"2. 若需引用外部來源，僅限學術資源：WHO TCM database、PubMed、NCCIH 等（Academic sources only）。\n" +
		"3. 回答末尾請提供參考資料出處。"
}

// WritingInstructions is the system prompt for the writing revision loop.
// It runs on Chat Completions, outside the assistant and its knowledge base.
const WritingInstructions = "你是一位溫暖的醫學英文寫作教練。" +
	"學生會貼上英文句子或段落，請檢查語法、拼寫、用詞與語義完整性。\n" +
	"句子正確時：稱讚學生並歡迎繼續練習。\n" +
	"句子有誤時：先給予鼓勵，再提供更正後的版本，並簡短解釋修改原因。\n" +
	"請使用 Markdown 格式呈現回饋，保持簡潔友善。"

// speakingCoachNote asks for pronunciation-oriented suggestions when the
// delegated text came from a voice message.
const speakingCoachNote = "（此訊息來自語音辨識，請額外給予口說與發音上的建議）"

// ComposeMessage builds the thread message for one delegated question:
// retrieval instructions, the mode tag, and the user's words. The default
// mode additionally reminds the assistant to cite sources.
func ComposeMessage(mode session.Mode, text string, isVoice bool, now time.Time) string {
	content := fmt.Sprintf("%s\n\n【%s】\n使用者的話：%s", retrievalInstructions(now), mode.DisplayName(), text)
	if mode == session.ModeTCM {
		content += "\n(提醒：回答末尾請提供參考資料出處)"
	}
	if isVoice {
		content += "\n" + speakingCoachNote
	}
	return content
}
