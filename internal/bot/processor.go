package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/shuhanlo/tcm-linebot-go/internal/assistant"
	"github.com/shuhanlo/tcm-linebot-go/internal/audiocache"
	"github.com/shuhanlo/tcm-linebot-go/internal/ctxutil"
	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
	"github.com/shuhanlo/tcm-linebot-go/internal/lineutil"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
	"github.com/shuhanlo/tcm-linebot-go/internal/session"
	"github.com/shuhanlo/tcm-linebot-go/internal/shadowing"
	"github.com/shuhanlo/tcm-linebot-go/internal/speech"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
)

// tcmKeywords marks text as course-related. Text containing none of these
// gets the off-topic reply instead of an assistant call.
var tcmKeywords = []string{"中醫", "TCM", "經絡", "氣", "針灸", "穴位", "陰陽", "五行", "課程", "講義"}

const (
	offTopicReply   = "📚 本機器人僅供學業使用，歡迎詢問中醫課程相關問題（例如：氣、經絡、針灸）。"
	timeoutReply    = "正在努力翻閱典籍/資料中，請稍候再問我一次。"
	processFailed   = "❌ 處理失敗，請稍後再試一次。"
	voiceFailed     = "❌ 語音辨識失敗，請再試一次。"
	questionLogMax  = 5000
	transcriptLimit = 500
)

// SpeechService is the slice of internal/speech used by the processor.
type SpeechService interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Processor routes LINE events by per-user mode. Keyword handlers answer
// synchronously through the reply token; everything else is acknowledged
// first and answered later by push.
type Processor struct {
	registry *Registry
	sessions *session.Manager
	shadow   *shadowing.Engine
	speech   SpeechService
	audio    *audiocache.Cache
	client   assistant.Client
	poller   *assistant.Poller
	reviser  *assistant.Reviser
	sender   lineutil.Sender
	content  lineutil.ContentFetcher
	store    *store.Store
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// ProcessorConfig wires the Processor's collaborators.
type ProcessorConfig struct {
	Registry *Registry
	Sessions *session.Manager
	Shadow   *shadowing.Engine
	Speech   SpeechService
	Audio    *audiocache.Cache
	Client   assistant.Client
	Poller   *assistant.Poller
	Reviser  *assistant.Reviser
	Sender   lineutil.Sender
	Content  lineutil.ContentFetcher
	Store    *store.Store
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// NewProcessor creates the event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		registry: cfg.Registry,
		sessions: cfg.Sessions,
		shadow:   cfg.Shadow,
		speech:   cfg.Speech,
		audio:    cfg.Audio,
		client:   cfg.Client,
		poller:   cfg.Poller,
		reviser:  cfg.Reviser,
		sender:   cfg.Sender,
		content:  cfg.Content,
		store:    cfg.Store,
		log:      cfg.Logger.WithModule("processor"),
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// HandleText processes a text message event.
func (p *Processor) HandleText(ctx context.Context, userID, replyToken, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	mode := p.sessions.Mode(ctx, userID)
	ctx = ctxutil.WithUserID(ctx, userID)
	ctx = ctxutil.WithMode(ctx, string(mode))

	if mode == session.ModeWriting {
		return p.handleWritingText(ctx, userID, replyToken, text)
	}

	if msgs := p.registry.DispatchMessage(ctx, text); len(msgs) > 0 {
		return p.sender.Reply(ctx, replyToken, msgs...)
	}

	if handled, err := p.handleModeSwitch(ctx, userID, replyToken, text); handled {
		return err
	}

	if mode == session.ModeTCM && isOffTopic(text) {
		return p.replyText(ctx, replyToken, offTopicReply, lineutil.StandardQuickReplies())
	}

	if err := p.ackAnalyzing(ctx, replyToken, mode); err != nil {
		p.logWith(ctx).WithError(err).Warn("analysis ack failed")
	}
	p.delegate(ctx, userID, mode, text, false)
	return nil
}

// HandlePostback processes a postback event (rich menu and flex buttons).
func (p *Processor) HandlePostback(ctx context.Context, userID, replyToken, data string) error {
	if strings.TrimSpace(data) == "" {
		return nil
	}
	pb := ParsePostback(data)

	ctx = ctxutil.WithUserID(ctx, userID)

	if msgs := p.registry.DispatchPostback(ctx, pb); len(msgs) > 0 {
		return p.sender.Reply(ctx, replyToken, msgs...)
	}

	if pb.Key != "mode" {
		p.logWith(ctx).WithField("key", pb.Key).Debug("unclaimed postback ignored")
		return nil
	}

	mode, _ := session.ParseMode(pb.Value)
	if err := p.sessions.SetMode(ctx, userID, mode); err != nil {
		p.logWith(ctx).WithError(err).Warn("mode switch persist failed")
		return p.replyText(ctx, replyToken, processFailed, lineutil.StandardQuickReplies())
	}
	return p.replyModeSwitched(ctx, replyToken, mode)
}

// HandleAudio processes a voice message event.
func (p *Processor) HandleAudio(ctx context.Context, userID, replyToken, messageID string) error {
	mode := p.sessions.Mode(ctx, userID)
	ctx = ctxutil.WithUserID(ctx, userID)
	ctx = ctxutil.WithMode(ctx, string(mode))

	if err := p.replyText(ctx, replyToken, "🎧 收到語音訊息，辨識中...", nil); err != nil {
		p.logWith(ctx).WithError(err).Warn("voice ack failed")
	}

	body, err := p.content.Content(ctx, messageID)
	if err != nil {
		err = apperrors.WrapOp("line", "download_content", err, voiceFailed)
		p.logWith(ctx).WithError(err).Warn("voice content download failed")
		return p.pushText(ctx, userID, apperrors.GetUserMessage(err, processFailed), lineutil.StandardQuickReplies())
	}
	defer body.Close()

	transcript, err := p.speech.Transcribe(ctx, body)
	if err != nil {
		err = apperrors.WrapOp("speech", "transcribe", err, voiceFailed)
		p.logWith(ctx).WithError(err).Warn("transcription failed")
		return p.pushText(ctx, userID, apperrors.GetUserMessage(err, processFailed), lineutil.StandardQuickReplies())
	}

	if err := p.pushText(ctx, userID, fmt.Sprintf("🎤 辨識內容：「%s」", transcript), nil); err != nil {
		p.logWith(ctx).WithError(err).Warn("transcript push failed")
	}

	switch mode {
	case session.ModeWriting:
		p.revise(ctx, userID, transcript)
		return nil
	case session.ModeSpeaking:
		return p.handleShadowingAttempt(ctx, userID, transcript)
	default:
		// Voice outside a practice round still gets the informational
		// comparison against the course passage before any answer.
		if err := p.pushText(ctx, userID, shadowing.ComparisonReport(transcript), lineutil.StandardQuickReplies()); err != nil {
			p.logWith(ctx).WithError(err).Warn("comparison report push failed")
		}
		if isOffTopic(transcript) {
			return p.pushText(ctx, userID, offTopicReply, lineutil.StandardQuickReplies())
		}
		p.delegate(ctx, userID, mode, transcript, true)
		return nil
	}
}

// HandleFollow greets a new follower.
func (p *Processor) HandleFollow(ctx context.Context, userID, replyToken string) error {
	ctx = ctxutil.WithUserID(ctx, userID)
	welcome := "你好！我是中醫課程小助教 🩺\n\n" +
		"直接輸入問題即可開始中醫問答，\n" +
		"也可以透過下方選單切換口說練習或寫作修訂模式。"
	return p.replyText(ctx, replyToken, welcome, lineutil.StandardQuickReplies())
}

// handleWritingText keeps writing mode isolated from the question-answering
// logic. Only the sub-commands below escape it.
func (p *Processor) handleWritingText(ctx context.Context, userID, replyToken, text string) error {
	switch text {
	case "寫作修改", "繼續練習":
		return p.replyText(ctx, replyToken, "你已在【✍️ 寫作修訂】模式～請貼上要修改的段落。", lineutil.WritingQuickReplies())
	case "離開模式":
		if err := p.sessions.SetMode(ctx, userID, session.ModeTCM); err != nil {
			p.logWith(ctx).WithError(err).Warn("leaving writing mode failed")
		}
		return p.replyText(ctx, replyToken, "已離開寫作修訂模式，已切換回中醫問答模式。", lineutil.StandardQuickReplies())
	}

	if err := p.replyText(ctx, replyToken, "正在以【✍️ 寫作修訂】模式分析中...", nil); err != nil {
		p.logWith(ctx).WithError(err).Warn("analysis ack failed")
	}
	p.revise(ctx, userID, text)
	return nil
}

// handleModeSwitch serves the mode-switch keywords. Returns handled=false
// when the text is not a mode command.
func (p *Processor) handleModeSwitch(ctx context.Context, userID, replyToken, text string) (bool, error) {
	switch text {
	case "口說練習":
		if err := p.sessions.SetMode(ctx, userID, session.ModeSpeaking); err != nil {
			p.logWith(ctx).WithError(err).Warn("mode switch persist failed")
			return true, p.replyText(ctx, replyToken, processFailed, lineutil.StandardQuickReplies())
		}
		return true, p.replyText(ctx, replyToken, "已切換至【🗣️ 口說練習】模式，可傳送語音或文字。", lineutil.PracticeQuickReplies())
	case "寫作修改":
		if err := p.sessions.SetMode(ctx, userID, session.ModeWriting); err != nil {
			p.logWith(ctx).WithError(err).Warn("mode switch persist failed")
			return true, p.replyText(ctx, replyToken, processFailed, lineutil.StandardQuickReplies())
		}
		return true, p.replyText(ctx, replyToken, "已切換至【✍️ 寫作修訂】模式，請貼上要修改的段落。", lineutil.WritingQuickReplies())
	case "練習下一句":
		return true, p.issueSentence(ctx, userID, replyToken)
	case "結束練習":
		if err := p.shadow.Clear(ctx, userID); err != nil {
			p.logWith(ctx).WithError(err).Warn("clearing practice sentence failed")
		}
		if err := p.sessions.SetMode(ctx, userID, session.ModeTCM); err != nil {
			p.logWith(ctx).WithError(err).Warn("mode switch persist failed")
		}
		return true, p.replyText(ctx, replyToken, "已結束口說練習，已切換回中醫問答模式。", lineutil.StandardQuickReplies())
	case "離開模式":
		if err := p.sessions.SetMode(ctx, userID, session.ModeTCM); err != nil {
			p.logWith(ctx).WithError(err).Warn("mode switch persist failed")
		}
		return true, p.replyText(ctx, replyToken, "已離開寫作修訂模式，已切換回中醫問答模式。", lineutil.StandardQuickReplies())
	}
	return false, nil
}

// replyModeSwitched sends the localized confirmation for a rich menu switch.
func (p *Processor) replyModeSwitched(ctx context.Context, replyToken string, mode session.Mode) error {
	switch mode {
	case session.ModeSpeaking:
		return p.replyText(ctx, replyToken, "已切換至【🗣️ 口說練習】模式，可傳送語音或文字。", lineutil.PracticeQuickReplies())
	case session.ModeWriting:
		return p.replyText(ctx, replyToken, "已切換至【✍️ 寫作修訂】模式，請貼上要修改的段落。", lineutil.WritingQuickReplies())
	default:
		return p.replyText(ctx, replyToken, fmt.Sprintf("已切換至【%s】模式，請開始輸入！", mode.DisplayName()), lineutil.StandardQuickReplies())
	}
}

// issueSentence starts the next shadowing round: switch to speaking mode,
// issue the sentence at the cursor and attach reference audio when TTS
// succeeds.
func (p *Processor) issueSentence(ctx context.Context, userID, replyToken string) error {
	if p.sessions.Mode(ctx, userID) != session.ModeSpeaking {
		if err := p.sessions.SetMode(ctx, userID, session.ModeSpeaking); err != nil {
			p.logWith(ctx).WithError(err).Warn("mode switch persist failed")
			return p.replyText(ctx, replyToken, processFailed, lineutil.StandardQuickReplies())
		}
	}

	sentence, err := p.shadow.IssueNext(ctx, userID)
	if err != nil {
		p.logWith(ctx).WithError(err).Warn("issuing practice sentence failed")
		return p.replyText(ctx, replyToken, processFailed, lineutil.StandardQuickReplies())
	}

	msgs := []messaging_api.MessageInterface{
		lineutil.NewTextMessage(fmt.Sprintf("🔊 請跟著唸：「%s」\n\n請傳送語音訊息開始練習～我會幫你分析發音與文法。", sentence)),
	}
	if audioMsg := p.referenceAudio(ctx, sentence); audioMsg != nil {
		msgs = append(msgs, audioMsg)
	}
	lineutil.AddQuickReplyToMessages(msgs, lineutil.PracticeQuickReplies()...)
	return p.sender.Reply(ctx, replyToken, msgs...)
}

// handleShadowingAttempt scores a speaking-mode transcript against the
// active sentence.
func (p *Processor) handleShadowingAttempt(ctx context.Context, userID, transcript string) error {
	sentence, ok := p.shadow.Current(ctx, userID)
	if !ok {
		return p.pushText(ctx, userID,
			"目前沒有進行中的練習句，點選「練習下一句」開始口說練習！",
			lineutil.PracticeQuickReplies())
	}

	result := shadowing.Score(sentence, transcript)
	if result.Passed() {
		p.metrics.RecordShadowingAttempt("pass")
		if err := p.shadow.Clear(ctx, userID); err != nil {
			p.logWith(ctx).WithError(err).Warn("clearing passed sentence failed")
		}
		return p.pushText(ctx, userID, shadowing.PassReport(result), lineutil.PracticeQuickReplies())
	}

	p.metrics.RecordShadowingAttempt("retry")
	if err := p.pushText(ctx, userID, shadowing.FailureReport(sentence, result), nil); err != nil {
		return err
	}
	if audioMsg := p.referenceAudio(ctx, sentence); audioMsg != nil {
		msgs := []messaging_api.MessageInterface{audioMsg}
		lineutil.AddQuickReplyToMessages(msgs, lineutil.PracticeQuickReplies()...)
		return p.sender.Push(ctx, userID, msgs...)
	}
	return p.pushText(ctx, userID, "示範語音暫時無法產生，請直接再試一次。", lineutil.PracticeQuickReplies())
}

// referenceAudio synthesizes and caches a demo reading of the sentence.
// Returns nil when synthesis or caching fails; the caller degrades to text.
func (p *Processor) referenceAudio(ctx context.Context, sentence string) messaging_api.MessageInterface {
	audio, err := p.speech.Synthesize(ctx, sentence)
	if err != nil {
		p.logWith(ctx).WithError(err).Warn("reference audio synthesis failed")
		return nil
	}
	token, err := p.audio.Put(ctx, audio)
	if err != nil {
		p.logWith(ctx).WithError(err).Warn("reference audio caching failed")
		return nil
	}
	return lineutil.NewAudioMessage(p.audio.URL(token), speech.EstimateDurationMS(sentence))
}

// delegate hands the text to the assistant and pushes the outcome. Runs in
// the caller's goroutine: the webhook layer already isolates each event.
func (p *Processor) delegate(ctx context.Context, userID string, mode session.Mode, text string, isVoice bool) {
	p.logQuestion(ctx, userID, text)

	start := p.now()
	state := "completed"
	iterations := 0
	defer func() {
		p.metrics.RecordAssistantRun(string(mode), state, p.now().Sub(start).Seconds(), iterations)
	}()

	threadID := p.sessions.ThreadID(ctx, userID)
	if threadID == "" {
		created, err := p.client.CreateThread(ctx)
		if err != nil {
			state = "failed"
			err = apperrors.WrapOp("assistant", "create_thread", err, processFailed)
			p.logWith(ctx).WithError(err).Error("thread creation failed")
			p.pushFailure(ctx, userID, err)
			return
		}
		threadID = created
		if err := p.sessions.SetThreadID(ctx, userID, threadID); err != nil {
			p.logWith(ctx).WithError(err).Warn("thread persist failed")
		}
	}

	if err := p.client.AddMessage(ctx, threadID, assistant.ComposeMessage(mode, text, isVoice, p.now())); err != nil {
		state = "failed"
		err = apperrors.WrapOp("assistant", "submit_message", err, processFailed)
		p.logWith(ctx).WithError(err).Error("message submit failed")
		p.pushFailure(ctx, userID, err)
		return
	}

	runID, initial, err := p.client.StartRun(ctx, threadID)
	if err != nil {
		state = "failed"
		err = apperrors.WrapOp("assistant", "start_run", err, processFailed)
		p.logWith(ctx).WithError(err).Error("run start failed")
		p.pushFailure(ctx, userID, err)
		return
	}

	status, iters, err := p.poller.Wait(ctx, threadID, runID, initial)
	iterations = iters
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRunTimeout):
			state = "timed_out"
			p.logWith(ctx).WithField("status", string(status)).Warn("assistant run timed out")
			p.pushFailure(ctx, userID, apperrors.WrapOp("assistant", "poll_run", err, timeoutReply))
		case errors.Is(err, apperrors.ErrContextCanceled):
			state = "canceled"
			p.logWith(ctx).Warn("assistant run canceled")
		default:
			state = "failed"
			err = apperrors.WrapOp("assistant", "poll_run", err, processFailed)
			p.logWith(ctx).WithError(err).Error("assistant run failed")
			p.pushFailure(ctx, userID, err)
		}
		return
	}

	answer, err := p.client.LatestAssistantMessage(ctx, threadID)
	if err != nil || strings.TrimSpace(answer) == "" {
		state = "failed"
		if err == nil {
			err = apperrors.ErrNotFound
		}
		err = apperrors.WrapOp("assistant", "fetch_answer", err, processFailed)
		p.logWith(ctx).WithError(err).Error("assistant answer fetch failed")
		p.pushFailure(ctx, userID, err)
		return
	}

	if mode == session.ModeTCM {
		answer = strings.TrimRight(answer, " \n\t") + assistant.SafetyDisclaimer
	}
	if err := p.pushText(ctx, userID, answer, lineutil.StandardQuickReplies()); err != nil {
		p.logWith(ctx).WithError(err).Error("answer push failed")
	}
}

// revise runs the writing-revision path over Chat Completions and pushes
// the feedback.
func (p *Processor) revise(ctx context.Context, userID, text string) {
	feedback, err := p.reviser.Revise(ctx, text)
	if err != nil {
		err = apperrors.WrapOp("assistant", "revise", err, processFailed)
		p.logWith(ctx).WithError(err).Error("writing revision failed")
		p.pushFailure(ctx, userID, err)
		return
	}
	if err := p.pushText(ctx, userID, feedback, lineutil.WritingQuickReplies()); err != nil {
		p.logWith(ctx).WithError(err).Error("revision push failed")
	}
}

// logQuestion appends the delegated question to the capped weekly log.
// Logging is best effort and never blocks the answer.
func (p *Processor) logQuestion(ctx context.Context, userID, text string) {
	entry, err := json.Marshal(map[string]any{
		"user_id": userID,
		"text":    lineutil.TruncateRunes(text, transcriptLimit),
		"ts":      p.now().Unix(),
	})
	if err != nil {
		return
	}
	if err := p.store.LPush(ctx, store.QuestionLogKey, string(entry), questionLogMax); err != nil {
		p.logWith(ctx).WithError(err).Warn("question log append failed")
	}
}

func (p *Processor) ackAnalyzing(ctx context.Context, replyToken string, mode session.Mode) error {
	return p.replyText(ctx, replyToken, fmt.Sprintf("正在以【%s】模式分析中...", mode.DisplayName()), nil)
}

// pushFailure pushes the apology carried by the wrapped cause, falling back
// to the generic failure text when the cause carries none.
func (p *Processor) pushFailure(ctx context.Context, userID string, cause error) {
	text := apperrors.GetUserMessage(cause, processFailed)
	if err := p.pushText(ctx, userID, text, lineutil.StandardQuickReplies()); err != nil {
		p.logWith(ctx).WithError(err).Error("failure push failed")
	}
}

// logWith enriches the module logger with the tracing values carried in the
// event context.
func (p *Processor) logWith(ctx context.Context) *logger.Logger {
	log := p.log
	if id, ok := ctxutil.GetRequestID(ctx); ok && id != "" {
		log = log.WithRequestID(id)
	}
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		log = log.WithField("user_id", shortID(userID))
	}
	if mode := ctxutil.GetMode(ctx); mode != "" {
		log = log.WithField("mode", mode)
	}
	return log
}

// shortID truncates a user id for logging.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func (p *Processor) replyText(ctx context.Context, replyToken, text string, chips []lineutil.QuickReplyItem) error {
	if len(chips) == 0 {
		return p.sender.Reply(ctx, replyToken, lineutil.NewTextMessage(text))
	}
	return p.sender.Reply(ctx, replyToken, lineutil.NewTextMessageWithQuickReply(text, chips...))
}

func (p *Processor) pushText(ctx context.Context, userID, text string, chips []lineutil.QuickReplyItem) error {
	if len(chips) == 0 {
		return p.sender.Push(ctx, userID, lineutil.NewTextMessage(text))
	}
	return p.sender.Push(ctx, userID, lineutil.NewTextMessageWithQuickReply(text, chips...))
}

// isOffTopic reports whether the text mentions none of the course-related
// keywords. Matching is case-insensitive for the English terms.
func isOffTopic(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range tcmKeywords {
		if strings.Contains(text, kw) || strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}
