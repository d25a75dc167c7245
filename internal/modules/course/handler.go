// Package course answers course-logistics questions (grading, schedule,
// assignments, weekly focus) from static syllabus data, without touching
// any upstream service.
package course

import (
	"context"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/shuhanlo/tcm-linebot-go/internal/bot"
	"github.com/shuhanlo/tcm-linebot-go/internal/lineutil"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
)

// WeeklyFocus is the current week's study summary, updated per week.
const WeeklyFocus = "本週重點：TCM 基礎—氣 (qi)、經絡 (meridians)、針灸 (acupuncture) 與中藥的平衡觀念。"

const (
	gradingReply = "📋 評分標準\n" +
		"・期末專題：30%\n" +
		"・課堂參與：30%\n" +
		"・出席：40%\n" +
		"如有疑問請洽課程助教。"

	scheduleReply = "📅 課表\n" +
		"請以學校公布之當學期課表為準；EMI 中醫課程通常為週間排課，詳見選課系統。"

	assignmentReply = "📝 作業\n" +
		"作業與繳交期限依教師當週公告為準；期末專題格式與說明將於期中後公布。"
)

// Handler implements bot.Handler for course-logistics keywords.
type Handler struct {
	log *logger.Logger
}

// NewHandler creates the course module handler.
func NewHandler(log *logger.Logger) *Handler {
	return &Handler{log: log.WithModule("course")}
}

// Name returns the module identifier.
func (h *Handler) Name() string {
	return "course"
}

// CanHandle matches course-logistics keywords and the weekly focus and
// inquiry menu triggers. Keyword matching is substring-based for the
// Chinese terms and case-insensitive for the English ones.
func (h *Handler) CanHandle(_ context.Context, text string) bool {
	return lookupReply(text) != "" || isWeeklyFocus(text) || isInquiryMenu(text)
}

// HandleMessage builds the static reply for a recognized keyword.
func (h *Handler) HandleMessage(_ context.Context, text string) []messaging_api.MessageInterface {
	switch {
	case isWeeklyFocus(text):
		return []messaging_api.MessageInterface{
			lineutil.NewTextMessageWithQuickReply(WeeklyFocus, lineutil.StandardQuickReplies()...),
		}
	case isInquiryMenu(text):
		return []messaging_api.MessageInterface{h.inquiryFlex()}
	}
	reply := lookupReply(text)
	if reply == "" {
		return nil
	}
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(reply, lineutil.StandardQuickReplies()...),
	}
}

// PostbackActions lists the postback actions owned by this module.
func (h *Handler) PostbackActions() []string {
	return []string{"course", "weekly", "grading", "schedule", "assignment"}
}

// HandlePostback serves the rich menu and inquiry flex buttons.
func (h *Handler) HandlePostback(_ context.Context, pb bot.PostbackData) []messaging_api.MessageInterface {
	var reply string
	switch pb.Value {
	case "course":
		return []messaging_api.MessageInterface{h.inquiryFlex()}
	case "weekly":
		reply = WeeklyFocus
	case "grading":
		reply = gradingReply
	case "schedule":
		reply = scheduleReply
	case "assignment":
		reply = assignmentReply
	default:
		return nil
	}
	return []messaging_api.MessageInterface{
		lineutil.NewTextMessageWithQuickReply(reply, lineutil.StandardQuickReplies()...),
	}
}

// lookupReply maps course-logistics keywords to their static replies.
// Returns "" when the text is not a course inquiry.
func lookupReply(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "評分"), strings.Contains(text, "成績"), strings.Contains(lower, "grading"):
		return gradingReply
	case strings.Contains(text, "課表"), strings.Contains(text, "上課時間"), strings.Contains(lower, "schedule"):
		return scheduleReply
	case strings.Contains(text, "作業"), strings.Contains(text, "繳交"), strings.Contains(lower, "assignment"):
		return assignmentReply
	}
	return ""
}

func isWeeklyFocus(text string) bool {
	return strings.TrimSpace(text) == "本週重點"
}

func isInquiryMenu(text string) bool {
	return strings.TrimSpace(text) == "課務查詢"
}

// inquiryFlex builds the course inquiry menu as a flex bubble with one
// button per topic.
func (h *Handler) inquiryFlex() *messaging_api.FlexMessage {
	bubble := &messaging_api.FlexBubble{
		Body: &messaging_api.FlexBox{
			Layout:  messaging_api.FlexBoxLAYOUT("vertical"),
			Spacing: "md",
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexText{
					Text:   "📚 課務查詢",
					Weight: messaging_api.FlexTextWEIGHT("bold"),
					Size:   "lg",
				},
				&messaging_api.FlexText{
					Text: "請選擇想查詢的項目",
					Size: "sm",
					Wrap: true,
				},
			},
		},
		Footer: &messaging_api.FlexBox{
			Layout:  messaging_api.FlexBoxLAYOUT("vertical"),
			Spacing: "sm",
			Contents: []messaging_api.FlexComponentInterface{
				inquiryButton("評分標準", "action=grading"),
				inquiryButton("課表", "action=schedule"),
				inquiryButton("作業", "action=assignment"),
				inquiryButton("本週重點", "action=weekly"),
			},
		},
	}
	return lineutil.NewFlexMessage("課務查詢選單", bubble)
}

func inquiryButton(label, data string) *messaging_api.FlexButton {
	return &messaging_api.FlexButton{
		Style:  messaging_api.FlexButtonSTYLE("primary"),
		Height: messaging_api.FlexButtonHEIGHT("sm"),
		Action: &messaging_api.PostbackAction{
			Label: label,
			Data:  data,
		},
	}
}
