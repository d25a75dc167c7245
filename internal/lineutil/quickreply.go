package lineutil

// Standard quick-reply chip sets, mirrored by the rich menu postbacks.

// StandardQuickReplies returns the default chips attached to most replies.
func StandardQuickReplies() []QuickReplyItem {
	return []QuickReplyItem{
		{Action: NewMessageAction("口說練習", "口說練習")},
		{Action: NewMessageAction("寫作修改", "寫作修改")},
		{Action: NewMessageAction("課務查詢", "課務查詢")},
		{Action: NewMessageAction("本週重點", "本週重點")},
	}
}

// PracticeQuickReplies returns the chips shown after a shadowing attempt.
func PracticeQuickReplies() []QuickReplyItem {
	return []QuickReplyItem{
		{Action: NewMessageAction("練習下一句", "練習下一句")},
		{Action: NewMessageAction("結束練習", "結束練習")},
	}
}

// WritingQuickReplies returns the chips shown in writing revision mode.
func WritingQuickReplies() []QuickReplyItem {
	return []QuickReplyItem{
		{Action: NewMessageAction("離開模式", "離開模式")},
		{Action: NewMessageAction("繼續練習", "繼續練習")},
	}
}
