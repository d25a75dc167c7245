// Package report builds and mails the weekly learning analysis report.
// It aggregates the question log, labels each question with a concept
// via chat completions, and delivers a ranked summary over SMTP.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shuhanlo/tcm-linebot-go/internal/assistant"
	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
)

const (
	// topNConcepts caps the ranked table at the ten most-asked concepts.
	topNConcepts = 10

	// batchSize is how many questions go into one clustering completion.
	batchSize = 20

	clusterMaxTokens = 300

	fallbackConcept = "其他"

	// Subject is the email subject line of every weekly report.
	Subject = "LINE TCM Bot 每週學習分析報告"
)

const clusterPrompt = "以下為學生提問，請為「每一行」依序回傳一個簡短中文概念" +
	"（如：經絡、穴位、辨證、氣、陰陽五行、中藥、針灸、其他），" +
	"一行一個，不要編號與多餘說明。"

// Entry is one logged question, as pushed to the question log list.
type Entry struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	TS     int64  `json:"ts"`
}

// ConceptCount is one row of the ranked concept table.
type ConceptCount struct {
	Concept string
	Count   int
}

// Mailer delivers one rendered report.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// Service assembles and sends the weekly report.
type Service struct {
	store     *store.Store
	completer assistant.Completer
	mailer    Mailer
	recipient string
	log       *logger.Logger
	now       func() time.Time
}

// ServiceConfig holds dependencies for creating a Service.
type ServiceConfig struct {
	Store     *store.Store
	Completer assistant.Completer
	Mailer    Mailer
	Recipient string
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService creates a report service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     cfg.Store,
		completer: cfg.Completer,
		mailer:    cfg.Mailer,
		recipient: cfg.Recipient,
		log:       cfg.Logger.WithModule("report"),
		now:       now,
	}
}

// Run builds and sends this week's report. The returned message is
// surfaced verbatim by the cron endpoint.
func (s *Service) Run(ctx context.Context) (bool, string) {
	if s.recipient == "" {
		return false, config.EnvReportTo + " 未設定"
	}

	top, err := s.TopConcepts(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to aggregate question log")
		return false, "提問資料讀取失敗，請稍後再試"
	}
	if len(top) == 0 {
		return true, "本週無提問資料，未產出報告"
	}

	body := buildBody(top, s.now())

	mailCtx, cancel := context.WithTimeout(ctx, config.ReportMailTimeout)
	defer cancel()
	if err := s.mailer.Send(mailCtx, Subject, body); err != nil {
		s.log.WithError(err).Error("failed to send weekly report")
		return false, "寄送失敗，請檢查 SMTP 與 " + config.EnvReportTo
	}

	s.log.WithField("concepts", len(top)).Info("weekly report sent")
	return true, "報告已寄送至 " + s.recipient
}

// TopConcepts aggregates the last seven days of questions into a ranked
// concept table of at most topNConcepts rows.
func (s *Service) TopConcepts(ctx context.Context) ([]ConceptCount, error) {
	entries, err := s.fetchQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	var all []string
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]
		concepts := s.assignConceptsBatch(ctx, batch)
		if len(concepts) > len(batch) {
			concepts = concepts[:len(batch)]
		}
		all = append(all, concepts...)
	}
	for len(all) < len(texts) {
		all = append(all, fallbackConcept)
	}

	counts := make(map[string]int)
	for _, c := range all {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fallbackConcept
		}
		counts[c]++
	}

	ranked := make([]ConceptCount, 0, len(counts))
	for concept, count := range counts {
		ranked = append(ranked, ConceptCount{Concept: concept, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Concept < ranked[j].Concept
	})
	if len(ranked) > topNConcepts {
		ranked = ranked[:topNConcepts]
	}
	return ranked, nil
}

// fetchQuestions reads the question log and keeps entries from the last
// seven days. Malformed entries are skipped.
func (s *Service) fetchQuestions(ctx context.Context) ([]Entry, error) {
	raw, err := s.store.LRange(ctx, store.QuestionLogKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read question log: %w", err)
	}

	weekAgo := s.now().Add(-7 * 24 * time.Hour).Unix()
	var out []Entry
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		if e.TS >= weekAgo && e.Text != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// assignConceptsBatch labels one batch of questions with a concept each.
// The model answers one concept per line; the last whitespace-separated
// field of each line is taken so stray numbering never leaks through.
// On any failure the whole batch falls back to fallbackConcept.
func (s *Service) assignConceptsBatch(ctx context.Context, texts []string) []string {
	if len(texts) == 0 {
		return nil
	}
	if len(texts) > batchSize {
		texts = texts[:batchSize]
	}

	clusterCtx, cancel := context.WithTimeout(ctx, config.ReportClusterTimeout)
	defer cancel()

	reply, err := s.completer.Complete(clusterCtx, clusterPrompt, strings.Join(texts, "\n"), clusterMaxTokens)
	if err != nil {
		s.log.WithError(err).Warn("concept clustering failed, labeling batch as fallback")
		fallback := make([]string, len(texts))
		for i := range fallback {
			fallback[i] = fallbackConcept
		}
		return fallback
	}

	var concepts []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		concepts = append(concepts, fields[len(fields)-1])
	}
	if len(concepts) > len(texts) {
		concepts = concepts[:len(texts)]
	}
	return concepts
}

// buildBody renders the plain-text report.
func buildBody(top []ConceptCount, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString("每週學習分析報告\n")
	fmt.Fprintf(&b, "產出日期：%s\n\n", generatedAt.Format("2006-01-02"))
	b.WriteString("前十大困惑觀念（依提問次數）\n\n")
	for i, cc := range top {
		fmt.Fprintf(&b, "%2d. %s：%d 次\n", i+1, cc.Concept, cc.Count)
	}
	return b.String()
}
