package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paper-pal/api/internal/paper"
	"paper-pal/api/internal/paper/types"
)

const (
	cbLevelPrefix = "level:"
	cbQuizAnswers = "quiz_answers"
	maxMessageLen = 3900
)

func makeLevelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("High school", cbLevelPrefix+string(types.HighSchool)),
		tgbotapi.NewInlineKeyboardButtonData("Undergraduate", cbLevelPrefix+string(types.Undergraduate)),
		tgbotapi.NewInlineKeyboardButtonData("Graduate", cbLevelPrefix+string(types.Graduate)),
	))
}

func makeAnswersKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Show answers", cbQuizAnswers)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

// clip cuts s to maxMessageLen bytes on a rune boundary.
func clip(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	n := maxMessageLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

func formatSummary(p paper.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 %s\n", p.Title)
	if p.Authors != "" {
		fmt.Fprintf(&b, "%s\n", p.Authors)
	}
	fmt.Fprintf(&b, "\n%s\n", p.SimplifiedSummary)
	if len(p.KeyPoints) > 0 {
		b.WriteString("\nKey points:\n")
		for _, k := range p.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", k)
		}
	}
	return clip(strings.TrimSpace(b.String()))
}

func formatDeepDive(d types.DeepDive) string {
	var b strings.Builder
	for _, s := range []struct{ name, text string }{
		{"Methodology", d.Methodology},
		{"Results", d.Results},
		{"Implications", d.Implications},
		{"Technical details", d.TechnicalDetails},
		{"Context", d.Context},
	} {
		if s.text != "" {
			fmt.Fprintf(&b, "%s: %s\n\n", s.name, s.text)
		}
	}
	return clip(strings.TrimSpace(b.String()))
}

func formatQuiz(q types.QuizResult) string {
	var b strings.Builder
	b.WriteString("🧠 Quiz\n")
	for i, qq := range q.Questions {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, qq.Question)
		for j, o := range qq.Options {
			fmt.Fprintf(&b, "   %c) %s\n", 'A'+j, o)
		}
	}
	return clip(strings.TrimRight(b.String(), "\n"))
}

func formatAnswers(q types.QuizResult) string {
	var b strings.Builder
	b.WriteString("✅ Answers\n")
	for i, qq := range q.Questions {
		switch {
		case qq.CorrectAnswer != nil && *qq.CorrectAnswer < len(qq.Options):
			fmt.Fprintf(&b, "\n%d. %c) %s", i+1, 'A'+*qq.CorrectAnswer, qq.Options[*qq.CorrectAnswer])
		case len(qq.CorrectKeywords) > 0:
			fmt.Fprintf(&b, "\n%d. keywords: %s", i+1, strings.Join(qq.CorrectKeywords, ", "))
		default:
			fmt.Fprintf(&b, "\n%d.", i+1)
		}
		if qq.Explanation != "" {
			fmt.Fprintf(&b, "\n   %s", qq.Explanation)
		}
		b.WriteString("\n")
	}
	return clip(strings.TrimRight(b.String(), "\n"))
}

func formatApplications(a types.Applications) string {
	var b strings.Builder
	b.WriteString("🚀 Applications\n")
	for _, s := range []struct {
		name  string
		items []string
	}{
		{"Project ideas", a.ProjectIdeas},
		{"Industry", a.IndustryApplications},
		{"Research directions", a.ResearchDirections},
		{"Blog topics", a.BlogTopics},
	} {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", s.name)
		for _, it := range s.items {
			fmt.Fprintf(&b, "• %s\n", it)
		}
	}
	return clip(strings.TrimSpace(b.String()))
}
