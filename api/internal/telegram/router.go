package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/paper"
	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/util"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, req paper.Request) (paper.Analysis, error)
}

type Router struct {
	Bot      Bot
	Analyzer Analyzer
	Log      *logrus.Logger

	// server-side credential: bot users do not send keys
	Credential string
	LLMName    string
	MaxFile    int64
	Timeout    time.Duration

	HTTP *http.Client
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, "Send me a research paper as a PDF document and I will summarize it, "+
			"quiz you on it and suggest applications.\nCommands: /level, /health")
	case "health":
		r.send(cid, "✅ OK")
	case "level":
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg == "" {
			m := tgbotapi.NewMessage(cid, fmt.Sprintf("Current level: %s. Pick one:", levelFor(cid).Label()))
			m.ReplyMarkup = makeLevelKeyboard()
			r.sendMsg(m)
			return
		}
		l, err := types.ParseSkillLevel(arg)
		if err != nil {
			r.send(cid, "Unknown level. Use: /level highschool | undergraduate | graduate")
			return
		}
		setLevel(cid, l)
		r.send(cid, "✅ Level: "+l.Label())
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(ctx, msg)
	case msg.Document != nil:
		r.acceptDocument(ctx, msg)
	case msg.Text != "":
		r.send(msg.Chat.ID, "Please send the paper as a PDF document.")
	}
}

func (r *Router) handleCallback(cq tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cq.ID, ""))
	if cq.Message == nil {
		return
	}
	cid := cq.Message.Chat.ID
	switch {
	case strings.HasPrefix(cq.Data, cbLevelPrefix):
		l, err := types.ParseSkillLevel(strings.TrimPrefix(cq.Data, cbLevelPrefix))
		if err != nil {
			return
		}
		setLevel(cid, l)
		r.send(cid, "✅ Level: "+l.Label())
	case cq.Data == cbQuizAnswers:
		v, ok := lastQuiz.Load(cid)
		if !ok {
			r.send(cid, "No quiz yet. Send a paper first.")
			return
		}
		r.send(cid, formatAnswers(v.(types.QuizResult)))
	}
}

func (r *Router) acceptDocument(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	if doc.MimeType != "application/pdf" && !strings.HasSuffix(strings.ToLower(doc.FileName), ".pdf") {
		r.send(cid, "That is not a PDF. Please send the paper as a PDF document.")
		return
	}
	if r.MaxFile > 0 && int64(doc.FileSize) > r.MaxFile {
		r.send(cid, fmt.Sprintf("The file is too large (max %d MB).", r.MaxFile>>20))
		return
	}
	if !tryLock(cid) {
		r.send(cid, "Still working on your previous paper, please wait.")
		return
	}
	defer unlock(cid)

	log := r.logger().WithFields(logrus.Fields{"chat_id": cid, "file": doc.FileName})
	r.send(cid, "📥 Paper received, analyzing… this can take a minute.")

	url, err := r.Bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		log.WithError(err).Warn("get file url")
		r.SendError(cid, err)
		return
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := r.download(ctx, url)
	if err != nil {
		log.WithError(err).Warn("download")
		r.SendError(cid, err)
		return
	}
	if mime := util.PickMIME(doc.MimeType, data); mime != "application/pdf" {
		log.WithField("mime", mime).Info("rejected non-pdf upload")
		r.send(cid, "That is not a PDF. Please send the paper as a PDF document.")
		return
	}

	res, err := r.Analyzer.Analyze(ctx, paper.Request{
		PDF:        data,
		Credential: r.Credential,
		SkillLevel: levelFor(cid),
		LLMName:    r.LLMName,
	})
	if err != nil {
		log.WithError(err).Warn("analyze")
		r.SendError(cid, err)
		return
	}
	log.WithField("fallbacks", len(res.Fallbacks)).Info("paper analyzed")

	r.send(cid, formatSummary(res.Paper))
	if dd := formatDeepDive(res.Paper.DeepDive); dd != "" {
		r.send(cid, dd)
	}
	for _, f := range res.Paper.Figures {
		if strings.HasPrefix(f.URL, "http") {
			r.send(cid, fmt.Sprintf("🖼 %s\n%s", f.Title, f.URL))
		}
	}
	lastQuiz.Store(cid, res.Quiz)
	quiz := tgbotapi.NewMessage(cid, formatQuiz(res.Quiz))
	quiz.ReplyMarkup = makeAnswersKeyboard()
	r.sendMsg(quiz)
	r.send(cid, formatApplications(res.Applications.Applications))
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	c := r.HTTP
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	rd := io.Reader(resp.Body)
	if r.MaxFile > 0 {
		rd = io.LimitReader(resp.Body, r.MaxFile+1)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	if r.MaxFile > 0 && int64(len(b)) > r.MaxFile {
		return nil, fmt.Errorf("file too large")
	}
	return b, nil
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (r *Router) logger() *logrus.Logger {
	if r.Log == nil {
		return discard
	}
	return r.Log
}

func (r *Router) send(chatID int64, text string) {
	r.sendMsg(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendMsg(m tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(m); err != nil {
		r.logger().WithError(err).WithField("chat_id", m.ChatID).Warn("telegram send")
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("Sorry, I could not analyze this paper: %v", err))
}
