package telegram

import (
	"sync"

	"paper-pal/api/internal/paper/types"
)

// Per-chat state lives in process memory only.
var (
	chatLevel sync.Map // chatID -> types.SkillLevel
	lastQuiz  sync.Map // chatID -> types.QuizResult, for the "answers" button
	busy      sync.Map // chatID -> struct{}, one analysis per chat at a time
)

func levelFor(chatID int64) types.SkillLevel {
	if v, ok := chatLevel.Load(chatID); ok {
		if l, ok := v.(types.SkillLevel); ok {
			return l
		}
	}
	return types.Undergraduate
}

func setLevel(chatID int64, l types.SkillLevel) { chatLevel.Store(chatID, l) }

func tryLock(chatID int64) bool {
	_, loaded := busy.LoadOrStore(chatID, struct{}{})
	return !loaded
}

func unlock(chatID int64) { busy.Delete(chatID) }
