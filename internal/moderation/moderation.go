package moderation

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/MosinFAM/smart-feed/internal/ai"
)

// Политика при ошибке обращения к модели
const (
	OnErrorAllow  = "allow"
	OnErrorReject = "reject"
)

const (
	// NeutralScore - оценка, когда в ответе модели нет числа
	NeutralScore = 0.5
	// DefaultThreshold - пост принимается при оценке строго меньше порога
	DefaultThreshold = 0.7

	absurdityPrompt = "Rate absurdity of this text from 0 (good) to 1 (absurd): "
)

// Причины решения
const (
	ReasonNoModel   = "no_model"
	ReasonDenylist  = "denylist"
	ReasonScore     = "score"
	ReasonModelFail = "model_error"
)

var numberRe = regexp.MustCompile(`\b\d+(\.\d+)?\b`)

// Policy - настройки модерации
type Policy struct {
	Denylist  []string
	Threshold float64
	OnError   string
}

// Decision - результат модерации
type Decision struct {
	Allowed bool
	Reason  string
	Score   *float64
}

// Gate принимает или отклоняет текст поста
type Gate struct {
	gen      ai.Generator
	denylist []string
	policy   Policy
}

// NewGate создаёт фильтр. gen == nil: оценка абсурдности пропускается.
func NewGate(gen ai.Generator, policy Policy) *Gate {
	if policy.Threshold <= 0 {
		policy.Threshold = DefaultThreshold
	}
	if policy.OnError == "" {
		policy.OnError = OnErrorAllow
	}
	denylist := make([]string, 0, len(policy.Denylist))
	for _, w := range policy.Denylist {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			denylist = append(denylist, w)
		}
	}
	return &Gate{gen: gen, denylist: denylist, policy: policy}
}

// Moderate возвращает true, если пост можно публиковать
func (g *Gate) Moderate(ctx context.Context, text string) bool {
	return g.Evaluate(ctx, text).Allowed
}

// Evaluate: словарь запрещённых слов, затем оценка абсурдности моделью
func (g *Gate) Evaluate(ctx context.Context, text string) Decision {
	lower := strings.ToLower(text)
	for _, w := range g.denylist {
		if strings.Contains(lower, w) {
			return Decision{Allowed: false, Reason: ReasonDenylist}
		}
	}

	if g.gen == nil {
		return Decision{Allowed: true, Reason: ReasonNoModel}
	}

	resp, err := g.gen.Generate(ctx, absurdityPrompt+text)
	if err != nil {
		log.Printf("Moderation call failed, policy %s: %v", g.policy.OnError, err)
		return Decision{Allowed: g.policy.OnError == OnErrorAllow, Reason: ReasonModelFail}
	}

	score := NeutralScore
	if parsed, ok := ParseScore(resp); ok {
		score = parsed
	}
	return Decision{Allowed: score < g.policy.Threshold, Reason: ReasonScore, Score: &score}
}

// ParseScore достаёт первое число из свободного текста модели
func ParseScore(text string) (float64, bool) {
	m := numberRe.FindString(strings.TrimSpace(text))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
