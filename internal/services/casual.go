package services

import "strings"

// Substring sets for the casual-exchange heuristic. This filter gates audit
// persistence only; the pipeline's intent classifier is separate.
var casualQuestionPatterns = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"how are you", "thank you", "thanks", "bye", "goodbye", "ok", "okay",
	"yes", "no", "sure", "great", "awesome", "cool", "nice", "fine",
	"what's up", "how's it going", "see you", "take care", "good night",
	"good day", "how do you do", "pleased to meet you", "nice to meet you",
}

var greetingResponsePatterns = []string{
	"hello", "hi there", "good morning", "good afternoon", "good evening",
	"how can i help", "nice to meet you", "pleased to meet you",
	"thank you for", "you're welcome", "no problem",
}

// IsCasualExchange reports whether a question/answer pair is a greeting or
// pleasantry rather than a substantive exchange.
func IsCasualExchange(question, answer string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, p := range casualQuestionPatterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	if len(strings.TrimSpace(question)) < 10 {
		return true
	}

	a := strings.ToLower(strings.TrimSpace(answer))
	for _, p := range greetingResponsePatterns {
		if strings.Contains(a, p) {
			return true
		}
	}
	return len(strings.TrimSpace(answer)) < 20
}

// IsDuplicateQuestion reports whether question repeats one of existing:
// either an exact (case-folded) match or ≥90% shared words between two
// questions of more than three words each.
func IsDuplicateQuestion(question string, existing []string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	qWords := wordSet(q)

	for _, e := range existing {
		el := strings.ToLower(strings.TrimSpace(e))
		if q == el {
			return true
		}
		eWords := wordSet(el)
		if len(qWords) > 3 && len(eWords) > 3 {
			shared := 0
			for w := range qWords {
				if _, ok := eWords[w]; ok {
					shared++
				}
			}
			smaller := len(qWords)
			if len(eWords) < smaller {
				smaller = len(eWords)
			}
			if float64(shared) >= float64(smaller)*0.9 {
				return true
			}
		}
	}
	return false
}

func wordSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}
