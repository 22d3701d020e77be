package stats

import (
	"sort"
	"strings"

	"github.com/chat-stats-bot/internal/models"
)

// minKeywordLength filters out short function words after normalization.
const minKeywordLength = 4

// stopWords is a fixed bilingual list of common function words excluded
// from keyword ranking.
var stopWords = map[string]struct{}{
	"и": {}, "а": {}, "но": {}, "на": {}, "в": {}, "во": {}, "не": {},
	"что": {}, "это": {}, "как": {}, "к": {}, "ко": {}, "по": {}, "за": {},
	"с": {}, "со": {}, "я": {}, "ты": {}, "мы": {}, "вы": {}, "он": {},
	"она": {}, "они": {},
	"the": {}, "and": {}, "for": {}, "but": {}, "with": {}, "this": {},
	"that": {}, "was": {}, "are": {}, "you": {}, "your": {}, "not": {},
	"have": {}, "from": {},
}

// RankKeywords tokenizes raw message texts and ranks tokens by frequency.
// Tokens are lowercased and stripped to ASCII letters, digits and the
// Cyrillic alphabet; anything shorter than four characters or present in
// the stop-word list is discarded. Ties rank in first-seen order.
func RankKeywords(texts []string, limit int) []models.KeywordCount {
	counts := make(map[string]int)
	var order []string

	for _, text := range texts {
		for _, raw := range strings.Fields(text) {
			word := normalizeWord(raw)
			if len([]rune(word)) < minKeywordLength {
				continue
			}
			if _, skip := stopWords[word]; skip {
				continue
			}
			if _, seen := counts[word]; !seen {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	ranked := make([]models.KeywordCount, 0, len(order))
	for _, word := range order {
		ranked = append(ranked, models.KeywordCount{Word: word, Count: counts[word]})
	}
	return ranked
}

// normalizeWord lowercases a token and strips every rune outside the fixed
// alphabet: ASCII letters, digits, and Cyrillic including "ё".
func normalizeWord(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'а' && r <= 'я', r == 'ё':
			b.WriteRune(r)
		}
	}
	return b.String()
}
