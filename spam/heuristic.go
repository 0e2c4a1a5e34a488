package spam

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// HeuristicSpamThreshold marks the score at which the fallback
	// heuristic classifies text as spam.
	HeuristicSpamThreshold = 0.8

	patternScoreCap   = 0.6
	patternScoreUnit  = 4.0
	uppercaseRatioMax = 0.3
	uppercaseScore    = 0.2
	exclamationMax    = 0.05
	exclamationScore  = 0.15
	urlCountMax       = 2
	urlScore          = 0.15
	unsubscribeScore  = 0.1
	priceCountMax     = 1
	priceScore        = 0.1
)

var (
	urlRegexp   = regexp.MustCompile(`https?://\S+`)
	priceRegexp = regexp.MustCompile(`[$€£]\s?\d`)
)

// heuristicScore is the deterministic fallback scorer: a sum of capped
// signals over phrase matches, casing, punctuation, links and price
// mentions. Adding matched phrases never lowers the score.
func heuristicScore(content string) Result {
	lower := strings.ToLower(content)

	var reasons []string

	matchCount := 0

	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			matchCount++
		}
	}

	score := float64(matchCount) / patternScoreUnit
	if score > patternScoreCap {
		score = patternScoreCap
	}

	if matchCount > 0 {
		reasons = append(reasons, "spam phrases matched")
	}

	var letters, upper int

	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++

			if unicode.IsUpper(r) {
				upper++
			}
		}
	}

	if letters > 0 && float64(upper)/float64(letters) > uppercaseRatioMax {
		score += uppercaseScore

		reasons = append(reasons, "excessive uppercase")
	}

	if len(content) > 0 {
		exclamations := strings.Count(content, "!")
		if float64(exclamations)/float64(len(content)) > exclamationMax {
			score += exclamationScore

			reasons = append(reasons, "excessive exclamation marks")
		}
	}

	if len(urlRegexp.FindAllStringIndex(content, -1)) > urlCountMax {
		score += urlScore

		reasons = append(reasons, "too many links")
	}

	if strings.Contains(lower, "unsubscribe") || strings.Contains(lower, "opt out") {
		score += unsubscribeScore

		reasons = append(reasons, "unsubscribe language")
	}

	if len(priceRegexp.FindAllStringIndex(content, -1)) > priceCountMax {
		score += priceScore

		reasons = append(reasons, "multiple price mentions")
	}

	return Result{
		IsSpam: score >= HeuristicSpamThreshold,
		Score:  score,
		Reason: strings.Join(reasons, ", "),
	}
}
