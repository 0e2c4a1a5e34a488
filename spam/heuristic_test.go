package spam

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristicScoreFlagsSpam(t *testing.T) {
	t.Parallel()

	result := heuristicScore(
		"ACT NOW!!! BUY NOW and get FREE MONEY! FAST CASH guaranteed, CLICK HERE to claim your prize!!!",
	)

	require.True(t, result.IsSpam)
	require.GreaterOrEqual(t, result.Score, HeuristicSpamThreshold)
	require.Contains(t, result.Reason, "spam phrases matched")
	require.Contains(t, result.Reason, "excessive uppercase")
}

func TestHeuristicScorePassesCleanText(t *testing.T) {
	t.Parallel()

	result := heuristicScore(
		"This is a normal post about programming. " +
			"I am working on a React application and need help with state management.",
	)

	require.False(t, result.IsSpam)
	require.Zero(t, result.Score)
	require.Empty(t, result.Reason)
}

func TestHeuristicScoreMorePhrasesNeverLowersScore(t *testing.T) {
	t.Parallel()

	text := "check out this offer"

	prev := heuristicScore(text)

	for _, phrase := range []string{"buy now", "free money", "act now", "click here", "fast cash"} {
		text += " " + phrase

		current := heuristicScore(text)

		require.GreaterOrEqual(t, current.Score, prev.Score)

		prev = current
	}
}

func TestHeuristicScorePhraseSignalIsCapped(t *testing.T) {
	t.Parallel()

	text := ""
	for _, phrase := range spamPhrases {
		text += phrase + " "
	}

	result := heuristicScore(text)

	require.InDelta(t, patternScoreCap, result.Score, 0.0001)
}

func TestHeuristicScoreUppercaseSignal(t *testing.T) {
	t.Parallel()

	lower := heuristicScore("please review my merge request when you have a moment")
	upper := heuristicScore("PLEASE REVIEW MY MERGE REQUEST WHEN YOU HAVE A MOMENT")

	require.Greater(t, upper.Score, lower.Score)
	require.False(t, upper.IsSpam)
}

func TestHeuristicScoreLinkSignal(t *testing.T) {
	t.Parallel()

	result := heuristicScore(
		"see https://a.example.com and https://b.example.com and https://c.example.com",
	)

	require.Contains(t, result.Reason, "too many links")
	require.False(t, result.IsSpam)
}
