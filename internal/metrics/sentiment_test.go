package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicon_Classify(t *testing.T) {
	lex := DefaultLexicon()
	tests := []struct {
		name    string
		rating  int
		comment string
		want    Sentiment
	}{
		{"high rating and praise", 5, "Love the new dashboard", Positive},
		{"middle rating no terms", 3, "", Neutral},
		{"low rating offset by praise", 1, "great idea", Neutral},
		{"complaints only", 3, "Slow and it will crash", Negative},
		{"case insensitive", 3, "GREAT", Positive},
		{"phrase term", 3, "this is a game changer", Positive},
		{"repeated term counts once", 2, "great great great", Neutral},
		{"mixed cancels", 3, "intuitive but slow", Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lex.Classify(tt.rating, tt.comment))
		})
	}
}

func TestLexicon_CustomTerms(t *testing.T) {
	lex := Lexicon{Positive: []string{"shiny"}, Negative: []string{"meh"}}
	assert.Equal(t, Positive, lex.Classify(3, "so shiny"))
	assert.Equal(t, Negative, lex.Classify(3, "meh"))
	assert.Equal(t, Neutral, lex.Classify(3, "love it"))
}

func TestComputeSentimentTrend(t *testing.T) {
	ds := smallDataset()
	trend := ComputeSentimentTrend(ds.Feedback, NewIndex(ds.Sessions), DefaultLexicon())

	assert.Equal(t, 1, trend.DroppedFeedback)
	assert.Equal(t, 3, trend.Classified)
	require.Len(t, trend.Buckets, 3)
	assert.Equal(t, SentimentBucket{Month: monthStart(day(0)), Key: "2024-01", Sentiment: Positive, Count: 1}, trend.Buckets[0])
	assert.Equal(t, Negative, trend.Buckets[1].Sentiment)
	assert.Equal(t, "2024-02", trend.Buckets[2].Key)
	assert.Equal(t, Neutral, trend.Buckets[2].Sentiment)
	assert.Equal(t, map[Sentiment]int{Positive: 1, Neutral: 1, Negative: 1}, trend.Totals)
	assert.InDelta(t, 1.0/3.0, trend.NegativeShare(), 1e-12)
}

func TestComputeSentimentTrend_Empty(t *testing.T) {
	trend := ComputeSentimentTrend(nil, NewIndex(nil), DefaultLexicon())
	assert.Empty(t, trend.Buckets)
	assert.Zero(t, trend.NegativeShare())
}
