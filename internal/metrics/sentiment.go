package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// Sentiment is the label assigned to a feedback entry.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// SentimentOrder is the presentation order of labels.
var SentimentOrder = []Sentiment{Positive, Neutral, Negative}

func sentimentRank(s Sentiment) int {
	for i, v := range SentimentOrder {
		if v == s {
			return i
		}
	}
	return len(SentimentOrder)
}

// Lexicon holds the term lists used by the additive rule scorer. Terms are
// matched as case-insensitive substrings of the comment.
type Lexicon struct {
	Positive []string `json:"positive" yaml:"positive"`
	Negative []string `json:"negative" yaml:"negative"`
}

// DefaultLexicon returns the standard term lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{"love", "great", "fantastic", "game changer", "intuitive", "helped", "flawless", "super", "thanks"},
		Negative: []string{"slow", "crash", "noisy", "issue", "problem", "confusing", "friction", "hard", "broken"},
	}
}

// Score computes the additive score: +1 for rating >= 4, -1 for rating <= 2,
// +1 per positive term present, -1 per negative term present. Each term
// contributes at most once per comment.
func (l Lexicon) Score(rating int, comment string) int {
	score := 0
	if rating >= 4 {
		score++
	} else if rating <= 2 {
		score--
	}
	text := strings.ToLower(comment)
	for _, term := range l.Positive {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			score++
		}
	}
	for _, term := range l.Negative {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			score--
		}
	}
	return score
}

// Classify maps the score sign to a label.
func (l Lexicon) Classify(rating int, comment string) Sentiment {
	switch score := l.Score(rating, comment); {
	case score > 0:
		return Positive
	case score < 0:
		return Negative
	default:
		return Neutral
	}
}

// SentimentBucket is the feedback count for one month and label.
type SentimentBucket struct {
	Month     time.Time `json:"month"`
	Key       string    `json:"key"`
	Sentiment Sentiment `json:"sentiment"`
	Count     int       `json:"count"`
}

// SentimentTrend is the monthly sentiment breakdown of feedback.
type SentimentTrend struct {
	Buckets         []SentimentBucket `json:"buckets"`
	Totals          map[Sentiment]int `json:"totals"`
	Classified      int               `json:"classified"`
	DroppedFeedback int               `json:"dropped_feedback"`
}

// NegativeShare is the share of classified feedback labelled Negative.
func (t SentimentTrend) NegativeShare() float64 {
	return ratio(float64(t.Totals[Negative]), float64(t.Classified))
}

// ComputeSentimentTrend classifies each feedback entry and buckets it by the
// month of its session's start. Feedback referencing an unknown session is
// dropped and counted.
func ComputeSentimentTrend(feedback []eventstore.FeedbackEntry, idx *SessionIndex, lex Lexicon) SentimentTrend {
	type key struct {
		month time.Time
		label Sentiment
	}
	counts := make(map[key]int)
	totals := map[Sentiment]int{Positive: 0, Neutral: 0, Negative: 0}
	dropped, classified := 0, 0
	for _, fb := range feedback {
		s, ok := idx.Session(fb.SessionID)
		if !ok {
			dropped++
			continue
		}
		label := lex.Classify(fb.Rating, fb.Comments)
		counts[key{month: monthStart(s.StartTime), label: label}]++
		totals[label]++
		classified++
	}

	buckets := make([]SentimentBucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, SentimentBucket{Month: k.month, Key: k.month.Format("2006-01"), Sentiment: k.label, Count: n})
	}
	sortBuckets(buckets)
	return SentimentTrend{Buckets: buckets, Totals: totals, Classified: classified, DroppedFeedback: dropped}
}

func sortBuckets(b []SentimentBucket) {
	sort.Slice(b, func(i, j int) bool {
		if !b[i].Month.Equal(b[j].Month) {
			return b[i].Month.Before(b[j].Month)
		}
		return sentimentRank(b[i].Sentiment) < sentimentRank(b[j].Sentiment)
	})
}
