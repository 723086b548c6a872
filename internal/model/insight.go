package model

import "time"

// Sentiment labels used by AI insights.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Prediction labels used by AI insights.
const (
	PredictionUp      = "UP"
	PredictionDown    = "DOWN"
	PredictionNeutral = "NEUTRAL"
)

// AIInsight is one AI-generated market sentiment/prediction record,
// usually tied to a news article. VIP gating happens in the UI layer;
// the data layer serves these unconditionally.
type AIInsight struct {
	ID         int64     `json:"id"`
	NewsID     int64     `json:"newsId"`
	Symbol     string    `json:"symbol"`
	Sentiment  string    `json:"sentiment"`
	Summary    string    `json:"summary"`
	Reasoning  string    `json:"reasoning"`
	Prediction string    `json:"prediction"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}
