package models

import "time"

// Status labels the credibility bucket a claim landed in.
type Status string

const (
	StatusLikelyTrue   Status = "Likely True"
	StatusUnverified   Status = "Unverified"
	StatusLikelyFalse  Status = "Likely False"
	StatusNotCheckable Status = "Not Fact-Checkable"
)

// ColorTier is the coarse confidence tier reported alongside the status.
type ColorTier string

const (
	ColorHigh   ColorTier = "high"
	ColorMedium ColorTier = "medium"
	ColorLow    ColorTier = "low"
)

// Sentiment labels follow the classifier's output vocabulary.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

// Headline is one normalized entry pulled from a trusted feed. It stays
// internal to an evaluation and never crosses a wire boundary.
// A zero PublishedAt means the feed carried no publish timestamp.
type Headline struct {
	Source      string
	Title       string
	PublishedAt time.Time
}

// Sentiment is the classifier result for a piece of text. Confidence keeps
// the upstream "score" wire name to match the model server response.
type Sentiment struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"score"`
}

// Verdict is the assessment returned for one claim.
type Verdict struct {
	Score    int       `json:"score"`
	Status   Status    `json:"status"`
	Color    ColorTier `json:"color"`
	Findings []string  `json:"findings"`
}
