package videoindexer

import (
	"encoding/json"
	"strings"
)

// IndexResult is the subset of the index document the audit consumes.
type IndexResult struct {
	State              string  `json:"state"`
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	DurationInSeconds  float64 `json:"durationInSeconds"`
	Videos             []Video `json:"videos"`
	SummarizedInsights struct {
		Duration json.RawMessage `json:"duration"`
	} `json:"summarizedInsights"`
}

// Video holds per-media-track insights.
type Video struct {
	State              string   `json:"state"`
	SourceLanguage     string   `json:"sourceLanguage"`
	ProcessingProgress string   `json:"processingProgress"`
	Insights           Insights `json:"insights"`
}

// Insights carries the transcript and OCR segments of one video.
type Insights struct {
	Transcript []Segment `json:"transcript"`
	OCR        []Segment `json:"ocr"`
}

// Segment is one transcript line or on-screen text block.
type Segment struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Transcript joins every transcript segment across videos with single spaces,
// in service order. Segment text is not trimmed and empty segments still
// contribute a separator.
func (r IndexResult) Transcript() string {
	var lines []string
	for _, video := range r.Videos {
		for _, segment := range video.Insights.Transcript {
			lines = append(lines, segment.Text)
		}
	}
	return strings.Join(lines, " ")
}

// OCRLines returns each on-screen text segment across videos, in service
// order, exactly as reported.
func (r IndexResult) OCRLines() []string {
	lines := []string{}
	for _, video := range r.Videos {
		for _, segment := range video.Insights.OCR {
			lines = append(lines, segment.Text)
		}
	}
	return lines
}

// Duration returns the summarized duration as reported by the service.
func (r IndexResult) Duration() any {
	if len(r.SummarizedInsights.Duration) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(r.SummarizedInsights.Duration, &value); err != nil {
		return nil
	}
	return value
}

// SourceLanguage returns the first detected source language, if any.
func (r IndexResult) SourceLanguage() string {
	for _, video := range r.Videos {
		if lang := strings.TrimSpace(video.SourceLanguage); lang != "" {
			return lang
		}
	}
	return ""
}

// Progress returns the first reported processing progress, if any.
func (r IndexResult) Progress() string {
	for _, video := range r.Videos {
		if video.ProcessingProgress != "" {
			return video.ProcessingProgress
		}
	}
	return ""
}
