package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/smarttravel/itinerary-api/internal/llm"
	"github.com/smarttravel/itinerary-api/internal/types"
)

// Slot shapes, one per command family. The zero value of every field is a
// legitimate extraction result; only an unusable oracle answer is an error.

type DestinationSlots struct {
	Destination string `json:"destination"`
	Day         int    `json:"day"`
}

type SwapDaySlots struct {
	Day1 int `json:"day_1"`
	Day2 int `json:"day_2"`
}

type DaySlots struct {
	Day int `json:"day"`
}

type DayRangeSlots struct {
	StartDay int `json:"start_day"`
	EndDay   int `json:"end_day"`
}

type TripNameSlots struct {
	TripName string `json:"trip_name"`
}

type MembersSlots struct {
	Members int `json:"members"`
}

type StartDateSlots struct {
	StartDate string `json:"start_date"`
}

type EndDateSlots struct {
	EndDate string `json:"end_date"`
}

type IndexSlots struct {
	Index int `json:"index"`
}

// extractSlots runs one extraction prompt and unmarshals the cleaned answer
// strictly into T. Every failure mode, from transport to malformed JSON, maps
// to types.ErrExtractionFailed; there are no retries.
func extractSlots[T any](ctx context.Context, s *ServiceImpl, prompt string) (*T, error) {
	raw, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "extraction oracle call failed", slog.Any("error", err))
		return nil, fmt.Errorf("oracle call failed: %w", types.ErrExtractionFailed)
	}

	cleaned := CleanJSONResponse(raw)
	var slots T
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&slots); err != nil {
		s.logger.WarnContext(ctx, "extraction response did not match expected shape",
			slog.String("response", cleaned), slog.Any("error", err))
		return nil, fmt.Errorf("unusable oracle response: %w", types.ErrExtractionFailed)
	}
	return &slots, nil
}

// generate is the single funnel for oracle calls; it keeps the latency
// histogram honest regardless of which prompt is running.
func (s *ServiceImpl) generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	response, err := s.aiClient.GenerateResponse(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	})
	if s.metrics != nil {
		s.metrics.OracleLatency.WithLabelValues("gemini").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", err
	}
	text := llm.ResponseText(response)
	if text == "" {
		return "", fmt.Errorf("oracle returned an empty response")
	}
	return text, nil
}

func (s *ServiceImpl) ExtractDestination(ctx context.Context, text string) (*DestinationSlots, error) {
	return extractSlots[DestinationSlots](ctx, s, extractDestinationPrompt(text))
}

func (s *ServiceImpl) ExtractSwapDays(ctx context.Context, text string) (*SwapDaySlots, error) {
	return extractSlots[SwapDaySlots](ctx, s, extractSwapDaysPrompt(text))
}

func (s *ServiceImpl) ExtractDay(ctx context.Context, text string) (*DaySlots, error) {
	return extractSlots[DaySlots](ctx, s, extractDayPrompt(text))
}

func (s *ServiceImpl) ExtractDayRange(ctx context.Context, text string) (*DayRangeSlots, error) {
	return extractSlots[DayRangeSlots](ctx, s, extractDayRangePrompt(text))
}

func (s *ServiceImpl) ExtractTripName(ctx context.Context, text string) (*TripNameSlots, error) {
	return extractSlots[TripNameSlots](ctx, s, extractTripNamePrompt(text))
}

func (s *ServiceImpl) ExtractMembers(ctx context.Context, text string) (*MembersSlots, error) {
	return extractSlots[MembersSlots](ctx, s, extractMembersPrompt(text))
}

func (s *ServiceImpl) ExtractStartDate(ctx context.Context, text string) (*StartDateSlots, error) {
	return extractSlots[StartDateSlots](ctx, s, extractStartDatePrompt(text))
}

func (s *ServiceImpl) ExtractEndDate(ctx context.Context, text string) (*EndDateSlots, error) {
	return extractSlots[EndDateSlots](ctx, s, extractEndDatePrompt(text))
}

func (s *ServiceImpl) ExtractSavedPlanIndex(ctx context.Context, text string) (*IndexSlots, error) {
	return extractSlots[IndexSlots](ctx, s, extractIndexPrompt("saved plan", text))
}

func (s *ServiceImpl) ExtractPairIndex(ctx context.Context, text string) (*IndexSlots, error) {
	return extractSlots[IndexSlots](ctx, s, extractIndexPrompt("destination pair", text))
}
