package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/smarttravel/itinerary-api/internal/catalog"
	"github.com/smarttravel/itinerary-api/internal/domain/itinerary"
	"github.com/smarttravel/itinerary-api/internal/llm"
	"github.com/smarttravel/itinerary-api/internal/types"
	"github.com/smarttravel/itinerary-api/pkg/observability"
)

// Responses for instructions that match no command. These are not catalog
// entries because "unknown" is not a dispatchable command.
const (
	unknownResponseEN = "Sorry, I didn't understand that instruction."
	unknownResponseVI = "Xin lỗi, tôi không hiểu yêu cầu đó."
)

var _ Service = (*ServiceImpl)(nil)

// Service turns free-text travel instructions into executed commands.
type Service interface {
	Classify(ctx context.Context, text string) (types.CommandID, error)
	Process(ctx context.Context, req Request) (*types.CommandResult, error)
}

// Request is one instruction together with the caller's itinerary snapshot.
// CurrentDay is the day the user is looking at; commands that say "this day"
// apply to it.
type Request struct {
	Text       string          `json:"text"`
	Itinerary  types.Itinerary `json:"itinerary"`
	CurrentDay int             `json:"current_day,omitempty"`
}

type ServiceImpl struct {
	logger      *slog.Logger
	aiClient    llm.ChatClient
	catalog     *catalog.Catalog
	itineraries itinerary.Service
	metrics     *observability.Metrics
	matcher     a.AhoCorasick
}

func NewServiceImpl(aiClient llm.ChatClient, cat *catalog.Catalog, itineraries itinerary.Service, metrics *observability.Metrics, logger *slog.Logger) *ServiceImpl {
	builder := a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
	})
	return &ServiceImpl{
		logger:      logger,
		aiClient:    aiClient,
		catalog:     cat,
		itineraries: itineraries,
		metrics:     metrics,
		matcher:     builder.Build(cat.Paraphrases()),
	}
}

// Classify maps an instruction onto a command identifier. Instructions that
// literally state a catalog paraphrase never reach the oracle; everything the
// oracle cannot place, including its own failures, classifies as
// CommandUnknown rather than an error.
func (s *ServiceImpl) Classify(ctx context.Context, text string) (types.CommandID, error) {
	ctx, span := otel.Tracer("AssistantService").Start(ctx, "Classify")
	defer span.End()

	// An instruction that is exactly a paraphrase is decided without the oracle.
	if id := s.catalog.IdentifierFor(text); id != types.CommandUnknown {
		span.SetStatus(codes.Ok, "Classified by exact paraphrase")
		return id, nil
	}

	// Next cheapest: the instruction contains exactly one paraphrase as a
	// whole phrase.
	if id := s.matchContainedParaphrase(text); id != types.CommandUnknown {
		span.SetStatus(codes.Ok, "Classified by contained paraphrase")
		return id, nil
	}

	id, err := s.classifyWithOracle(ctx, text)
	if err != nil {
		if !errors.Is(err, types.ErrClassificationUnknown) {
			s.logger.WarnContext(ctx, "classification oracle call failed", slog.Any("error", err))
			span.RecordError(err)
		}
		span.SetStatus(codes.Ok, "Classified as unknown")
		return types.CommandUnknown, nil
	}

	span.SetAttributes(attribute.String("command.id", string(id)))
	span.SetStatus(codes.Ok, "Classified by oracle")
	return id, nil
}

// classifyWithOracle asks the oracle to restate the instruction as one of the
// catalog paraphrases. An answer that maps to no command, including a
// confessed "unknown" or malformed JSON, wraps ErrClassificationUnknown so
// callers can tell "not a command" apart from an oracle outage.
func (s *ServiceImpl) classifyWithOracle(ctx context.Context, text string) (types.CommandID, error) {
	raw, err := s.generate(ctx, classificationPrompt(s.catalog.Paraphrases(), text))
	if err != nil {
		return types.CommandUnknown, fmt.Errorf("classification oracle call failed: %w", err)
	}

	var answer struct {
		Paraphrase string `json:"paraphrase"`
	}
	if err := json.Unmarshal([]byte(CleanJSONResponse(raw)), &answer); err != nil {
		return types.CommandUnknown, fmt.Errorf("classification answer %q was not valid JSON: %w", raw, types.ErrClassificationUnknown)
	}

	id := s.catalog.IdentifierFor(answer.Paraphrase)
	if id == types.CommandUnknown {
		return types.CommandUnknown, fmt.Errorf("oracle answer %q matches no paraphrase: %w", answer.Paraphrase, types.ErrClassificationUnknown)
	}
	return id, nil
}

// matchContainedParaphrase scans the instruction for whole-phrase paraphrase
// occurrences. The match only counts when it is unambiguous.
func (s *ServiceImpl) matchContainedParaphrase(text string) types.CommandID {
	lower := strings.ToLower(text)
	matches := s.matcher.FindAll(lower)
	if len(matches) == 0 {
		return types.CommandUnknown
	}

	found := types.CommandUnknown
	for _, match := range matches {
		id := s.catalog.IdentifierFor(lower[match.Start():match.End()])
		if id == types.CommandUnknown {
			continue
		}
		if found != types.CommandUnknown && found != id {
			// Two different commands matched; let the oracle decide.
			return types.CommandUnknown
		}
		found = id
	}
	return found
}

// Process classifies, extracts, and executes one instruction. Domain failures
// come back as an error-outcome result with the catalog's localized error
// templates; only infrastructure faults surface as Go errors.
func (s *ServiceImpl) Process(ctx context.Context, req Request) (*types.CommandResult, error) {
	ctx, span := otel.Tracer("AssistantService").Start(ctx, "Process", trace.WithAttributes(
		attribute.Int("itinerary.days", len(req.Itinerary.Days)),
	))
	defer span.End()

	id, err := s.Classify(ctx, req.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Classification failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("command.id", string(id)))

	if id == types.CommandUnknown {
		s.recordCommand(id, types.OutcomeNoCommand)
		span.SetStatus(codes.Ok, "No command matched")
		return &types.CommandResult{
			Command:    types.CommandUnknown,
			Outcome:    types.OutcomeNoCommand,
			ResponseEN: unknownResponseEN,
			ResponseVI: unknownResponseVI,
		}, nil
	}

	def, ok := s.catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("command %q classified but missing from catalog", id)
	}

	result, err := s.dispatch(ctx, id, req)
	if err != nil {
		if isDomainError(err) {
			s.logger.InfoContext(ctx, "command failed on its input",
				slog.String("command", string(id)), slog.Any("error", err))
			s.recordCommand(id, types.OutcomeError)
			span.SetStatus(codes.Ok, "Command rejected its input")
			return &types.CommandResult{
				Command:    id,
				Outcome:    types.OutcomeError,
				ResponseEN: def.ResponseErrorEN,
				ResponseVI: def.ResponseErrorVI,
			}, nil
		}
		s.recordCommand(id, types.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Command execution failed")
		return nil, err
	}

	result.Command = id
	switch result.Outcome {
	case types.OutcomeAmbiguous, types.OutcomeError:
		result.ResponseEN = def.ResponseErrorEN
		result.ResponseVI = def.ResponseErrorVI
	default:
		result.Outcome = types.OutcomeSuccess
		result.ResponseEN = def.ResponseSuccessEN
		result.ResponseVI = def.ResponseSuccessVI
	}
	s.recordCommand(id, result.Outcome)
	span.SetStatus(codes.Ok, "Command processed")
	return result, nil
}

func (s *ServiceImpl) dispatch(ctx context.Context, id types.CommandID, req Request) (*types.CommandResult, error) {
	switch id {
	case types.CommandCreateItinerary:
		slots, err := s.ExtractTripName(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		name := slots.TripName
		if name == "" {
			name = "My trip"
		}
		fresh := types.Itinerary{Name: name, Days: []types.Day{{Number: 1}}}
		return &types.CommandResult{Itinerary: &fresh}, nil

	case types.CommandUpdateTripName:
		slots, err := s.ExtractTripName(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.UpdateTripName(ctx, req.Itinerary, slots.TripName)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandUpdateMembers:
		slots, err := s.ExtractMembers(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.UpdateMembers(ctx, req.Itinerary, slots.Members)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandUpdateStartDate:
		slots, err := s.ExtractStartDate(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.UpdateStartDate(ctx, req.Itinerary, slots.StartDate)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandUpdateEndDate:
		slots, err := s.ExtractEndDate(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.UpdateEndDate(ctx, req.Itinerary, slots.EndDate)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandSwapDay:
		slots, err := s.ExtractSwapDays(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.SwapDays(ctx, req.Itinerary, slots.Day1, slots.Day2)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandAddDayAfter:
		slots, err := s.ExtractDay(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.AddDayAfter(ctx, req.Itinerary, slots.Day)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandDeleteDayRange:
		slots, err := s.ExtractDayRange(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		updated, err := s.itineraries.DeleteDayRange(ctx, req.Itinerary, slots.StartDay, slots.EndDay)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandAddDestination:
		return s.addDestination(ctx, req, false)

	case types.CommandConfirmAddDestination:
		return s.addDestination(ctx, req, true)

	case types.CommandDeleteCurrentDay:
		updated, err := s.itineraries.DeleteDay(ctx, req.Itinerary, req.CurrentDay)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandDeleteAllDays:
		updated, err := s.itineraries.DeleteAllDays(ctx, req.Itinerary)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Itinerary: &updated}, nil

	case types.CommandDeleteSavedPlan:
		slots, err := s.ExtractSavedPlanIndex(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Payload: map[string]any{"plan_index": slots.Index}}, nil

	case types.CommandFindRouteOfPair:
		slots, err := s.ExtractPairIndex(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		return &types.CommandResult{Payload: map[string]any{"pair_index": slots.Index}}, nil

	case types.CommandDeleteCurrentPlan, types.CommandViewAllDays,
		types.CommandExtendMapView, types.CommandCollapseMapView:
		// UI-side actions: no itinerary edit, the caller reacts to the command.
		return &types.CommandResult{}, nil

	default:
		return nil, fmt.Errorf("no dispatch target for command %q", id)
	}
}

// addDestination runs both insert paths. Confirmation repeats only the
// duplicate check; the first attempt can come back ambiguous and await an
// explicit confirm command.
func (s *ServiceImpl) addDestination(ctx context.Context, req Request, confirmed bool) (*types.CommandResult, error) {
	slots, err := s.ExtractDestination(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	day := slots.Day
	if day == 0 {
		day = req.CurrentDay
	}
	if day == 0 {
		day = 1
	}

	var (
		updated types.Itinerary
		verdict types.ConflictVerdict
	)
	if confirmed {
		updated, verdict, err = s.itineraries.ConfirmDestination(ctx, req.Itinerary, day, slots.Destination)
	} else {
		updated, verdict, err = s.itineraries.AddDestination(ctx, req.Itinerary, day, slots.Destination)
	}
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"verdict":     string(verdict.State),
		"destination": verdict.Candidate.Name,
		"day":         day,
	}
	switch verdict.State {
	case types.ConflictDuplicate:
		return &types.CommandResult{Outcome: types.OutcomeError, Payload: payload}, nil
	case types.ConflictAmbiguous:
		return &types.CommandResult{Outcome: types.OutcomeAmbiguous, Payload: payload}, nil
	default:
		return &types.CommandResult{Itinerary: &updated, Payload: payload}, nil
	}
}

func (s *ServiceImpl) recordCommand(id types.CommandID, outcome types.CommandOutcome) {
	if s.metrics != nil {
		s.metrics.CommandsTotal.WithLabelValues(string(id), string(outcome)).Inc()
	}
}

// isDomainError separates "the instruction was unusable" from "something is
// broken". Only the former gets a polite templated answer.
func isDomainError(err error) bool {
	return errors.Is(err, types.ErrExtractionFailed) ||
		errors.Is(err, types.ErrBadRequest) ||
		errors.Is(err, types.ErrPlaceNotFound)
}
