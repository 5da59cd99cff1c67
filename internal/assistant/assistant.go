// Package assistant runs one user request end to end: extract a record from
// the text, resolve the address, optionally fetch nearby ways and classify
// risk, then describe the result as text messages plus a map.
//
// Both views (claim labeller and road risk expert) go through Service.Ask;
// the mode selects the extraction prompt and the steps that follow it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/claimsink"
	"github.com/fd-guo/ChatGeoPT/internal/geocode"
	"github.com/fd-guo/ChatGeoPT/internal/observability"
	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/refdata"
	"github.com/fd-guo/ChatGeoPT/internal/render"
	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

// Mode selects which view a request belongs to.
type Mode string

const (
	ModeClaim Mode = "claim"
	ModeRoad  Mode = "road"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeClaim, ModeRoad:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

var (
	// ErrEmptyInput is returned when the request text is blank.
	ErrEmptyInput = errors.New("assistant: empty input")

	// ErrUnknownMode is returned for a mode other than claim or road.
	ErrUnknownMode = errors.New("assistant: unknown mode")

	// ErrReferenceDataUnavailable is returned when a request needs a dataset
	// that was not configured.
	ErrReferenceDataUnavailable = errors.New("assistant: reference data unavailable")
)

// ─── DEPENDENCIES ─────────────────────────────────────────────────────────────

// Extractor turns user text into records. *ai.Extractor satisfies it.
type Extractor interface {
	ExtractClaim(ctx context.Context, text string) (ai.ClaimRecord, error)
	ExtractLocationTask(ctx context.Context, text string) (ai.LocationTaskRecord, error)
}

// WayFetcher returns highway ways around a point. *overpass.Client satisfies it.
type WayFetcher interface {
	FetchWays(ctx context.Context, lat, lon, radius float64) ([]overpass.WaySegment, error)
}

// WaySummaryWriter persists the latest way lookup. *store.Store satisfies it.
type WaySummaryWriter interface {
	WriteWaySummary(ways []overpass.WaySegment) error
	WaySummaryPath() string
}

// Deps are the collaborators a Service needs. Claims, Clock and Metrics are
// optional.
type Deps struct {
	Extractor      Extractor
	Geocoder       geocode.Geocoder
	Ways           WayFetcher
	Summary        WaySummaryWriter
	Data           *refdata.Data
	Claims         claimsink.Publisher
	Clock          clockwork.Clock
	Metrics        *observability.Metrics
	Logger         *slog.Logger
	RiskResolution int
}

// Service answers assistant requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	extractor Extractor
	geocoder  geocode.Geocoder
	ways      WayFetcher
	summary   WaySummaryWriter
	data      *refdata.Data
	claims    claimsink.Publisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
	riskRes   int
}

// New builds a Service from d.
func New(d Deps) *Service {
	s := &Service{
		extractor: d.Extractor,
		geocoder:  d.Geocoder,
		ways:      d.Ways,
		summary:   d.Summary,
		data:      d.Data,
		claims:    d.Claims,
		clock:     d.Clock,
		metrics:   d.Metrics,
		logger:    d.Logger,
		riskRes:   d.RiskResolution,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.claims == nil {
		s.claims = claimsink.Nop{}
	}
	if s.data == nil {
		s.data = &refdata.Data{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ─── ANSWER ───────────────────────────────────────────────────────────────────

// RiskResult is the classified neighbourhood of the address cell.
type RiskResult struct {
	Thresholds scoring.Thresholds       `json:"thresholds"`
	Cells      []scoring.CellRisk       `json:"cells"`
	Counts     map[scoring.RiskTier]int `json:"counts"`

	// Elevated holds the high and extreme cells, in Cells order.
	Elevated []scoring.CellRisk `json:"elevated"`
}

// Answer is the result of one request: the text pane and the map pane.
type Answer struct {
	ID       uuid.UUID `json:"id"`
	Mode     Mode      `json:"mode"`
	Messages []string  `json:"messages"`

	// Record is the decoded ai.ClaimRecord or ai.LocationTaskRecord.
	Record any `json:"record"`

	Location    *geocode.Location     `json:"location,omitempty"`
	Ways        []overpass.WaySegment `json:"ways,omitempty"`
	Risk        *RiskResult           `json:"risk,omitempty"`
	Map         *render.Map           `json:"map,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

func (a *Answer) say(format string, args ...any) {
	a.Messages = append(a.Messages, fmt.Sprintf(format, args...))
}

// ─── ASK ──────────────────────────────────────────────────────────────────────

// Ask runs the pipeline for mode on text.
//
// Extraction failures (ai.ErrMalformedReply) and external service failures
// (*upstream.Error) stop the request and are returned unchanged; nothing is
// retried. A geocoding miss is not an error: it yields an Answer whose
// messages say so and which has no map.
func (s *Service) Ask(ctx context.Context, mode Mode, text string) (*Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	start := s.clock.Now()
	ans := &Answer{ID: uuid.New(), Mode: mode, Messages: []string{}}

	var err error
	switch mode {
	case ModeClaim:
		err = s.labelClaim(ctx, text, ans)
	case ModeRoad:
		err = s.answerRoadQuestion(ctx, text, ans)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	ans.GeneratedAt = s.clock.Now().UTC()
	s.observe(mode, start, err)

	if err != nil {
		s.logger.Warn("assistant: request failed", "id", ans.ID, "mode", mode, "error", err)
		return nil, err
	}
	s.logger.Info("assistant: request answered",
		"id", ans.ID, "mode", mode, "messages", len(ans.Messages), "has_map", ans.Map != nil)
	return ans, nil
}

func (s *Service) observe(mode Mode, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Requests.WithLabelValues(string(mode), Outcome(err)).Inc()
	s.metrics.RequestDuration.WithLabelValues(string(mode)).Observe(s.clock.Since(start).Seconds())
}

// Outcome names the metrics outcome for err.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, ai.ErrMalformedReply) {
		return "malformed"
	}
	if _, ok := upstream.As(err); ok {
		return "upstream"
	}
	return "error"
}

// timeLLM records a chat model call's duration for task.
func (s *Service) timeLLM(task string, start time.Time) {
	if s.metrics != nil {
		s.metrics.LLMDuration.WithLabelValues(task).Observe(s.clock.Since(start).Seconds())
	}
}

// CheckReadiness reports whether the risk dataset is loaded. Coordinate, way
// and claim requests work without it; risk questions do not.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.data.Events == nil {
		return fmt.Errorf("%w: events", ErrReferenceDataUnavailable)
	}
	return nil
}

// MissingData names the reference datasets that were not loaded.
func (s *Service) MissingData() []string {
	return s.data.Missing()
}
