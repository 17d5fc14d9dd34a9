package intelligence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alexanderramin/weekplan/internal/contract"
	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/llm"
	"github.com/alexanderramin/weekplan/internal/scheduler"
	"github.com/alexanderramin/weekplan/internal/vocabulary"
)

const (
	tracerName    = "github.com/alexanderramin/weekplan/internal/intelligence"
	weeklyPlanKey = "weekly_plan"
)

// PlanService turns a goal into a de-conflicted weekly plan.
type PlanService interface {
	// Generate runs the whole pipeline. It never returns an error: every
	// outcome, including panics, is reported as a response envelope.
	Generate(ctx context.Context, req contract.PlanRequest) *contract.PlanResponse
}

// PlanServiceOptions configures NewPlanService. Zero values get defaults.
type PlanServiceOptions struct {
	Vocabulary   *vocabulary.Vocabulary
	Observer     UseCaseObserver
	Tracer       trace.Tracer
	DefaultModel string
	Now          func() time.Time
	NewID        func() string
}

type planService struct {
	gen          llm.Generator
	vocab        *vocabulary.Vocabulary
	observer     UseCaseObserver
	tracer       trace.Tracer
	defaultModel string
	now          func() time.Time
	newID        func() string
}

// NewPlanService creates a PlanService backed by gen.
func NewPlanService(gen llm.Generator, opts PlanServiceOptions) PlanService {
	s := &planService{
		gen:          gen,
		vocab:        opts.Vocabulary,
		observer:     opts.Observer,
		tracer:       opts.Tracer,
		defaultModel: opts.DefaultModel,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if s.gen == nil {
		s.gen = llm.Unavailable(nil)
	}
	if s.vocab == nil {
		s.vocab = vocabulary.Default()
	}
	if s.observer == nil {
		s.observer = NoopUseCaseObserver{}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *planService) Generate(ctx context.Context, req contract.PlanRequest) (resp *contract.PlanResponse) {
	started := time.Now()
	requestID := s.newID()
	model := domain.CoalesceStr(req.ModelName, s.defaultModel)

	ctx, span := s.tracer.Start(ctx, "plan.generate", trace.WithAttributes(
		attribute.String("weekplan.request_id", requestID),
		attribute.Int("weekplan.busy_intervals", len(req.BusyIntervals)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in plan pipeline: %v", r)
			resp = contract.NewRuntimeFailure(requestID, model, contract.ErrorTypeUnexpected, err)
		}
		if !resp.Success {
			span.SetStatus(codes.Error, resp.Error)
		}
		span.SetAttributes(attribute.String("weekplan.status", string(resp.Metadata.Status)))
		s.observe(ctx, started, resp)
	}()

	fail := func(err error) *contract.PlanResponse {
		span.RecordError(err)
		return contract.NewRuntimeFailure(requestID, model, classifyError(err), err)
	}

	if err := req.Validate(); err != nil {
		return fail(err)
	}
	anchor, err := s.anchor(req.RefWeekStart)
	if err != nil {
		return fail(err)
	}
	profile := req.EffectiveProfile()
	chronotype := profile.SchedulingChronotype()

	_, promptSpan := s.tracer.Start(ctx, "plan.build_prompt")
	prompt := BuildPrompt(profile, req.BusyIntervals, req.Goal, s.vocab)
	promptSpan.End()

	genCtx, genSpan := s.tracer.Start(ctx, "plan.llm_generate")
	genResp, err := s.gen.Generate(genCtx, llm.GenerateRequest{
		Task:   llm.TaskWeeklyPlan,
		Prompt: prompt,
		Model:  model,
	})
	if err != nil {
		genSpan.RecordError(err)
		genSpan.End()
		return fail(fmt.Errorf("generating plan: %w", err))
	}
	genSpan.End()
	model = domain.CoalesceStr(genResp.Model, model)
	raw := genResp.Text

	_, recoverSpan := s.tracer.Start(ctx, "plan.recover_json")
	obj, err := llm.Recover(raw)
	recoverSpan.End()
	if err != nil {
		return contract.NewParseFailure(requestID, model, raw)
	}

	items, hasPlan, err := decodeWeeklyPlan(obj)
	if err != nil {
		return fail(err)
	}

	_, normSpan := s.tracer.Start(ctx, "plan.normalize")
	spans, skippedIntervals := scheduler.ParseBusyIntervals(req.BusyIntervals)
	items = scheduler.Normalize(items, chronotype, s.vocab)
	normSpan.End()

	_, detectSpan := s.tracer.Start(ctx, "plan.detect_conflicts")
	before := scheduler.FindConflicts(items, spans, anchor)
	detectSpan.SetAttributes(attribute.Int("weekplan.conflicts", before.Count()))
	detectSpan.End()

	_, resolveSpan := s.tracer.Start(ctx, "plan.resolve_conflicts")
	items, rr := scheduler.ResolveAll(items, spans, anchor, chronotype, before)
	resolveSpan.SetAttributes(attribute.Int("weekplan.shifted", len(rr.Shifted)))
	resolveSpan.End()

	_, recheckSpan := s.tracer.Start(ctx, "plan.recheck_conflicts")
	after := scheduler.FindConflicts(items, spans, anchor)
	recheckSpan.SetAttributes(attribute.Int("weekplan.conflicts", after.Count()))
	recheckSpan.End()

	if hasPlan {
		encoded, err := json.Marshal(items)
		if err != nil {
			return fail(fmt.Errorf("encoding weekly_plan: %w", err))
		}
		obj[weeklyPlanKey] = encoded
	}
	output, err := json.Marshal(obj)
	if err != nil {
		return fail(fmt.Errorf("encoding output: %w", err))
	}

	return contract.NewSuccess(requestID, model, raw, output, contract.PlanStats{
		ConflictsBefore:  before.Count(),
		ConflictsAfter:   after.Count(),
		WeekStart:        scheduler.FormatDate(anchor),
		SkippedItems:     len(before.SkippedItems),
		SkippedIntervals: len(skippedIntervals),
		ShiftedItems:     len(rr.Shifted),
		UnresolvedItems:  len(rr.Unresolved),
		LatencyMs:        time.Since(started).Milliseconds(),
	})
}

func (s *planService) anchor(refWeekStart string) (time.Time, error) {
	if refWeekStart == "" {
		return scheduler.NextMonday(s.now()), nil
	}
	t, err := scheduler.ParseWeekStart(refWeekStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", contract.ErrInvalidRequest, err)
	}
	return t, nil
}

func (s *planService) observe(ctx context.Context, started time.Time, resp *contract.PlanResponse) {
	event := UseCaseEvent{
		Name:      "plan.generate",
		Duration:  time.Since(started),
		Success:   resp.Success,
		StartedAt: started,
		Fields: map[string]any{
			"request_id": resp.Metadata.RequestID,
			"model":      resp.Metadata.ModelUsed,
			"status":     string(resp.Metadata.Status),
		},
	}
	if stats := resp.Metadata.PlanStats; stats != nil {
		event.Fields["conflicts_before"] = stats.ConflictsBefore
		event.Fields["conflicts_after"] = stats.ConflictsAfter
	}
	if resp.Metadata.Status == contract.StatusError {
		event.Fields["error_type"] = string(resp.ErrorType)
		event.Err = fmt.Errorf("%s", resp.Error)
	}
	s.observer.ObserveUseCase(ctx, event)
}

// decodeWeeklyPlan extracts weekly_plan from the recovered object. A
// missing or null key is zero items, not an error.
func decodeWeeklyPlan(obj map[string]json.RawMessage) ([]domain.PlanItem, bool, error) {
	raw, ok := obj[weeklyPlanKey]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false, fmt.Errorf("%w: weekly_plan must be an array", ErrSchemaViolation)
	}

	items := make([]domain.PlanItem, len(elems))
	for i, elem := range elems {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, false, fmt.Errorf("%w: weekly_plan[%d] must be an object", ErrSchemaViolation, i)
		}
		if err := json.Unmarshal(trimmed, &items[i]); err != nil {
			return nil, false, fmt.Errorf("%w: weekly_plan[%d]: %v", ErrSchemaViolation, i, err)
		}
	}
	return items, true, nil
}
