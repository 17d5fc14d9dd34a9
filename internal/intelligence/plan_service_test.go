package intelligence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/alexanderramin/weekplan/internal/contract"
	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/llm"
)

type mockGenerator struct {
	response string
	err      error
	panicMsg string

	mu       sync.Mutex
	requests []llm.GenerateRequest
}

func (m *mockGenerator) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Text: m.response, Model: "mock-model"}, nil
}

type captureUseCaseObserver struct {
	events []UseCaseEvent
}

func (o *captureUseCaseObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.events = append(o.events, e)
}

func newTestService(gen llm.Generator) PlanService {
	return NewPlanService(gen, PlanServiceOptions{
		DefaultModel: "default-model",
		Now:          func() time.Time { return time.Date(2025, 2, 26, 10, 0, 0, 0, time.UTC) }, // Wednesday
		NewID:        func() string { return "req-1" },
	})
}

func planRequest(chronotype domain.Chronotype, busy ...string) contract.PlanRequest {
	req := contract.NewPlanRequest("plan my week")
	req.Profile = &domain.UserProfile{Chronotype: chronotype}
	req.BusyIntervals = busy
	req.RefWeekStart = "2025-03-03"
	return req
}

func outputPlan(t *testing.T, resp *contract.PlanResponse) []map[string]any {
	t.Helper()
	var out struct {
		WeeklyPlan []map[string]any `json:"weekly_plan"`
	}
	require.NoError(t, json.Unmarshal(resp.Output, &out))
	return out.WeeklyPlan
}

func TestPlanService_NoBusyIntervalsNoConflicts(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan":[
		{"task_name":"Run","day":"Mon","start_time":"07:00","duration_minutes":45,"recurrence":"weekly"},
		{"task_name":"Read","day":"Tue","start_time":"evening","recurrence":"daily"}]}`}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	require.True(t, resp.Success, resp.Error)
	require.NotNil(t, resp.Metadata.PlanStats)
	assert.Equal(t, 0, resp.Metadata.ConflictsBefore)
	assert.Equal(t, 0, resp.Metadata.ConflictsAfter)
	assert.Equal(t, contract.StatusOK, resp.Metadata.Status)
	assert.Equal(t, "req-1", resp.Metadata.RequestID)
	assert.Equal(t, "mock-model", resp.Metadata.ModelUsed)
	assert.Equal(t, "2025-03-03", resp.Metadata.WeekStart)
}

func TestPlanService_ConflictIsShifted(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan":[{"task_name":"Run","day":"Mon","start_time":"09:00","duration_minutes":60}]}`}

	resp := newTestService(gen).Generate(context.Background(),
		planRequest(domain.ChronoNeutral, "2025-03-03T08:30:00/2025-03-03T09:30:00"))

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, 1, resp.Metadata.ConflictsBefore)
	assert.Equal(t, 0, resp.Metadata.ConflictsAfter)
	assert.Equal(t, 1, resp.Metadata.ShiftedItems)

	plan := outputPlan(t, resp)
	require.Len(t, plan, 1)
	assert.NotEqual(t, "09:00", plan[0]["start_time"])
	assert.Equal(t, "10:00", plan[0]["start_time"])
}

func TestPlanService_VagueTimeResolvedByChronotype(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan":[{"task_name":"Read","day":"wednesday","start_time":"evening"}]}`}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoEvening))

	require.True(t, resp.Success, resp.Error)
	plan := outputPlan(t, resp)
	require.Len(t, plan, 1)
	assert.Equal(t, "19:00", plan[0]["start_time"])
	assert.Equal(t, "Wed", plan[0]["day"])
	assert.Equal(t, float64(60), plan[0]["duration_minutes"])
}

func TestPlanService_ChronotypeMatchedCaseInsensitively(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan":[{"task_name":"Read","day":"Wed","start_time":"evening"}]}`}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.Chronotype("Morning")))

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "18:00", outputPlan(t, resp)[0]["start_time"])
	require.Len(t, gen.requests, 1)
	assert.Contains(t, gen.requests[0].Prompt, `"chronotype": "Morning"`)
}

func TestPlanService_MissingWeeklyPlanIsSuccess(t *testing.T) {
	gen := &mockGenerator{response: `Here you go: {"summary": "rest this week"}`}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, 0, resp.Metadata.ConflictsBefore)
	assert.Equal(t, 0, resp.Metadata.ConflictsAfter)
	assert.JSONEq(t, `{"summary": "rest this week"}`, string(resp.Output))
}

func TestPlanService_NullWeeklyPlanKeptAsIs(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan": null}`}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	require.True(t, resp.Success, resp.Error)
	assert.JSONEq(t, `{"weekly_plan": null}`, string(resp.Output))
}

func TestPlanService_ExtraFieldsSurvive(t *testing.T) {
	gen := &mockGenerator{response: "```json\n{'weekly_plan': [{'task_name': 'Gym', 'day': 'Fri', 'start_time': '18:00', 'notes': 'bring towel', 'location': 'Downtown',}], 'tips': ['hydrate'],}\n```"}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	require.True(t, resp.Success, resp.Error)
	plan := outputPlan(t, resp)
	require.Len(t, plan, 1)
	assert.Equal(t, "bring towel", plan[0]["notes"])
	assert.Equal(t, "Downtown", plan[0]["location"])

	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Output, &out))
	assert.Equal(t, []any{"hydrate"}, out["tips"])
}

func TestPlanService_ItemKeysWrittenAsReceived(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan":[{"task_name":"Gym","day":"Mon","start_time":"09:00","duration_minutes":60,"location":null}]}`}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	require.True(t, resp.Success, resp.Error)
	assert.JSONEq(t,
		`{"weekly_plan":[{"task_name":"Gym","day":"Mon","start_time":"09:00","duration_minutes":60,"location":null}]}`,
		string(resp.Output))
}

func TestPlanService_ParseFailure(t *testing.T) {
	gen := &mockGenerator{response: "I could not come up with a plan."}

	resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	assert.False(t, resp.Success)
	assert.Equal(t, contract.ParseFailureMessage, resp.Error)
	require.NotNil(t, resp.RawOutput)
	assert.Equal(t, "I could not come up with a plan.", *resp.RawOutput)
	assert.Equal(t, contract.StatusInvalidJSON, resp.Metadata.Status)
	assert.Nil(t, resp.Metadata.PlanStats)
}

func TestPlanService_SchemaViolation(t *testing.T) {
	for _, body := range []string{`{"weekly_plan": "none"}`, `{"weekly_plan": [1, 2]}`} {
		gen := &mockGenerator{response: body}

		resp := newTestService(gen).Generate(context.Background(), planRequest(domain.ChronoNeutral))

		assert.False(t, resp.Success, body)
		assert.Equal(t, contract.ErrorTypeSchemaViolation, resp.ErrorType, body)
		assert.Equal(t, contract.StatusError, resp.Metadata.Status, body)
	}
}

func TestPlanService_GeneratorErrorsClassified(t *testing.T) {
	cases := map[error]contract.ErrorType{
		llm.ErrTimeout:               contract.ErrorTypeGenerationTimeout,
		llm.ErrGenerationUnavailable: contract.ErrorTypeGenerationUnavailable,
		llm.ErrRetryExhausted:        contract.ErrorTypeGenerationUnavailable,
		assert.AnError:               contract.ErrorTypeUnexpected,
	}
	for genErr, want := range cases {
		resp := newTestService(&mockGenerator{err: genErr}).Generate(context.Background(), planRequest(domain.ChronoNeutral))

		assert.False(t, resp.Success)
		assert.Equal(t, want, resp.ErrorType, genErr.Error())
		assert.Equal(t, "default-model", resp.Metadata.ModelUsed)
		assert.Equal(t, resp.Error, resp.Metadata.Error)
	}
}

func TestPlanService_InvalidRequestSkipsGeneration(t *testing.T) {
	gen := &mockGenerator{response: `{}`}
	svc := newTestService(gen)

	resp := svc.Generate(context.Background(), contract.NewPlanRequest(""))
	assert.Equal(t, contract.ErrorTypeInvalidRequest, resp.ErrorType)

	req := planRequest(domain.ChronoNeutral)
	req.RefWeekStart = "soon"
	resp = svc.Generate(context.Background(), req)
	assert.Equal(t, contract.ErrorTypeInvalidRequest, resp.ErrorType)

	assert.Empty(t, gen.requests)
}

func TestPlanService_PanicRecovered(t *testing.T) {
	resp := newTestService(&mockGenerator{panicMsg: "boom"}).Generate(context.Background(), planRequest(domain.ChronoNeutral))

	assert.False(t, resp.Success)
	assert.Equal(t, contract.ErrorTypeUnexpected, resp.ErrorType)
	assert.Contains(t, resp.Error, "boom")
}

func TestPlanService_DefaultsAnchorAndModel(t *testing.T) {
	gen := &mockGenerator{response: `{"weekly_plan": []}`}
	req := contract.NewPlanRequest("plan my week")

	resp := newTestService(gen).Generate(context.Background(), req)

	require.True(t, resp.Success, resp.Error)
	// Now is Wednesday 2025-02-26; next Monday is 2025-03-03.
	assert.Equal(t, "2025-03-03", resp.Metadata.WeekStart)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, "default-model", gen.requests[0].Model)
	assert.Equal(t, llm.TaskWeeklyPlan, gen.requests[0].Task)
	assert.Contains(t, gen.requests[0].Prompt, `"chronotype": "neutral"`)
}

func TestPlanService_RequestModelOverridesDefault(t *testing.T) {
	gen := &mockGenerator{response: `{}`}
	req := planRequest(domain.ChronoNeutral)
	req.ModelName = "custom"

	newTestService(gen).Generate(context.Background(), req)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, "custom", gen.requests[0].Model)
}

func TestPlanService_RecordsStageSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	svc := NewPlanService(&mockGenerator{response: `{"weekly_plan": []}`}, PlanServiceOptions{
		Tracer: provider.Tracer("test"),
	})
	resp := svc.Generate(context.Background(), planRequest(domain.ChronoNeutral))
	require.True(t, resp.Success, resp.Error)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	for _, want := range []string{
		"plan.generate", "plan.build_prompt", "plan.llm_generate", "plan.recover_json",
		"plan.normalize", "plan.detect_conflicts", "plan.resolve_conflicts", "plan.recheck_conflicts",
	} {
		assert.Contains(t, names, want)
	}
}

func TestPlanService_ObserverReceivesEvent(t *testing.T) {
	obs := &captureUseCaseObserver{}
	svc := NewPlanService(&mockGenerator{err: llm.ErrTimeout}, PlanServiceOptions{Observer: obs})

	svc.Generate(context.Background(), planRequest(domain.ChronoNeutral))

	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, "GenerationTimeout", obs.events[0].Fields["error_type"])
	assert.Error(t, obs.events[0].Err)
}

// TestPlanService_WithOllamaHTTPServer exercises the HTTP path end to end:
// httptest server, Ollama generator, recovery and scheduling.
func TestPlanService_WithOllamaHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, strings.Contains(body.Prompt, "BUSY_INTERVALS:"))

		// Echo the prompt back first, as some chat models do.
		json.NewEncoder(w).Encode(map[string]any{
			"model":    "test-model",
			"response": body.Prompt + "\n{\"weekly_plan\":[{\"task_name\":\"Run\",\"day\":\"Mon\",\"start_time\":\"morning\"}]}",
		})
	}))
	defer srv.Close()

	cfg := llm.DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.Model = "test-model"
	cfg.TimeoutMs = 2000

	svc := newTestService(llm.NewOllamaClient(cfg, llm.NoopObserver{}))
	resp := svc.Generate(context.Background(), planRequest(domain.ChronoMorning, "2025-03-03T07:00/2025-03-03T07:30"))

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "test-model", resp.Metadata.ModelUsed)
	assert.Equal(t, 1, resp.Metadata.ConflictsBefore)
	assert.Equal(t, 0, resp.Metadata.ConflictsAfter)
	plan := outputPlan(t, resp)
	require.Len(t, plan, 1)
	// Morning window starts at 07:00 for morning people; 06:00 is the first free hour.
	assert.Equal(t, "06:00", plan[0]["start_time"])
}
