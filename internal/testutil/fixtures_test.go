package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/weekplan/internal/domain"
	"github.com/alexanderramin/weekplan/internal/llm"
)

func TestNewTestItem_Options(t *testing.T) {
	item := NewTestItem("Swim",
		WithDay("Fri"),
		WithStart("evening"),
		WithDuration(30),
		WithRecurrence("weekly"),
		WithLocation("Pool"),
		WithExtra("notes", "bring goggles"),
	)

	assert.Equal(t, "Swim", item.TaskName)
	assert.Equal(t, "Fri", item.Day)
	assert.Equal(t, "evening", item.StartTime)
	assert.Equal(t, 30, item.Duration())
	assert.Equal(t, "weekly", item.Recurrence)
	require.NotNil(t, item.Location)
	assert.Equal(t, "Pool", *item.Location)
	assert.JSONEq(t, `"bring goggles"`, string(item.Extra["notes"]))

	assert.Equal(t, domain.DefaultDurationMinutes, NewTestItem("x", WithoutDuration()).Duration())
}

func TestPlanJSON(t *testing.T) {
	var doc struct {
		WeeklyPlan []domain.PlanItem `json:"weekly_plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(PlanJSON(NewTestItem("A"), NewTestItem("B"))), &doc))
	require.Len(t, doc.WeeklyPlan, 2)
	assert.Equal(t, "B", doc.WeeklyPlan[1].TaskName)

	assert.JSONEq(t, `{"weekly_plan":[]}`, PlanJSON())
}

func TestFakeGenerator_ConcurrentCalls(t *testing.T) {
	gen := &FakeGenerator{Respond: func(req llm.GenerateRequest) (string, error) {
		if req.Prompt == "fail" {
			return "", errors.New("boom")
		}
		return "ok", nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.Generate(context.Background(), llm.GenerateRequest{Prompt: "p"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, gen.Calls())

	_, err := gen.Generate(context.Background(), llm.GenerateRequest{Prompt: "fail"})
	assert.Error(t, err)

	resp, err := gen.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Model: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", resp.Model)
	assert.Equal(t, "ok", resp.Text)
}
