package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alexanderramin/weekplan/internal/contract"
	"github.com/alexanderramin/weekplan/internal/llm"
	"github.com/alexanderramin/weekplan/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// lumberjack's mill goroutine outlives Close in the bootstrap tests.
		goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		// opencensus (via genai) starts its stats worker from init.
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

func decodeLines(t *testing.T, out string) []contract.PlanResponse {
	t.Helper()
	var resps []contract.PlanResponse
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var r contract.PlanResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		resps = append(resps, r)
	}
	require.NoError(t, sc.Err())
	return resps
}

// goalEcho replies with a one-item plan named after the goal in the prompt,
// sleeping longer for earlier requests so completion order is reversed.
func goalEcho(n int) func(req llm.GenerateRequest) (string, error) {
	return func(req llm.GenerateRequest) (string, error) {
		for i := 0; i < n; i++ {
			goal := fmt.Sprintf("goal-%02d", i)
			if strings.Contains(req.Prompt, goal) {
				time.Sleep(time.Duration(n-i) * time.Millisecond)
				return testutil.PlanJSON(testutil.NewTestItem(goal)), nil
			}
		}
		return "", fmt.Errorf("unexpected prompt")
	}
}

func TestBatchCmd_PreservesInputOrder(t *testing.T) {
	const n = 12
	gen := &testutil.FakeGenerator{Respond: goalEcho(n)}

	var in strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&in, `{"goal":"goal-%02d","ref_week_start":"2025-03-03"}`+"\n", i)
		if i%4 == 0 {
			in.WriteString("\n")
		}
	}

	out, err := executeCmd(t, testApp(gen), in.String(), "batch", "--workers", "4")
	require.NoError(t, err)

	resps := decodeLines(t, out)
	require.Len(t, resps, n)
	for i, resp := range resps {
		require.True(t, resp.Success, resp.Error)
		plan := outputPlan(t, resp)
		require.Len(t, plan, 1)
		assert.Equal(t, fmt.Sprintf("goal-%02d", i), plan[0]["task_name"])
	}
	assert.Equal(t, n, gen.Calls())
}

func TestBatchCmd_BadLineDoesNotStopOthers(t *testing.T) {
	gen := &testutil.FakeGenerator{Text: testutil.PlanJSON()}
	in := `{"goal":"a"}
{broken
{"goal":""}
{"goal":"b"}
`

	out, err := executeCmd(t, testApp(gen), in, "batch")
	require.NoError(t, err)

	resps := decodeLines(t, out)
	require.Len(t, resps, 4)
	assert.True(t, resps[0].Success)
	assert.Equal(t, contract.ErrorTypeInvalidRequest, resps[1].ErrorType)
	assert.Equal(t, contract.ErrorTypeInvalidRequest, resps[2].ErrorType)
	assert.True(t, resps[3].Success)
	assert.Equal(t, 2, gen.Calls())
}

func TestBatchCmd_EmptyInput(t *testing.T) {
	out, err := executeCmd(t, testApp(&testutil.FakeGenerator{}), "\n\n", "batch")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBatchCmd_InteractiveStdinIsError(t *testing.T) {
	app := testApp(&testutil.FakeGenerator{})
	app.IsInteractive = func(io.Reader) bool { return true }

	_, err := executeCmd(t, app, "", "batch")
	assert.ErrorIs(t, err, errInteractiveStdin)
}

func TestRunBatch_RespectsWorkerLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	gen := &testutil.FakeGenerator{Respond: func(llm.GenerateRequest) (string, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return testutil.PlanJSON(), nil
	}}

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = `{"goal":"x"}`
	}

	resps := runBatch(context.Background(), testApp(gen), lines, 3)
	require.Len(t, resps, 10)
	for _, r := range resps {
		require.NotNil(t, r)
		assert.True(t, r.Success, r.Error)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunBatch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &testutil.FakeGenerator{Text: testutil.PlanJSON()}
	resps := runBatch(ctx, testApp(gen), []string{`{"goal":"x"}`, `{"goal":"y"}`}, 2)

	require.Len(t, resps, 2)
	for _, r := range resps {
		assert.False(t, r.Success)
	}
}

func TestConfiguredWorkers(t *testing.T) {
	app := testApp(nil)
	app.Config.Batch.Workers = 7
	assert.Equal(t, 7, configuredWorkers(app))

	app.Config = nil
	assert.Equal(t, defaultBatchWorkers, configuredWorkers(app))
}
