package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name, label string
	res         Result
	panics      bool
	runs        int
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Label() string { return f.label }

func (f *fakeSource) Run(ctx context.Context) Result {
	f.runs++
	if f.panics {
		panic("parser exploded")
	}
	return f.res
}

func TestRunAllIsolatesFailures(t *testing.T) {
	gov := &fakeSource{name: "gov", label: "政府新聞", res: Result{Success: false, Error: "unexpected status 503"}}
	rthk := &fakeSource{name: "rthk", label: "RTHK 新聞", panics: true}
	extra := &fakeSource{name: "extra", label: "其他", res: Result{Success: true, Message: "沒有找到相關的新聞"}}

	r := NewRunner(nil, gov, rthk, extra)
	results := r.RunAll(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, "gov", results[0].Source)
	assert.False(t, results[0].Success)
	assert.Equal(t, "rthk", results[1].Source)
	assert.Contains(t, results[1].Error, "parser exploded")
	assert.True(t, results[2].Success)
	assert.Equal(t, "其他", results[2].Label)
	assert.Equal(t, 1, extra.runs)
	assert.Equal(t, 1, ExitCode(results))
}

func TestRunSource(t *testing.T) {
	gov := &fakeSource{name: "gov", label: "政府新聞", res: Result{Success: true}}
	rthk := &fakeSource{name: "rthk", label: "RTHK 新聞", res: Result{Success: true}}
	r := NewRunner(nil, gov, rthk)

	assert.Equal(t, []string{"gov", "rthk"}, r.Sources())

	res, err := r.RunSource(context.Background(), "rthk")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, gov.runs)
	assert.Equal(t, 1, rthk.runs)

	_, err = r.RunSource(context.Background(), "weibo")
	assert.True(t, errors.Is(err, ErrUnknownSource))
}

func TestPrintSummaryAndExitCode(t *testing.T) {
	results := []Result{
		{Label: "政府新聞", Success: true, Message: "處理完成: 新增 2 條公告，共處理 3 條新聞"},
		{Label: "RTHK 新聞", Success: false, Error: "timeout"},
	}
	var buf bytes.Buffer
	PrintSummary(&buf, results)

	out := buf.String()
	assert.Contains(t, out, "執行總結")
	assert.Contains(t, out, "✅ 政府新聞: 處理完成: 新增 2 條公告，共處理 3 條新聞")
	assert.Contains(t, out, "❌ RTHK 新聞: timeout")

	assert.Equal(t, 1, ExitCode(results))
	assert.Equal(t, 0, ExitCode(results[:1]))
	assert.Equal(t, 0, ExitCode(nil))
}
