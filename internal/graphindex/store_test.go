package graphindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

func ref(v int) *int { return &v }

// orderFlow is a small workflow with one dangling branch and one island:
//
//	1 -> 2 {yes: 3, no: 9(missing)}
//	3 (approval)
//	4 -> 5, 5 -> 4 (cycle nothing enters)
func orderFlow() *workflow.Workflow {
	return &workflow.Workflow{Steps: []workflow.Step{
		{ID: 1, Text: "Receive order", Type: workflow.StepAction, Next: ref(2)},
		{ID: 2, Text: "In stock?", Type: workflow.StepDecision, Branches: &workflow.Branches{Yes: ref(3), No: ref(9)}},
		{ID: 3, Text: "Ship", Type: workflow.StepAction, Approval: true},
		{ID: 4, Text: "Retry", Type: workflow.StepAction, Next: ref(5)},
		{ID: 5, Text: "Wait", Type: workflow.StepAction, Next: ref(4)},
	}}
}

// runStoreContract exercises a Store implementation. newStore must return
// an empty store with an initialised schema.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("Stats", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Load(ctx, orderFlow()))

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, &Stats{Steps: 5, Decisions: 1, Approvals: 1, Edges: 4, Dangling: 1}, st)
	})

	t.Run("Dangling", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Load(ctx, orderFlow()))

		got, err := s.Dangling(ctx)
		require.NoError(t, err)
		assert.Equal(t, []workflow.Edge{{From: 2, To: 9, Label: workflow.LabelNo}}, got)
	})

	t.Run("Successors", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Load(ctx, orderFlow()))

		got, err := s.Successors(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []workflow.Edge{{From: 2, To: 3, Label: workflow.LabelYes}}, got)

		got, err = s.Successors(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Unreachable", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Load(ctx, orderFlow()))

		got, err := s.Unreachable(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{4, 5}, got)
	})

	t.Run("UnreachableAllCyclic", func(t *testing.T) {
		s := newStore(t)
		w := &workflow.Workflow{Steps: []workflow.Step{
			{ID: 1, Text: "a", Type: workflow.StepAction, Next: ref(2)},
			{ID: 2, Text: "b", Type: workflow.StepAction, Next: ref(1)},
		}}
		require.NoError(t, s.Load(ctx, w))

		got, err := s.Unreachable(ctx)
		require.NoError(t, err)
		assert.Empty(t, got, "the first step roots a graph where every step has an incoming edge")
	})

	t.Run("LoadReplaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Load(ctx, orderFlow()))
		require.NoError(t, s.Load(ctx, workflow.New()))

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, &Stats{}, st)
		got, err := s.Unreachable(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DuplicateIDsFirstWins", func(t *testing.T) {
		s := newStore(t)
		w := &workflow.Workflow{Steps: []workflow.Step{
			{ID: 1, Text: "first", Type: workflow.StepAction},
			{ID: 1, Text: "second", Type: workflow.StepDecision},
		}}
		require.NoError(t, s.Load(ctx, w))

		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Steps)
		assert.Equal(t, 0, st.Decisions)
	})
}

func TestMemStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s := NewMemStore()
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.InitSchema(context.Background()))
		return s
	})
}

func TestOpen(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)

	_, err = Open("neo4j")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestAnalyze(t *testing.T) {
	r, err := Analyze(context.Background(), NewMemStore(), orderFlow())
	require.NoError(t, err)

	assert.False(t, r.Clean())
	assert.Equal(t, 5, r.Stats.Steps)
	assert.Equal(t, []int{4, 5}, r.Unreachable)
	require.Len(t, r.Problems, 1)
	assert.Equal(t, workflow.ProblemDanglingEdge, r.Problems[0].Kind)

	out := FormatReport(r)
	assert.Contains(t, out, "5 step(s), 1 decision(s), 1 approval(s), 4 edge(s)")
	assert.Contains(t, out, "dangling: step 2 -- No --> 9")
	assert.Contains(t, out, "unreachable: step 4")
}

func TestAnalyze_Clean(t *testing.T) {
	w := &workflow.Workflow{Steps: []workflow.Step{
		{ID: 1, Text: "a", Type: workflow.StepAction, Next: ref(2)},
		{ID: 2, Text: "b", Type: workflow.StepAction},
	}}
	r, err := Analyze(context.Background(), NewMemStore(), w)
	require.NoError(t, err)
	assert.True(t, r.Clean())
	assert.Contains(t, FormatReport(r), "no problems found")
}

func TestAnalyze_Empty(t *testing.T) {
	r, err := Analyze(context.Background(), NewMemStore(), workflow.New())
	require.NoError(t, err)
	assert.True(t, r.Clean())
	assert.Equal(t, Stats{}, r.Stats)
}
