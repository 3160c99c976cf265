package workqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/p-blackswan/foreman/internal/errors"
)

func TestAddAssignsIDAndDefaults(t *testing.T) {
	q := New()

	item := q.Add("write release notes", PriorityMedium)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, StatePending, item.State)
	assert.Equal(t, PriorityMedium, item.Priority)
	assert.NotZero(t, item.CreatedAt)
}

func TestGetNextPriorityOrder(t *testing.T) {
	q := New()
	q.Add("low task", PriorityLow)
	q.Add("medium task", PriorityMedium)
	high := q.Add("high task", PriorityHigh)

	next, ok := q.GetNext()
	require.True(t, ok)
	assert.Equal(t, high.ID, next.ID)
}

func TestGetNextFIFOWithinPriority(t *testing.T) {
	q := New()
	first := q.Add("first", PriorityMedium)
	q.Add("second", PriorityMedium)

	next, ok := q.GetNext()
	require.True(t, ok)
	assert.Equal(t, first.ID, next.ID)

	// GetNext must not mutate; asking again yields the same item.
	again, ok := q.GetNext()
	require.True(t, ok)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, StatePending, again.State)
}

func TestGetNextSkipsNonPending(t *testing.T) {
	q := New()
	high := q.Add("high task", PriorityHigh)
	low := q.Add("low task", PriorityLow)

	require.NoError(t, q.Start(high.ID))

	next, ok := q.GetNext()
	require.True(t, ok)
	assert.Equal(t, low.ID, next.ID)

	require.NoError(t, q.Complete(high.ID, "done"))
	require.NoError(t, q.Start(low.ID))

	_, ok = q.GetNext()
	assert.False(t, ok)
}

func TestGetNextEmptyQueue(t *testing.T) {
	q := New()
	_, ok := q.GetNext()
	assert.False(t, ok)
}

func TestStartTransitions(t *testing.T) {
	q := New()
	item := q.Add("task", PriorityHigh)

	require.NoError(t, q.Start(item.ID))

	items := q.List()
	require.Len(t, items, 1)
	assert.Equal(t, StateInProgress, items[0].State)

	// Starting twice is an invalid transition.
	err := q.Start(item.ID)
	assert.True(t, ferrors.IsInvalidTransition(err))
}

func TestStartUnknownItem(t *testing.T) {
	q := New()
	err := q.Start("missing")
	assert.True(t, ferrors.IsNotFound(err))
}

func TestCompleteStoresResult(t *testing.T) {
	q := New()
	item := q.Add("task", PriorityHigh)
	require.NoError(t, q.Start(item.ID))
	require.NoError(t, q.Complete(item.ID, "merged PR #42"))

	items := q.List()
	require.Len(t, items, 1)
	assert.Equal(t, StateCompleted, items[0].State)
	assert.Equal(t, "merged PR #42", items[0].Result)
}

func TestCompleteRequiresInProgress(t *testing.T) {
	q := New()
	item := q.Add("task", PriorityLow)

	// pending → completed skips a state
	err := q.Complete(item.ID, "done")
	assert.True(t, ferrors.IsInvalidTransition(err))

	require.NoError(t, q.Start(item.ID))
	require.NoError(t, q.Complete(item.ID, "done"))

	// completed is terminal
	err = q.Complete(item.ID, "again")
	assert.True(t, ferrors.IsInvalidTransition(err))
	err = q.Start(item.ID)
	assert.True(t, ferrors.IsInvalidTransition(err))
}

func TestListPreservesInsertionOrder(t *testing.T) {
	q := New()
	a := q.Add("a", PriorityLow)
	b := q.Add("b", PriorityHigh)
	c := q.Add("c", PriorityMedium)

	items := q.List()
	require.Len(t, items, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestHasInProgress(t *testing.T) {
	q := New()
	item := q.Add("task", PriorityMedium)
	assert.False(t, q.HasInProgress())

	require.NoError(t, q.Start(item.ID))
	assert.True(t, q.HasInProgress())

	require.NoError(t, q.Complete(item.ID, "done"))
	assert.False(t, q.HasInProgress())
}

func TestCompletionRatio(t *testing.T) {
	q := New()
	assert.Equal(t, 0.0, q.CompletionRatio())

	a := q.Add("a", PriorityHigh)
	q.Add("b", PriorityHigh)
	require.NoError(t, q.Start(a.ID))
	require.NoError(t, q.Complete(a.ID, "done"))

	assert.Equal(t, 0.5, q.CompletionRatio())
}

func TestRestoreRoundTrip(t *testing.T) {
	q := New()
	a := q.Add("a", PriorityHigh)
	b := q.Add("b", PriorityLow)
	require.NoError(t, q.Start(a.ID))

	restored := New()
	restored.Restore(q.List())

	items := restored.List()
	require.Len(t, items, 2)
	assert.Equal(t, StateInProgress, items[0].State)
	assert.True(t, restored.HasInProgress())

	next, ok := restored.GetNext()
	require.True(t, ok)
	assert.Equal(t, b.ID, next.ID)
}

func TestPriorityValid(t *testing.T) {
	assert.True(t, PriorityHigh.Valid())
	assert.True(t, PriorityMedium.Valid())
	assert.True(t, PriorityLow.Valid())
	assert.False(t, Priority("urgent").Valid())
	assert.False(t, Priority("").Valid())
}
