package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
)

// ── Classification ───────────────────────────────────────────────────────────

func TestClassify_NoHistoryIsSignIn(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	require.Equal(t, types.SignIn, engine.Classify(log, "Alice", at(9, 0)))
}

func TestClassify_AlternatesPerPerson(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "Bob", at(9, 0), "")
	require.NoError(t, err)
	_, err = engine.Submit(log, "Alice", at(9, 30), "")
	require.NoError(t, err)

	require.Equal(t, types.SignOut, engine.Classify(log, "Bob", at(10, 0)))
	require.Equal(t, types.SignOut, engine.Classify(log, "Alice", at(10, 0)))
	require.Equal(t, types.SignIn, engine.Classify(log, "Charlie", at(10, 0)))
}

func TestClassify_UsesPositionNotWallClock(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "Alice", at(9, 0), "")
	require.NoError(t, err)

	// Before the only event there is no history.
	require.Equal(t, types.SignIn, engine.Classify(log, "Alice", at(8, 0)))
	require.Equal(t, types.SignOut, engine.Classify(log, "Alice", at(9, 0)))
	require.Equal(t, types.SignOut, engine.Classify(log, "Alice", at(12, 0)))
}

func TestClassify_IsPure(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)
	_, err := engine.Submit(log, "Alice", at(9, 0), "")
	require.NoError(t, err)

	first := engine.Classify(log, "Alice", at(11, 0))
	second := engine.Classify(log, "Alice", at(11, 0))
	require.Equal(t, first, second)
	require.Equal(t, 1, log.Len())
}

// ── Validation ───────────────────────────────────────────────────────────────

func TestSubmit_OutBeforeFirstInIsRejected(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "Alice", at(9, 0), types.SignIn)
	require.NoError(t, err)

	_, err = engine.Submit(log, "Alice", at(8, 30), types.SignOut)
	require.ErrorIs(t, err, service.ErrInvalidSequence)

	var seqErr *service.SequenceError
	require.True(t, errors.As(err, &seqErr))
	require.Equal(t, types.SignIn, seqErr.Required)
	require.Equal(t, "Alice cannot sign OUT at 8:30 AM because they are not signed IN at that time.", err.Error())

	_, err = engine.Submit(log, "Alice", at(10, 0), types.SignOut)
	require.NoError(t, err)
	require.Equal(t, []types.Kind{types.SignIn, types.SignOut}, kinds(log.PersonEvents("Alice")))
}

func TestSubmit_DoubleSignInIsRejected(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "Bob", at(9, 0), types.SignIn)
	require.NoError(t, err)

	_, err = engine.Submit(log, "Bob", at(10, 0), types.SignIn)
	require.ErrorIs(t, err, service.ErrInvalidSequence)
	require.Contains(t, err.Error(), "already signed IN")
	require.Equal(t, 1, log.Len())
}

func TestSubmit_BackdatedInsertConflictingWithLaterEvent(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "Bob", at(9, 0), types.SignIn)
	require.NoError(t, err)
	_, err = engine.Submit(log, "Bob", at(12, 0), types.SignOut)
	require.NoError(t, err)

	// An OUT at 11:00 matches the state after 9:00 but would be followed by
	// another OUT.
	_, err = engine.Submit(log, "Bob", at(11, 0), types.SignOut)
	require.ErrorIs(t, err, service.ErrInvalidSequence)

	var seqErr *service.SequenceError
	require.True(t, errors.As(err, &seqErr))
	require.True(t, seqErr.Conflict)
	require.Equal(t, 2, log.Len())
}

func TestSubmit_BackdatedPairKeepsGlobalOrder(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "Bob", at(13, 0), "")
	require.NoError(t, err)
	_, err = engine.Submit(log, "Alice", at(8, 0), "")
	require.NoError(t, err)
	_, err = engine.Submit(log, "Alice", at(10, 0), "")
	require.NoError(t, err)

	events := log.Events()
	require.Len(t, events, 3)
	require.Equal(t, at(8, 0), events[0].Timestamp)
	require.Equal(t, at(10, 0), events[1].Timestamp)
	require.Equal(t, at(13, 0), events[2].Timestamp)
	require.Equal(t, types.SignOut, events[1].Kind)
}

func TestSubmit_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	in, err := engine.Submit(log, "Alice", at(9, 0), "")
	require.NoError(t, err)
	out, err := engine.Submit(log, "Alice", at(9, 0), "")
	require.NoError(t, err)

	require.Equal(t, types.SignIn, in.Kind)
	require.Equal(t, types.SignOut, out.Kind)

	events := log.Events()
	require.Equal(t, in.ID, events[0].ID)
	require.Equal(t, out.ID, events[1].ID)
}

func TestSubmit_RejectsBlankPersonAndBadKind(t *testing.T) {
	log := service.NewEventLog()
	engine := service.NewSignEngine(service.ScopeAll)

	_, err := engine.Submit(log, "   ", at(9, 0), "")
	require.ErrorIs(t, err, service.ErrInvalidPerson)

	_, err = engine.Submit(log, "Alice", at(9, 0), types.Kind("LUNCH"))
	require.ErrorIs(t, err, service.ErrInvalidKind)
	require.Zero(t, log.Len())
}

// ── Scope ────────────────────────────────────────────────────────────────────

func TestScopeDay_MissedSignOutDoesNotCarryOver(t *testing.T) {
	log := service.NewEventLog()
	all := service.NewSignEngine(service.ScopeAll)
	perDay := service.NewSignEngine(service.ScopeDay)

	_, err := all.Submit(log, "Diana", at(17, 0), types.SignIn)
	require.NoError(t, err)

	tomorrow := at(9, 0).AddDate(0, 0, 1)
	require.Equal(t, types.SignOut, all.Classify(log, "Diana", tomorrow))
	require.Equal(t, types.SignIn, perDay.Classify(log, "Diana", tomorrow))

	_, err = perDay.Submit(log, "Diana", tomorrow, "")
	require.NoError(t, err)
}

func TestParseScope(t *testing.T) {
	require.Equal(t, service.ScopeDay, service.ParseScope(" Day "))
	require.Equal(t, service.ScopeAll, service.ParseScope("all"))
	require.Equal(t, service.ScopeAll, service.ParseScope("weekly"))
	require.Equal(t, service.ScopeAll, service.NewSignEngine("").Scope())
}
