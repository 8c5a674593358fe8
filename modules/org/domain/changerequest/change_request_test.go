package changerequest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusSubmitted, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusApproved, false},
		{StatusDraft, StatusRejected, false},
		{StatusSubmitted, StatusApproved, true},
		{StatusSubmitted, StatusRejected, true},
		{StatusSubmitted, StatusCancelled, true},
		{StatusSubmitted, StatusDraft, false},
		{StatusApproved, StatusCancelled, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusSubmitted, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	require.False(t, StatusDraft.Terminal())
	require.False(t, StatusSubmitted.Terminal())
	require.True(t, StatusApproved.Terminal())
	require.True(t, StatusRejected.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, Status("bogus").Terminal())
}

func TestNextRequestNumber(t *testing.T) {
	first, err := NextRequestNumber(2026, "")
	require.NoError(t, err)
	require.Equal(t, "ORG-2026-0001", first)

	next, err := NextRequestNumber(2026, "ORG-2026-0041")
	require.NoError(t, err)
	require.Equal(t, "ORG-2026-0042", next)

	// The sequence keeps growing past four digits.
	wide, err := NextRequestNumber(2026, "ORG-2026-9999")
	require.NoError(t, err)
	require.Equal(t, "ORG-2026-10000", wide)

	wider, err := NextRequestNumber(2026, "ORG-2026-10000")
	require.NoError(t, err)
	require.Equal(t, "ORG-2026-10001", wider)
}

func TestNextRequestNumberRejectsForeignPrefix(t *testing.T) {
	_, err := NextRequestNumber(2026, "ORG-2025-0007")
	require.Error(t, err)

	_, err = NextRequestNumber(2026, "ORG-2026-00x1")
	require.Error(t, err)
}
