package consts_test

import (
	"testing"

	"github.com/sitesmith-ai/sitesmith-backend/internal/application/consts"
	"github.com/stretchr/testify/require"
)

func TestTransitionTableAllowsWorkflowEdges(t *testing.T) {
	require.True(t, consts.CanTransition(consts.RequestStatusProcessing, consts.RequestStatusPendingApproval))
	require.True(t, consts.CanTransition(consts.RequestStatusPendingApproval, consts.RequestStatusApproved))
	require.True(t, consts.CanTransition(consts.RequestStatusPendingApproval, consts.RequestStatusProcessing))
}

func TestTransitionTableRejectsIllegalEdges(t *testing.T) {
	require.False(t, consts.CanTransition(consts.RequestStatusProcessing, consts.RequestStatusApproved))
	require.False(t, consts.CanTransition(consts.RequestStatusApproved, consts.RequestStatusPendingApproval))
	require.False(t, consts.CanTransition(consts.RequestStatusApproved, consts.RequestStatusProcessing))
	require.False(t, consts.CanTransition(consts.RequestStatusPendingApproval, consts.RequestStatusPendingApproval))
}

func TestApprovedIsTheOnlyTerminalStatus(t *testing.T) {
	require.True(t, consts.IsTerminal(consts.RequestStatusApproved))
	require.False(t, consts.IsTerminal(consts.RequestStatusProcessing))
	require.False(t, consts.IsTerminal(consts.RequestStatusPendingApproval))
}
