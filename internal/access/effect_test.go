package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateEffectsNoEntries(t *testing.T) {
	verdict := EvaluateEffects(nil, "backoffice:dashboard")
	require.False(t, verdict.Allowed)
	require.Equal(t, ReasonNoMatch, verdict.Reason)
	require.Empty(t, verdict.Matched)
}

func TestEvaluateEffectsEmptyRequiredRight(t *testing.T) {
	entries := []EffectEntry{{Right: "*", Effect: EffectAllow}}
	verdict := EvaluateEffects(entries, "   ")
	require.False(t, verdict.Allowed)
	require.Equal(t, ReasonInvalidRight, verdict.Reason)
}

func TestEvaluateEffectsAllow(t *testing.T) {
	entries := []EffectEntry{
		{Right: "admin_panel__users:write", Effect: EffectAllow},
		{Right: "admin_panel__users:read", Effect: EffectAllow},
	}
	verdict := EvaluateEffects(entries, "admin_panel__users:read")
	require.True(t, verdict.Allowed)
	require.Equal(t, ReasonAllowed, verdict.Reason)
	require.Equal(t, []int{1}, verdict.Matched)
}

func TestEvaluateEffectsDenyOverridesAllow(t *testing.T) {
	entries := []EffectEntry{
		{Right: "admin_panel__users:read", Effect: EffectAllow},
		{Right: "admin_panel__users:*", Effect: EffectDeny},
	}
	verdict := EvaluateEffects(entries, "admin_panel__users:read")
	require.False(t, verdict.Allowed)
	require.Equal(t, ReasonDenied, verdict.Reason)
	require.Equal(t, []int{1}, verdict.Matched)

	// Order must not matter.
	reversed := []EffectEntry{entries[1], entries[0]}
	verdict = EvaluateEffects(reversed, "admin_panel__users:read")
	require.False(t, verdict.Allowed)
	require.Equal(t, ReasonDenied, verdict.Reason)
}

func TestEvaluateEffectsBroadDenyBeatsSpecificAllow(t *testing.T) {
	// No most-specific-wins rule: a wildcard deny beats an exact allow.
	entries := []EffectEntry{
		{Right: "admin_panel__users:read", Effect: EffectAllow},
		{Right: "*", Effect: EffectDeny},
	}
	verdict := EvaluateEffects(entries, "admin_panel__users:read")
	require.False(t, verdict.Allowed)
	require.Equal(t, ReasonDenied, verdict.Reason)
}

func TestEvaluateEffectsSkipsEmptyRights(t *testing.T) {
	entries := []EffectEntry{
		{Right: "   ", Effect: EffectDeny},
		{Right: "backoffice:*", Effect: EffectAllow},
	}
	verdict := EvaluateEffects(entries, "backoffice:dashboard")
	require.True(t, verdict.Allowed)
	require.Equal(t, []int{1}, verdict.Matched)
}

func TestEvaluateEffectsUnrecognizedEffectCountsAsAllow(t *testing.T) {
	entries := []EffectEntry{{Right: "backoffice:*", Effect: Effect("")}}
	verdict := EvaluateEffects(entries, "backoffice:dashboard")
	require.True(t, verdict.Allowed)
	require.Equal(t, ReasonAllowed, verdict.Reason)
}
