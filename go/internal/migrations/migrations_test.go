package migrations

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllOrdered(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "0001_minigame_sessions", all[0].Version)
	require.Equal(t, "0002_player_rewards", all[1].Version)
	require.Equal(t, "0003_session_outbox", all[2].Version)
	require.Contains(t, all[0].SQL, "UNIQUE (user_id, minigame_id)")
	require.Contains(t, all[2].SQL, "pg_notify('session_outbox_events'")
}
