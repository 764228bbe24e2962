package minigamev1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecAcceptsEmptyBody(t *testing.T) {
	var req ListSessionsRequest
	require.NoError(t, Codec{}.Unmarshal(nil, &req))
	require.NoError(t, Codec{}.Unmarshal([]byte("  \n"), &req))
}

func TestCodecFlattensSessionState(t *testing.T) {
	data, err := Codec{}.Marshal(&StartSessionResponse{SessionState: SessionState{
		MinigameID:       "M4",
		RemainingSeconds: 120,
		TriesLeft:        3,
	}})
	require.NoError(t, err)
	require.JSONEq(t, `{"minigameId":"M4","remainingSeconds":120,"triesLeft":3,"completed":false,"score":0,"rewardClaimed":false}`, string(data))

	var out GetSessionStateResponse
	require.NoError(t, Codec{}.Unmarshal(data, &out))
	require.Equal(t, "M4", out.MinigameID)
	require.EqualValues(t, 3, out.TriesLeft)
}

func TestCodecOmitsEffectsWhenAlreadyClaimed(t *testing.T) {
	data, err := Codec{}.Marshal(&ClaimRewardResponse{Score: 75, RewardClaimed: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"score":75,"rewardClaimed":true}`, string(data))
}

func TestCodecRejectsMalformedJSON(t *testing.T) {
	var req StartSessionRequest
	require.Error(t, Codec{}.Unmarshal([]byte(`{"minigameId":`), &req))
}
