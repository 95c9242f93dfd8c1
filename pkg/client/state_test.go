package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestState(t *testing.T) *State {
	t.Helper()
	state, err := OpenState(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })
	return state
}

func TestState_Config(t *testing.T) {
	state := openTestState(t)

	value, err := state.GetConfig("missing")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, state.SetConfig("theme", "dark"))
	value, err = state.GetConfig("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	require.NoError(t, state.SetConfig("theme", "light"))
	value, _ = state.GetConfig("theme")
	assert.Equal(t, "light", value)
}

func TestState_Endpoint(t *testing.T) {
	state := openTestState(t)

	assert.Equal(t, "", state.GetEndpoint())
	require.NoError(t, state.SetEndpoint("https://notify.run/abc"))
	assert.Equal(t, "https://notify.run/abc", state.GetEndpoint())

	assert.ErrorIs(t, state.SetEndpoint("file:///etc/passwd"), ErrInvalidEndpoint)
	assert.Equal(t, "https://notify.run/abc", state.GetEndpoint())
}

func TestState_Identity(t *testing.T) {
	state := openTestState(t)

	rec, err := state.GetIdentity("k1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	created := time.Unix(1700000000, 0)
	require.NoError(t, state.SaveIdentity(IdentityRecord{
		PushKey:        "k1",
		SubscriptionID: "dev1",
		PublicKey:      []byte{1, 2, 3},
		CreatedAt:      created,
	}))

	rec, err = state.GetIdentity("k1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "dev1", rec.SubscriptionID)
	assert.Equal(t, []byte{1, 2, 3}, rec.PublicKey)
	assert.True(t, created.Equal(rec.CreatedAt))

	other, err := state.GetIdentity("k2")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestState_Registrations(t *testing.T) {
	state := openTestState(t)

	regs, err := state.ListRegistrations()
	require.NoError(t, err)
	assert.Empty(t, regs)

	require.NoError(t, state.RecordRegistration(Registration{ChannelID: "abc", SubscriptionID: "dev1", RegisteredAt: time.Unix(100, 0)}))
	require.NoError(t, state.RecordRegistration(Registration{ChannelID: "xyz", SubscriptionID: "dev1", RegisteredAt: time.Unix(200, 0)}))
	// Re-registering the same pair replaces the row
	require.NoError(t, state.RecordRegistration(Registration{ChannelID: "abc", SubscriptionID: "dev1", RegisteredAt: time.Unix(300, 0)}))

	regs, err = state.ListRegistrations()
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "abc", regs[0].ChannelID)
	assert.Equal(t, "xyz", regs[1].ChannelID)
}

func TestState_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	state, err := OpenState(path)
	require.NoError(t, err)
	require.NoError(t, state.SetEndpoint("https://notify.run/abc"))
	require.NoError(t, state.Close())

	state, err = OpenState(path)
	require.NoError(t, err)
	defer state.Close()

	assert.Equal(t, "https://notify.run/abc", state.GetEndpoint())
	assert.Equal(t, filepath.Dir(path), state.GetStateDir())
}
