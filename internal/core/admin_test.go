package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishimitra/assistant/internal/store"
)

func TestAdminStats(t *testing.T) {
	users := newFakeUserStore()
	require.NoError(t, users.CreateUser(&store.User{Username: "admin", FullName: "Admin"}))
	require.NoError(t, users.CreateUser(&store.User{Username: "ravi", FullName: "Ravi"}))

	history := newFakeHistory()
	require.NoError(t, history.Save("ravi", store.ChatSession{ID: "a", Timestamp: 1}))
	require.NoError(t, history.Save("ravi", store.ChatSession{ID: "b", Timestamp: 2}))
	require.NoError(t, history.Save("sita", store.ChatSession{ID: "c", Timestamp: 3}))

	svc := NewAdminService(users, history)
	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalSessions)
}
