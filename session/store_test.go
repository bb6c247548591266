package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/testutil"
)

var (
	_ core.SessionStore = (*InMemoryStore)(nil)
	_ core.SessionStore = (*SQLiteStore)(nil)
)

func stores(t *testing.T) map[string]core.SessionStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]core.SessionStore{
		"memory": NewInMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_Lifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const id = "whatsapp:+5511999990000"

			_, err := store.Get(ctx, id)
			require.ErrorIs(t, err, core.ErrSessionNotFound)

			created, err := store.Create(ctx, id)
			require.NoError(t, err)
			assert.NotEmpty(t, created.ThreadID)
			assert.Empty(t, created.Transcript)

			again, err := store.Create(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, created.ThreadID, again.ThreadID)

			first := testutil.NewTranscriptBuilder("run-1").
				User("oi").
				Assistant("Triage Agent", "Olá!").
				Build()
			require.NoError(t, store.Commit(ctx, id, first, "Triage Agent"))

			second := testutil.NewTranscriptBuilder("run-2").
				User("quero simular").
				Response("Simulator Agent", "c1", "generate_financing_simulation", map[string]any{"success": true}).
				Build()
			require.NoError(t, store.Commit(ctx, id, second, "Simulator Agent"))

			sess, err := store.Get(ctx, id)
			require.NoError(t, err)
			require.Len(t, sess.Transcript, 4)
			assert.True(t, sess.Transcript.HasPrefix(core.Transcript(first)))
			assert.Equal(t, "Simulator Agent", sess.LastActiveAgent)
			assert.Equal(t, "quero simular", sess.Transcript[2].Text())
			assert.Equal(t, "generate_financing_simulation", sess.Transcript[3].FunctionResponses()[0].Name)

			require.NoError(t, store.Commit(ctx, id, nil, ""))
			sess, err = store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "Simulator Agent", sess.LastActiveAgent)

			require.NoError(t, store.Delete(ctx, id))
			_, err = store.Get(ctx, id)
			require.ErrorIs(t, err, core.ErrSessionNotFound)
		})
	}
}

func TestStore_CommitUnknownSession(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Commit(context.Background(), "nobody", []core.Turn{core.NewUserTurn("r", "oi")}, "")
			assert.ErrorIs(t, err, core.ErrSessionNotFound)
		})
	}
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, "a", []core.Turn{core.NewUserTurn("r", "oi")}, ""))

	snap, err := store.Get(ctx, "a")
	require.NoError(t, err)
	snap.Transcript[0].Author = "mutated"
	snap.Transcript = append(snap.Transcript, core.NewUserTurn("r", "extra"))

	fresh, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Len(t, fresh.Transcript, 1)
	assert.Equal(t, string(core.RoleUser), fresh.Transcript[0].Author)
}

func TestStore_Idle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Create(ctx, "a")
			require.NoError(t, err)

			idle, err := store.Idle(ctx, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Empty(t, idle)

			idle, err = store.Idle(ctx, time.Now().Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, idle)
		})
	}
}
