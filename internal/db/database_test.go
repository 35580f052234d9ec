package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/models"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gdb, err := Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	assert.Equal(t, "sqlite", gdb.Dialector.Name())
	require.NoError(t, Migrate(gdb))
	require.NoError(t, Ping(ctx, gdb))

	assert.True(t, gdb.Migrator().HasTable(&models.User{}))
	assert.True(t, gdb.Migrator().HasTable(&models.Task{}))
	assert.True(t, gdb.Migrator().HasIndex(&models.Task{}, "Status"))
}
