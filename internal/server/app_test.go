package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		EndpointAddrGRPC: "127.0.0.1:0",
		PasswordHashCost: 4,
		LogLevel:         "error",
	}
}

func TestNewApp_InMemory(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.Nil(t, app.db)
	assert.NotNil(t, app.userService)
}

func TestNewApp_RejectsBadSettings(t *testing.T) {
	c := memoryConfig()
	c.LogLevel = "loud"
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)

	c = memoryConfig()
	c.PasswordHashCost = 99
	_, err = NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
