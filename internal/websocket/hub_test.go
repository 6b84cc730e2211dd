package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garagebill/internal/common"
)

func startServer(t *testing.T, hub *Hub, ownerFor func(c echo.Context) uuid.UUID) string {
	t.Helper()
	e := echo.New()
	e.GET("/ws", hub.Handler, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if owner := ownerFor(c); owner != uuid.Nil {
				ctx := common.WithSession(c.Request().Context(), common.Session{UserID: uuid.New(), OwnerID: owner})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestPublishReachesOnlyOwner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	ownerA := uuid.New()
	ownerB := uuid.New()
	url := startServer(t, hub, func(c echo.Context) uuid.UUID {
		id, _ := uuid.Parse(c.QueryParam("owner"))
		return id
	})

	connA, _, err := gorillaws.DefaultDialer.Dial(url+"?owner="+ownerA.String(), nil)
	require.NoError(t, err)
	defer connA.Close()
	connB, _, err := gorillaws.DefaultDialer.Dial(url+"?owner="+ownerB.String(), nil)
	require.NoError(t, err)
	defer connB.Close()

	require.Eventually(t, func() bool {
		return hub.Clients(ownerA) == 1 && hub.Clients(ownerB) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(ownerA, "inventory.updated", map[string]int{"parts": 2})

	_ = connA.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := connA.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "inventory.updated", event.Type)
	assert.Equal(t, ownerA, event.OwnerID)

	_ = connB.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = connB.ReadMessage()
	assert.Error(t, err, "owner B must not receive owner A's events")
}

func TestHandlerRequiresSession(t *testing.T) {
	hub := NewHub()
	url := startServer(t, hub, func(echo.Context) uuid.UUID { return uuid.Nil })

	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestDisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	owner := uuid.New()
	url := startServer(t, hub, func(echo.Context) uuid.UUID { return owner })

	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients(owner) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients(owner) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	for i := 0; i < sendBuffer+10; i++ {
		hub.Publish(uuid.New(), "inventory.updated", nil)
	}
}
