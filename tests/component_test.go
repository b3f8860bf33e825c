package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"valet/entity"
	"valet/pubsub"
	"valet/service"
)

const httpAddress = ":8080"

type ticketEnvelope struct {
	OK        bool          `json:"ok"`
	Duplicate bool          `json:"duplicate"`
	Ticket    entity.Ticket `json:"ticket"`
}

type ticketsEnvelope struct {
	OK      bool            `json:"ok"`
	Tickets []entity.Ticket `json:"tickets"`
}

type alertsEnvelope struct {
	OK        bool            `json:"ok"`
	Requested []entity.Ticket `json:"requested"`
	Ready     []entity.Ticket `json:"ready"`
}

type notificationsEnvelope struct {
	OK            bool                  `json:"ok"`
	Notifications []entity.Notification `json:"notifications"`
}

type errorEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func TestComponent(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("github.com/testcontainers/testcontainers-go.(*Reaper).Connect.func1"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbconn, err := sqlx.Open("postgres", postgresURL)
	require.NoError(t, err)
	defer dbconn.Close()

	redisClient := pubsub.NewRedisClient(redisURL)
	defer redisClient.Close()

	finished := make(chan struct{})
	go func() {
		svc := service.New(httpAddress, dbconn, redisClient)
		assert.NoError(t, svc.Run(ctx))
		close(finished)
	}()
	defer func() {
		cancel()
		<-finished
	}()

	waitForHttpServer(t)

	code := uuid.NewString()[:8]

	// check in
	entry := postTicket(t, "/api/entry", map[string]any{
		"ticketCode":   code,
		"licensePlate": "xyz999",
		"media": []map[string]string{
			{"type": "photo", "url": "file://front.jpg"},
			{"type": "video", "url": "file://walkaround.mp4"},
		},
	})
	require.True(t, entry.OK)
	require.False(t, entry.Duplicate)
	assert.Equal(t, "XYZ999", entry.Ticket.LicensePlate)
	assert.Equal(t, entity.StatusParked, entry.Ticket.Status)
	assert.Len(t, entry.Ticket.MediaItems, 2)

	// a second scan of the same code returns the same ticket, no new row
	again := postTicket(t, "/api/entry", map[string]any{
		"ticketCode":   code,
		"licensePlate": "other",
	})
	require.True(t, again.OK)
	assert.True(t, again.Duplicate)
	assert.Equal(t, entry.Ticket.ID, again.Ticket.ID)

	// request checkout
	requested := postTicket(t, "/api/checkout/request", map[string]any{
		"ticketId": entry.Ticket.ID,
	})
	require.True(t, requested.OK)
	assert.Equal(t, entity.StatusRequested, requested.Ticket.Status)
	require.NotNil(t, requested.Ticket.RequestedTime)

	assertAlertsPartition(t, entry.Ticket.ID, entity.StatusRequested)
	assertNotificationStored(t, entry.Ticket.ID, entity.NotificationExitRequested)

	// prepare and hand over
	ready := postTicket(t, fmt.Sprintf("/api/tickets/%s/ready", entry.Ticket.ID), map[string]any{
		"attendantName": "Ana",
	})
	require.True(t, ready.OK)
	assert.Equal(t, entity.StatusReady, ready.Ticket.Status)

	assertAlertsPartition(t, entry.Ticket.ID, entity.StatusReady)

	delivered := postTicket(t, fmt.Sprintf("/api/tickets/%s/delivered", entry.Ticket.ID), map[string]any{
		"attendantName": "Ana",
	})
	require.True(t, delivered.OK)
	assert.Equal(t, entity.StatusDelivered, delivered.Ticket.Status)
	require.NotNil(t, delivered.Ticket.DeliveredTime)
	require.NotNil(t, delivered.Ticket.CheckoutTime)
	assert.Equal(t, *delivered.Ticket.DeliveredTime, *delivered.Ticket.CheckoutTime)

	// delivered tickets live in history, not in the active list
	history := getTickets(t, "/api/history?search="+code)
	require.Len(t, history.Tickets, 1)
	assert.Equal(t, entry.Ticket.ID, history.Tickets[0].ID)
	active := getTickets(t, "/api/active?search="+code)
	assert.Empty(t, active.Tickets)

	// quick exit ignores the fact that a ticket with this code existed
	quick := postTicket(t, "/api/checkout/quick-exit", map[string]any{
		"ticketCode": code,
	})
	require.True(t, quick.OK)
	assert.Equal(t, "-", quick.Ticket.LicensePlate)
	assert.Equal(t, entity.StatusRequested, quick.Ticket.Status)
	assert.False(t, quick.Ticket.WasRegistered)

	assertNotificationStored(t, quick.Ticket.ID, entity.NotificationQuickExit)

	// error envelope: not-found and conflict are typed categories
	assertErrorCategory(t, "/api/checkout/request", map[string]any{"ticketId": uuid.NewString()},
		http.StatusNotFound, "not-found")
	assertErrorCategory(t, fmt.Sprintf("/api/tickets/%s/ready", entry.Ticket.ID), map[string]any{},
		http.StatusConflict, "conflict")
	assertErrorCategory(t, "/api/entry", map[string]any{"licensePlate": "NOP111"},
		http.StatusBadRequest, "validation-error")
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get("http://localhost" + httpAddress + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

func postTicket(t *testing.T, path string, body map[string]any) ticketEnvelope {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post("http://localhost"+httpAddress+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope ticketEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func getTickets(t *testing.T, path string) ticketsEnvelope {
	t.Helper()

	resp, err := http.Get("http://localhost" + httpAddress + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope ticketsEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func assertAlertsPartition(t *testing.T, ticketID string, status entity.Status) {
	t.Helper()

	resp, err := http.Get("http://localhost" + httpAddress + "/api/alerts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope alertsEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	inRequested := containsTicket(envelope.Requested, ticketID)
	inReady := containsTicket(envelope.Ready, ticketID)

	assert.Equal(t, status == entity.StatusRequested, inRequested)
	assert.Equal(t, status == entity.StatusReady, inReady)
}

// assertNotificationStored waits out the async chain: outbox row, forwarder,
// splitter, notification projection.
func assertNotificationStored(t *testing.T, ticketID, message string) {
	t.Helper()

	assert.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get("http://localhost" + httpAddress + "/api/notifications")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			var envelope notificationsEnvelope
			if !assert.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope)) {
				return
			}

			found := false
			for _, n := range envelope.Notifications {
				if n.TicketID != nil && *n.TicketID == ticketID && n.Message == message {
					found = true
				}
			}
			assert.True(t, found, "notification for ticket %s not found", ticketID)
		},
		10*time.Second,
		100*time.Millisecond,
	)
}

func assertErrorCategory(t *testing.T, path string, body map[string]any, wantStatus int, wantCategory string) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post("http://localhost"+httpAddress+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var envelope errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.OK)
	assert.Equal(t, wantCategory, envelope.Error)
}

func containsTicket(tickets []entity.Ticket, id string) bool {
	for _, ticket := range tickets {
		if ticket.ID == id {
			return true
		}
	}
	return false
}
