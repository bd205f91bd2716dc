//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	cfnats "github.com/Strob0t/athena/internal/adapter/nats"
	"github.com/Strob0t/athena/internal/adapter/ws"
	"github.com/Strob0t/athena/internal/service"
)

func post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(testServer.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func put(t *testing.T, path, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPut, testServer.URL+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// readUntil reads viewer messages until one of type want arrives.
func readUntil(ctx context.Context, t *testing.T, c *websocket.Conn, want string, match func(json.RawMessage) bool) ws.Message {
	t.Helper()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode ws message: %v", err)
		}
		if msg.Type == want && (match == nil || match(msg.Payload)) {
			return msg
		}
	}
}

// TestShift walks a pool bar shift as two viewers see it.
func TestShift(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws"
	bar, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial bar viewer: %v", err)
	}
	defer bar.CloseNow()
	gm, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial gm viewer: %v", err)
	}
	defer gm.CloseNow()

	readUntil(ctx, t, bar, ws.EventDashboardSnapshot, nil)
	readUntil(ctx, t, gm, ws.EventDashboardSnapshot, nil)

	var natsEvents chan cfnats.Envelope
	if testNATS != nil {
		natsEvents = make(chan cfnats.Envelope, 16)
		stop, err := testNATS.Subscribe(ctx, "alert.*", func(_ context.Context, env cfnats.Envelope) error {
			natsEvents <- env
			return nil
		})
		if err != nil {
			t.Fatalf("nats subscribe: %v", err)
		}
		defer stop()
	}

	for _, item := range []string{"ice", "fridge", "music", "glass"} {
		if resp := put(t, "/api/v1/departments/pool_bar/checklist/"+item, `{"value":true}`); resp.StatusCode != http.StatusOK {
			t.Fatalf("set %s: %d", item, resp.StatusCode)
		}
	}

	if resp := post(t, "/api/v1/alerts/critical", `{"source":"pool_bar"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("critical alert: %d", resp.StatusCode)
	}
	readUntil(ctx, t, gm, ws.EventAlertRaised, nil)

	if resp := post(t, "/api/v1/bookings/4052/upgrade", ""); resp.StatusCode != http.StatusCreated {
		t.Fatalf("upgrade: %d", resp.StatusCode)
	}
	readUntil(ctx, t, bar, ws.EventRevenueRecorded, nil)

	snap := readUntil(ctx, t, gm, ws.EventDashboardSnapshot, func(p json.RawMessage) bool {
		var d service.Dashboard
		return json.Unmarshal(p, &d) == nil && d.Version == testHub.Version() && d.Reception.State == service.ReceptionOK
	})
	var d service.Dashboard
	_ = json.Unmarshal(snap.Payload, &d)
	if d.ActiveIssueCount != 1 || d.Departments[0].State != service.DepartmentReady {
		t.Fatalf("unexpected dashboard %+v", d)
	}

	if natsEvents != nil {
		select {
		case env := <-natsEvents:
			if env.Type != ws.EventAlertRaised {
				t.Fatalf("unexpected nats event %s", env.Type)
			}
		case <-ctx.Done():
			t.Fatal("no alert event on nats")
		}
	}

	summary := testHub.HandoverSummary()
	if !strings.Contains(summary, "Pool Bar setup completed at") || !strings.Contains(summary, "1 issue still unresolved") {
		t.Fatalf("unexpected handover %q", summary)
	}
}
