package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "registry-report/internal/transport/websocket"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectUser(t *testing.T, userID int64) (*ws.Hub, *websocket.Conn) {
	t.Helper()
	hub := ws.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, userID)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ConnectionCount(userID) == 1 }, time.Second, 10*time.Millisecond)
	return hub, conn
}

func readData(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var received ws.Message
	require.NoError(t, conn.ReadJSON(&received))

	raw, err := json.Marshal(received.Data)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))
	return received, data
}

func TestWebSocketClient_NotifyReportGenerated(t *testing.T) {
	hub, conn := connectUser(t, 7)
	client := NewWebSocketClient(hub)

	url := "https://files.example.com/registry-summary-20240301-0930.pdf"
	err := client.NotifyReportGenerated(context.Background(), 7, ReportNotice{
		ID:         "rep-1",
		Filename:   "registry-summary-20240301-0930.pdf",
		ReportType: "SUMMARY",
		Format:     "PDF",
		URL:        &url,
	})
	require.NoError(t, err)

	msg, data := readData(t, conn)
	assert.Equal(t, "report_generated", msg.Type)
	assert.Equal(t, "notify_user_report_generated#7", msg.Channel)
	assert.Equal(t, int64(7), msg.UserID)
	assert.Equal(t, "rep-1", data["id"])
	assert.Equal(t, "registry-summary-20240301-0930.pdf", data["filename"])
	assert.Equal(t, "SUMMARY", data["report_type"])
	assert.Equal(t, "PDF", data["format"])
	assert.Equal(t, url, data["url"])
}

func TestWebSocketClient_OmitsURLWhenNotArchived(t *testing.T) {
	hub, conn := connectUser(t, 3)

	require.NoError(t, NewWebSocketClient(hub).NotifyReportGenerated(context.Background(), 3, ReportNotice{
		ID:         "rep-2",
		Filename:   "registry-detailed.csv",
		ReportType: "DETAILED",
		Format:     "CSV",
	}))

	_, data := readData(t, conn)
	assert.NotContains(t, data, "url")
}

func TestWebSocketClient_NilHub(t *testing.T) {
	var nilClient *WebSocketClient
	assert.NoError(t, nilClient.NotifyReportGenerated(context.Background(), 1, ReportNotice{ID: "x"}))
	assert.NoError(t, NewWebSocketClient(nil).NotifyReportGenerated(context.Background(), 1, ReportNotice{ID: "x"}))
}
