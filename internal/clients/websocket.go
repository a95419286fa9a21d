package clients

import (
	"context"
	"fmt"

	ws "registry-report/internal/transport/websocket"
)

// ReportNotice describes a generated report for live notifications.
type ReportNotice struct {
	ID         string
	Filename   string
	ReportType string
	Format     string
	URL        *string
}

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyReportGenerated(ctx context.Context, userID int64, n ReportNotice) error {
	if c == nil || c.hub == nil {
		return nil
	}

	data := map[string]any{
		"id":          n.ID,
		"filename":    n.Filename,
		"report_type": n.ReportType,
		"format":      n.Format,
	}
	if n.URL != nil {
		data["url"] = *n.URL
	}

	c.hub.Send(userID, &ws.Message{
		Type:    "report_generated",
		Channel: fmt.Sprintf("notify_user_report_generated#%d", userID),
		Data:    data,
	})
	return nil
}
