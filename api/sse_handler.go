package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/roxot-collector/internal/event"
	"github.com/katatrina/roxot-collector/internal/validator"
)

const sseClientBuffer = 16

// streamPublisherEvents tails the records of one publisher as Server-Sent
// Events: every record delivered, skipped or failed is pushed as it happens.
func (server *Server) streamPublisherEvents(c *gin.Context) {
	publisherID := c.Param("publisherID")
	if err := validator.ValidatePublisherID(publisherID); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	topic := event.PublisherTopic(publisherID)

	// Thiết lập header SSE
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	// Tạo channel cho client
	clientChan := make(chan event.Event, sseClientBuffer)
	server.eventSender.Register(topic, clientChan)
	defer server.eventSender.Unregister(topic, clientChan)

	// Gửi sự kiện tới client
	for {
		select {
		case ev, ok := <-clientChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, data)
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		case <-server.shutdown:
			return
		}
	}
}
