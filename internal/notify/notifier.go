package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Dispatcher fans workflow events out to the websocket hub and an optional
// webhook. Fire-and-forget: every failure is logged and swallowed, never
// returned to the engine.
type Dispatcher struct {
	hub        *Hub
	webhookURL string
	client     *http.Client
	log        *log.Entry
}

// NewDispatcher creates a dispatcher. hub may be nil, webhookURL may be
// empty; whatever is configured gets the events.
func NewDispatcher(hub *Hub, webhookURL string) *Dispatcher {
	return &Dispatcher{
		hub:        hub,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log.WithField("component", "notify"),
	}
}

// Notify implements the workflow notification collaborator.
func (d *Dispatcher) Notify(event string, payload map[string]interface{}) {
	message := map[string]interface{}{
		"event":   event,
		"payload": payload,
		"sentAt":  time.Now().UTC().Format(time.RFC3339),
	}

	if d.hub != nil {
		d.hub.Broadcast(message)
	}

	if d.webhookURL != "" {
		go d.postWebhook(event, message)
	}
}

func (d *Dispatcher) postWebhook(event string, message map[string]interface{}) {
	body, err := json.Marshal(message)
	if err != nil {
		d.log.Warnf("could not marshal %s webhook payload: %v", event, err)
		return
	}
	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.Warnf("webhook delivery for %s failed: %v", event, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.log.Warnf("webhook for %s returned status %d", event, resp.StatusCode)
	}
}
