package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/nvr-labs/crashwatch/client/watch-client/submission"
)

// Correlator routes inbound push events to the submission coordinator. The
// coordinator applies its own filename gate, so the correlator only decodes
// and forwards; everything for a non-active job is dropped there without
// side effects.
//
// Attach and Detach bracket the owning view's lifetime: subscribe on mount,
// unsubscribe on teardown, exactly once each.
type Correlator struct {
	subscriber  Subscriber
	coordinator *submission.Coordinator

	attachOnce sync.Once
	detachOnce sync.Once
}

// NewCorrelator creates a correlator binding the subscriber to the
// coordinator.
func NewCorrelator(subscriber Subscriber, coordinator *submission.Coordinator) *Correlator {
	return &Correlator{
		subscriber:  subscriber,
		coordinator: coordinator,
	}
}

// Attach registers handlers for the three analysis events. Calling Attach
// more than once has no effect.
func (c *Correlator) Attach() {
	c.attachOnce.Do(func() {
		c.subscriber.On(EventProcessingProgress, c.onProgress)
		c.subscriber.On(EventVideoProcessed, c.onProcessed)
		c.subscriber.On(EventProcessingError, c.onError)
	})
}

// Detach removes all three handlers. Calling Detach more than once has no
// effect; after it returns no handler can fire against the coordinator.
func (c *Correlator) Detach() {
	c.detachOnce.Do(func() {
		c.subscriber.Off(EventProcessingProgress)
		c.subscriber.Off(EventVideoProcessed)
		c.subscriber.Off(EventProcessingError)
	})
}

func (c *Correlator) onProgress(data json.RawMessage) {
	var event ProcessingProgress
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("Discarding malformed progress event: %v", err)
		return
	}
	c.coordinator.ApplyProgressEvent(event.Filename, event.Progress, event.Accidents)
}

func (c *Correlator) onProcessed(data json.RawMessage) {
	var event VideoProcessed
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("Discarding malformed completion event: %v", err)
		return
	}
	c.coordinator.MarkCompleted(event.Filename)
}

func (c *Correlator) onError(data json.RawMessage) {
	var event ProcessingError
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("Discarding malformed error event: %v", err)
		return
	}
	c.coordinator.MarkFailed(event.Filename, event.Message)
}
