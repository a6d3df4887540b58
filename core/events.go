package core

import (
	"pyrochain/core/types"
)

const (
	eventTick        = "engine.tick"
	eventBurn        = "engine.burn"
	eventEventBurn   = "engine.event_burn"
	eventCascade     = "engine.cascade"
	eventClaim       = "engine.claim"
	eventNodeClaim   = "engine.node_claim"
	eventBind        = "engine.bind"
	eventNFTTransfer = "engine.nft_transfer"
	eventReferral    = "engine.referral"
	eventStarted     = "engine.started"

	eventRingCap = 512
)

func (e *Engine) appendEvent(evt types.Event) {
	e.pendingEvents = append(e.pendingEvents, evt)
}

// flushEvents moves the events of a committed operation into the retained
// ring and logs them. Called only after a successful commit so rejected
// operations leave no trace.
func (e *Engine) flushEvents() {
	for _, evt := range e.pendingEvents {
		e.recentEvents = append(e.recentEvents, evt)
		if len(e.recentEvents) > eventRingCap {
			e.recentEvents = e.recentEvents[len(e.recentEvents)-eventRingCap:]
		}
		if e.log != nil {
			attrs := make([]any, 0, len(evt.Attributes)*2+2)
			attrs = append(attrs, "event", evt.Type)
			for k, v := range evt.Attributes {
				attrs = append(attrs, k, v)
			}
			e.log.Info("engine event", attrs...)
		}
	}
	e.pendingEvents = e.pendingEvents[:0]
}

func (e *Engine) dropEvents() {
	e.pendingEvents = e.pendingEvents[:0]
}

// Events returns a copy of the retained event ring, newest last.
func (e *Engine) Events() []types.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Event, len(e.recentEvents))
	copy(out, e.recentEvents)
	return out
}
