package towerphys

import (
	"github.com/spacescrapers/towerphys/actor"
	"github.com/spacescrapers/towerphys/constraint"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
	SUPPORT_CHANGED
)

// restingGap is the distance under which a pair that stopped overlapping still counts as touching.
// A resolved contact leaves the bodies edge to edge, so the narrow phase no longer reports it.
const restingGap = 0.5

type pairKey struct {
	bodyA *actor.Body
	bodyB *actor.Body
}

// makePairKey creates a normalized pair key: the ground, then the lower index, comes first
func makePairKey(bodyA, bodyB *actor.Body) pairKey {
	if bodyB.Index < bodyA.Index {
		bodyA, bodyB = bodyB, bodyA
	}

	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

// touching reports whether both bodies are live and still edge to edge
func (p pairKey) touching() bool {
	if p.bodyA.Inert || p.bodyB.Inert {
		return false
	}

	return p.bodyA.AABB().Touches(p.bodyB.AABB(), restingGap)
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Collision events
type CollisionEnterEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.Body
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.Body
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// SupportChangedEvent is emitted when the classification of a body changes
type SupportChangedEvent struct {
	Body *actor.Body
	From actor.Support
	To   actor.Support
}

func (e SupportChangedEvent) Type() EventType { return SUPPORT_CHANGED }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager.
// Events raised during a step are buffered and delivered in a deterministic order when the step ends.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection, in discovery order
	previousPairs []pairKey
	currentPairs  []pairKey
	previousSet   map[pairKey]bool
	currentSet    map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:   make(map[EventType][]EventListener),
		buffer:      make([]Event, 0, 64),
		previousSet: make(map[pairKey]bool),
		currentSet:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContacts is called once per step with the contacts found by the narrow phase
func (e *Events) recordContacts(contacts []*constraint.Contact) {
	if e.currentSet == nil {
		e.previousSet = make(map[pairKey]bool)
		e.currentSet = make(map[pairKey]bool)
	}

	for _, c := range contacts {
		pair := makePairKey(c.BodyA, c.BodyB)
		if e.currentSet[pair] {
			continue
		}
		e.currentSet[pair] = true
		e.currentPairs = append(e.currentPairs, pair)
	}
}

func (e *Events) emitSleep(body *actor.Body) {
	e.buffer = append(e.buffer, SleepEvent{Body: body})
}

func (e *Events) emitWake(body *actor.Body) {
	e.buffer = append(e.buffer, WakeEvent{Body: body})
}

func (e *Events) emitSupportChanged(body *actor.Body, from, to actor.Support) {
	e.buffer = append(e.buffer, SupportChangedEvent{Body: body, From: from, To: to})
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit
func (e *Events) processCollisionEvents() {
	// Resting and frozen pairs leave the narrow phase but keep their contact until they separate
	for _, pair := range e.previousPairs {
		if !e.currentSet[pair] && pair.touching() {
			e.currentSet[pair] = true
			e.currentPairs = append(e.currentPairs, pair)
		}
	}

	for _, pair := range e.currentPairs {
		// Skip if both bodies are frozen, to avoid spamming events
		if pair.bodyA.Static && pair.bodyB.Static {
			continue
		}

		if e.previousSet[pair] {
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	for _, pair := range e.previousPairs {
		if !e.currentSet[pair] {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Swap for next step and clear current
	e.previousPairs, e.currentPairs = e.currentPairs, e.previousPairs[:0]
	e.previousSet, e.currentSet = e.currentSet, e.previousSet
	clear(e.currentSet)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	// Listeners may trigger new events through the world; deliver only what was buffered so far
	pending := e.buffer
	e.buffer = make([]Event, 0, cap(pending))
	for _, event := range pending {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
}

// reset forgets collision history and drops undelivered events
func (e *Events) reset() {
	e.buffer = e.buffer[:0]
	e.previousPairs = e.previousPairs[:0]
	e.currentPairs = e.currentPairs[:0]
	clear(e.previousSet)
	clear(e.currentSet)
}
