package database

import (
	"sync"

	"github.com/mdouchement/safehaven/internal/model"
)

// Change topics.
const (
	TopicProfile  = "profile"
	TopicSurvivor = "survivor"
	TopicIncident = "incident"
	TopicEvidence = "evidence"
	TopicDocument = "document"
	TopicJourney  = "journey"
	TopicResource = "resource"
	TopicContact  = "contact"
	TopicSOS      = "sos"
	TopicSession  = "session"
)

// A hub fans out change notifications to subscribers.
// Each subscriber holds at most one pending notification so publishers never block.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func newHub() *hub {
	return &hub{
		subs: map[string]map[int]chan struct{}{},
	}
}

func (h *hub) subscribe(topic string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan struct{}, 1)

	if h.subs[topic] == nil {
		h.subs[topic] = map[int]chan struct{}{}
	}
	h.subs[topic][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if _, ok := h.subs[topic][id]; ok {
			delete(h.subs[topic], id)
			close(ch)
		}
	}
}

func (h *hub) publish(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
			// A notification is already pending.
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(h.subs, topic)
	}
}

func topicOf(m model.Model) string {
	switch m.(type) {
	case *model.Profile:
		return TopicProfile
	case *model.SurvivorProfile:
		return TopicSurvivor
	case *model.Incident:
		return TopicIncident
	case *model.Evidence:
		return TopicEvidence
	case *model.Document:
		return TopicDocument
	case *model.Journey:
		return TopicJourney
	case *model.Resource:
		return TopicResource
	case *model.Contact:
		return TopicContact
	case *model.SOSSession:
		return TopicSOS
	case *model.Session:
		return TopicSession
	}
	return ""
}
