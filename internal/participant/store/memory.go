// Package store provides participant persistence: an in-memory
// implementation for unit tests and local development, and the PostgreSQL
// implementation used in production.
package store

import (
	"context"
	"sync"

	"pintcert/internal/participant/models"
	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
)

type lookupKey struct {
	eventID id.EventID
	hash    string
}

// Memory keeps participants in maps guarded by one mutex. The mutex is
// what serializes Execute and SetSignatureIfAbsent per record, matching
// the row-lock semantics of the PostgreSQL store.
type Memory struct {
	mu       sync.RWMutex
	byID     map[id.ParticipantID]*models.Participant
	byLookup map[lookupKey]id.ParticipantID
}

func NewMemory() *Memory {
	return &Memory{
		byID:     make(map[id.ParticipantID]*models.Participant),
		byLookup: make(map[lookupKey]id.ParticipantID),
	}
}

func (s *Memory) Create(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lookupKey{eventID: p.EventID, hash: p.EmailLookupHash}
	if _, ok := s.byLookup[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byID[p.ID]; ok {
		return sentinel.ErrConflict
	}

	cp := clone(p)
	s.byID[p.ID] = cp
	s.byLookup[key] = p.ID
	return nil
}

func (s *Memory) FindByID(_ context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[participantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *Memory) FindByLookupHash(_ context.Context, eventID id.EventID, hash string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participantID, ok := s.byLookup[lookupKey{eventID: eventID, hash: hash}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[participantID]), nil
}

func (s *Memory) FindBySignature(_ context.Context, signature string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byID {
		if p.Signature != "" && p.Signature == signature {
			return clone(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) ListByEvent(_ context.Context, eventID id.EventID) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Participant
	for _, p := range s.byID {
		if p.EventID == eventID {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

// Execute validates then mutates one participant under the store lock.
// The mutation runs on a copy so a rejected change leaves the stored
// record untouched. A mutation that moves the lookup hash onto another
// participant's entry returns sentinel.ErrAlreadyUsed, the same answer
// Create gives for a duplicate registration.
func (s *Memory) Execute(_ context.Context, participantID id.ParticipantID,
	validate func(*models.Participant) error,
	mutate func(*models.Participant)) (*models.Participant, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[participantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	p := clone(stored)
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	oldKey := lookupKey{eventID: stored.EventID, hash: stored.EmailLookupHash}
	newKey := lookupKey{eventID: p.EventID, hash: p.EmailLookupHash}
	if newKey != oldKey {
		if existing, taken := s.byLookup[newKey]; taken && existing != participantID {
			return nil, sentinel.ErrAlreadyUsed
		}
		delete(s.byLookup, oldKey)
		s.byLookup[newKey] = participantID
	}
	s.byID[participantID] = p
	return clone(p), nil
}

// SetSignatureIfAbsent stores the signature only when none exists and
// returns whatever is durably stored afterwards. Two concurrent renders
// both end up with the same signature, whichever landed first.
func (s *Memory) SetSignatureIfAbsent(_ context.Context, participantID id.ParticipantID, signature string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[participantID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if p.Signature == "" {
		p.Signature = signature
	}
	return p.Signature, nil
}

func clone(p *models.Participant) *models.Participant {
	cp := *p
	cp.EncryptedName = append([]byte(nil), p.EncryptedName...)
	cp.EncryptedEmail = append([]byte(nil), p.EncryptedEmail...)
	cp.ParticipationDates = append([]string(nil), p.ParticipationDates...)
	return &cp
}
