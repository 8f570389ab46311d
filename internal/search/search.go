// Package search keeps a Meilisearch index of students in step with the
// student events and answers the staff search box.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/meilisearch/meilisearch-go"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/pkg/logger"
)

// Document is what the index stores for one student.
type Document struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
}

type StudentIndex struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
	logger *slog.Logger
}

// Connect returns nil when no Meilisearch host is configured. Callers then
// search the database directly.
func Connect(cfg internal.SearchConfig) *StudentIndex {
	if !cfg.Enabled() {
		return nil
	}
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.MasterKey))
	return NewStudentIndex(client, cfg.Index)
}

func NewStudentIndex(client meilisearch.ServiceManager, uid string) *StudentIndex {
	return &StudentIndex{
		client: client,
		index:  client.Index(uid),
		logger: logger.LoggerWrapper(),
	}
}

// Init sets the searchable attributes. Failures are logged; the index still
// works with Meilisearch defaults.
func (s *StudentIndex) Init() {
	attrs := []string{"name", "email", "cpf"}
	if _, err := s.index.UpdateSearchableAttributes(&attrs); err != nil {
		s.logger.Warn("failed to update searchable attributes", "error", err)
		return
	}
	s.logger.Info("student search index initialized")
}

// Ping fails unless Meilisearch reports itself available.
func (s *StudentIndex) Ping(ctx context.Context) error {
	h, err := s.client.HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	if h.Status != "available" {
		return fmt.Errorf("meilisearch status %q", h.Status)
	}
	return nil
}

func (s *StudentIndex) Upsert(doc Document) error {
	pk := "id"
	task, err := s.index.AddDocuments([]Document{doc}, &pk)
	if err != nil {
		return fmt.Errorf("failed to index student %s: %w", doc.ID, err)
	}
	s.logger.Debug("student indexed", "user_id", doc.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *StudentIndex) Remove(id string) error {
	if _, err := s.index.DeleteDocument(id); err != nil {
		return fmt.Errorf("failed to remove student %s from index: %w", id, err)
	}
	return nil
}

type searchHits struct {
	Hits []Document `json:"hits"`
}

func (s *StudentIndex) Search(_ context.Context, q string, limit int) ([]Document, error) {
	raw, err := s.index.SearchRaw(q, &meilisearch.SearchRequest{Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	var res searchHits
	if err := json.Unmarshal(*raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return res.Hits, nil
}

// Subscribe keeps the index in step with student registrations, edits and
// deactivations.
func (s *StudentIndex) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeStudentUpserted, func(_ context.Context, e events.Event) error {
		ev, ok := e.(*events.StudentUpsertedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", e)
		}
		return s.Upsert(Document{ID: ev.UserID, Name: ev.Name, Email: ev.Email, CPF: ev.CPF})
	})
	bus.Subscribe(events.EventTypeStudentRemoved, func(_ context.Context, e events.Event) error {
		ev, ok := e.(*events.StudentRemovedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", e)
		}
		return s.Remove(ev.UserID)
	})
}
