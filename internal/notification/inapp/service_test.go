package inapp

import (
	"context"
	"testing"
	"time"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type memStore struct {
	items      []Notification
	lastLimit  int
	lastOffset int
}

func (m *memStore) Create(_ context.Context, p CreateParams) (Notification, error) {
	n := Notification{ID: uuid.New(), UserID: p.UserID, Title: p.Title, Content: p.Content,
		ResourceID: p.ResourceID, ResourceType: p.ResourceType, Category: p.Category, CreatedAt: time.Now()}
	m.items = append(m.items, n)
	return n, nil
}

func (m *memStore) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	m.lastLimit, m.lastOffset = limit, offset
	var out []Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *memStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memStore) MarkRead(_ context.Context, userID, id uuid.UUID) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	for i := range m.items {
		if m.items[i].UserID == userID {
			m.items[i].IsRead = true
		}
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) DeleteReadBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestSendValidatesAndDefaultsCategory(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, logger.NewDiscard())
	ctx := context.Background()

	if _, err := svc.Send(ctx, SendParams{Title: "x", Content: "y"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing user, got %v", err)
	}
	if _, err := svc.Send(ctx, SendParams{UserID: uuid.New(), Title: "  ", Content: "y"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	n, err := svc.Send(ctx, SendParams{UserID: uuid.New(), Title: " Step ready ", Content: "Survey is ready.", ResourceType: "lead"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Category != CategoryInfo || n.Title != "Step ready" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.ResourceType == nil || *n.ResourceType != "lead" {
		t.Fatal("resource type should be stored")
	}
}

func TestListClampsPaging(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, logger.NewDiscard())

	if _, _, err := svc.List(context.Background(), uuid.New(), 0, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastLimit != maxPageSize || store.lastOffset != 0 {
		t.Fatalf("expected limit %d offset 0, got %d/%d", maxPageSize, store.lastLimit, store.lastOffset)
	}

	if _, _, err := svc.List(context.Background(), uuid.New(), 3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastLimit != defaultPageSize || store.lastOffset != 2*defaultPageSize {
		t.Fatalf("unexpected paging %d/%d", store.lastLimit, store.lastOffset)
	}
}

func TestMarkReadAndDeleteAreScopedToOwner(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, logger.NewDiscard())
	ctx := context.Background()
	owner := uuid.New()

	n, err := svc.Send(ctx, SendParams{UserID: owner, Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.MarkRead(ctx, uuid.New(), n.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	if err := svc.MarkRead(ctx, owner, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if count, _ := svc.CountUnread(ctx, owner); count != 0 {
		t.Fatalf("expected no unread notifications, got %d", count)
	}

	if err := svc.Delete(ctx, uuid.New(), n.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	if err := svc.Delete(ctx, owner, n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
