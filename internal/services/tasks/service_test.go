package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/benvon/smart-todo-client/internal/database"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/queue"
	"github.com/benvon/smart-todo-client/internal/validation"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*queue.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error                      { return nil }
func (p *recordingPublisher) HealthCheck(context.Context) error { return p.err }

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	ctx := context.Background()
	db, err := database.New("")
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	user := &models.User{ID: "u1", Email: "u1@example.com", Username: "u1"}
	if err := database.NewUserRepository(db).Create(ctx, user, "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	pub := &recordingPublisher{}
	return NewService(database.NewTodoRepository(db), pub, zaptest.NewLogger(t)), pub
}

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, pub := newTestService(t)

	todo, err := svc.Create(ctx, "u1", models.TodoCreate{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if todo.ID == "" || todo.Title != "Buy milk" || todo.UserID != "u1" {
		t.Errorf("Create() = %+v", todo)
	}

	title := "Buy oat milk"
	updated, err := svc.Update(ctx, "u1", todo.ID, models.TodoUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != title {
		t.Errorf("Update() title = %q, want %q", updated.Title, title)
	}

	done, err := svc.SetCompleted(ctx, "u1", todo.ID, true)
	if err != nil {
		t.Fatalf("SetCompleted() error = %v", err)
	}
	if !done.Completed {
		t.Error("Expected todo to be completed")
	}

	list, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || !list[0].Completed || list[0].Title != title {
		t.Errorf("List() = %+v", list)
	}

	if err := svc.Delete(ctx, "u1", todo.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, "u1", todo.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	want := []queue.EventType{
		queue.EventTodoCreated,
		queue.EventTodoUpdated,
		queue.EventTodoCompleted,
		queue.EventTodosFetched,
		queue.EventTodoDeleted,
	}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestService_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, pub := newTestService(t)

	if _, err := svc.Create(ctx, "u1", models.TodoCreate{Title: "   "}); !errors.Is(err, validation.ErrTitleRequired) {
		t.Errorf("Create(blank) error = %v, want ErrTitleRequired", err)
	}

	todo, err := svc.Create(ctx, "u1", models.TodoCreate{Title: "Task"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	blank := ""
	if _, err := svc.Update(ctx, "u1", todo.ID, models.TodoUpdate{Title: &blank}); !errors.Is(err, validation.ErrTitleRequired) {
		t.Errorf("Update(blank) error = %v, want ErrTitleRequired", err)
	}
	if n := len(pub.types()); n != 1 {
		t.Errorf("published %d events, want 1", n)
	}
}

func TestService_OwnerScoping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	todo, err := svc.Create(ctx, "u1", models.TodoCreate{Title: "Mine"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := svc.Get(ctx, "u2", todo.ID); return err }},
		{"complete", func() error { _, err := svc.SetCompleted(ctx, "u2", todo.ID, true); return err }},
		{"update", func() error { _, err := svc.Update(ctx, "u2", todo.ID, models.TodoUpdate{}); return err }},
		{"delete", func() error { return svc.Delete(ctx, "u2", todo.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, database.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestService_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.Create(ctx, "u1", models.TodoCreate{Title: "Still saved"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}
	if err := svc.HealthCheck(ctx); err == nil {
		t.Error("Expected health check to report the publisher failure")
	}
}
