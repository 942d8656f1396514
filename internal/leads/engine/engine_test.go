package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"estate_admin_backend/internal/events"
	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/internal/leads/pipeline"
	"estate_admin_backend/internal/leads/transport"
	"estate_admin_backend/internal/notify"
	"estate_admin_backend/internal/recordservice"
	"estate_admin_backend/platform/apperr"
	"estate_admin_backend/platform/logger"
	"estate_admin_backend/platform/validator"

	"golang.org/x/time/rate"
)

type fakeStore struct {
	mu       sync.Mutex
	leads    []domain.Lead
	projects []domain.ProjectRef
	updates  []string
	created  []recordservice.CreateLeadParams
	failAll  bool
}

func (f *fakeStore) ListLeads(context.Context) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("list failed")
	}
	out := make([]domain.Lead, len(f.leads))
	copy(out, f.leads)
	return out, nil
}

func (f *fakeStore) ListProjects(context.Context) ([]domain.ProjectRef, error) {
	return f.projects, nil
}

func (f *fakeStore) CreateLead(_ context.Context, params recordservice.CreateLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return domain.Lead{}, errors.New("create failed")
	}
	f.created = append(f.created, params)
	return domain.Lead{ID: "created", Name: params.Name, Status: params.Status}, nil
}

func (f *fakeStore) UpdateLead(_ context.Context, id string, _ recordservice.UpdateLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return domain.Lead{}, errors.New("update failed")
	}
	f.updates = append(f.updates, id)
	return domain.Lead{ID: id}, nil
}

type fakeRecords struct {
	mu         sync.Mutex
	notes      []domain.Note
	reminders  []domain.Reminder
	created    []recordservice.CreateNoteParams
	deleted    []string
	failReads  bool
	failWrites bool
}

func (f *fakeRecords) ListNotes(context.Context, string) ([]domain.Note, error) {
	if f.failReads {
		return nil, errors.New("notes unavailable")
	}
	return f.notes, nil
}

func (f *fakeRecords) ListReminders(context.Context, string) ([]domain.Reminder, error) {
	if f.failReads {
		return nil, errors.New("reminders unavailable")
	}
	return f.reminders, nil
}

func (f *fakeRecords) CreateNote(_ context.Context, leadID string, params recordservice.CreateNoteParams) (domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return domain.Note{}, errors.New("note create failed")
	}
	f.created = append(f.created, params)
	return domain.Note{ID: "n1", LeadID: leadID, Type: params.Type, Content: params.Content}, nil
}

func (f *fakeRecords) DeleteNote(context.Context, string) error { return nil }

func (f *fakeRecords) CreateReminder(_ context.Context, leadID string, params recordservice.CreateReminderParams) (domain.Reminder, error) {
	return domain.Reminder{ID: "r1", LeadID: leadID, Title: params.Title}, nil
}

func (f *fakeRecords) UpdateReminder(context.Context, string, recordservice.CompleteReminderParams) error {
	return nil
}

func (f *fakeRecords) DeleteReminder(context.Context, string) error { return nil }

func (f *fakeRecords) DeleteLead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("delete failed")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	levels   []notify.Level
}

func (r *recordingNotifier) Notify(_ context.Context, level notify.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, level)
	r.messages = append(r.messages, message)
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.EventName()
	}
	return out
}

func (b *recordingBus) has(name string) bool {
	for _, n := range b.names() {
		if n == name {
			return true
		}
	}
	return false
}

type fixture struct {
	engine   *Engine
	store    *fakeStore
	records  *fakeRecords
	notifier *recordingNotifier
	bus      *recordingBus
}

func newFixture(leads ...domain.Lead) *fixture {
	store := &fakeStore{leads: leads}
	records := &fakeRecords{}
	notifier := &recordingNotifier{}
	bus := &recordingBus{}
	eng := New(store, records, validator.New(), notifier, bus,
		rate.NewLimiter(rate.Inf, 1), logger.New("development"))
	return &fixture{engine: eng, store: store, records: records, notifier: notifier, bus: bus}
}

func TestRefreshReResolvesOpenLead(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "x", Name: "דני", Status: domain.StatusNew})
	ctx := context.Background()

	if err := fx.engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := fx.engine.Open(ctx, "x"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	// The backend mutates out-of-band; the next refresh must swap the
	// snapshot without the lead being reopened.
	fx.store.mu.Lock()
	fx.store.leads = []domain.Lead{{ID: "x", Name: "דני", Status: domain.StatusContacted}}
	fx.store.mu.Unlock()
	if err := fx.engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	open, ok := fx.engine.OpenLead()
	if !ok {
		t.Fatal("lead should still be open")
	}
	if open.Status != domain.StatusContacted {
		t.Fatalf("open lead status = %q, want refreshed value", open.Status)
	}
}

func TestOpenMissingLead(t *testing.T) {
	fx := newFixture()
	_ = fx.engine.Refresh(context.Background())

	_, err := fx.engine.Open(context.Background(), "ghost")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOpenDegradesFailedSubResourceReads(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "x", Name: "a"})
	fx.records.failReads = true
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	detail, err := fx.engine.Open(ctx, "x")
	if err != nil {
		t.Fatalf("read failures must not propagate: %v", err)
	}
	if detail.Notes == nil || len(detail.Notes) != 0 {
		t.Fatalf("notes = %v, want empty list", detail.Notes)
	}
	if detail.Reminders == nil || len(detail.Reminders) != 0 {
		t.Fatalf("reminders = %v, want empty list", detail.Reminders)
	}
}

func TestOpenFromQueryRunsOncePerSession(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "x", Name: "a"})
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	_, opened, err := fx.engine.OpenFromQuery(ctx, "x")
	if err != nil || !opened {
		t.Fatalf("first query open: opened=%v err=%v", opened, err)
	}

	fx.engine.Dismiss()
	_, opened, err = fx.engine.OpenFromQuery(ctx, "x")
	if err != nil || opened {
		t.Fatalf("second query open must be a no-op, opened=%v err=%v", opened, err)
	}
}

func TestChangeStatusWritesAuditNote(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "x", Name: "a", Status: domain.StatusNew})
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	if err := fx.engine.ChangeStatus(ctx, "x", domain.StatusMeeting); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	if len(fx.records.created) != 1 {
		t.Fatalf("expected exactly one audit note, got %d", len(fx.records.created))
	}
	note := fx.records.created[0]
	if note.Type != domain.NoteTypeStatusChange {
		t.Fatalf("note type = %q", note.Type)
	}
	if want := domain.StatusMeeting.Label(); !strings.Contains(note.Content, want) {
		t.Fatalf("note content %q must embed label %q", note.Content, want)
	}
	if !fx.bus.has(events.RefreshRequested{}.EventName()) {
		t.Fatal("status change must request a refresh")
	}
}

func TestChangeStatusNoteFailureSharesErrorHandler(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "x"})
	fx.records.failWrites = true
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	if err := fx.engine.ChangeStatus(ctx, "x", domain.StatusQualified); err == nil {
		t.Fatal("expected error when audit note fails")
	}
	// The primary update still went through; consistency is pull-based.
	if len(fx.store.updates) != 1 {
		t.Fatalf("updates = %v", fx.store.updates)
	}
	if fx.notifier.levels[len(fx.notifier.levels)-1] != notify.LevelError {
		t.Fatal("expected an error notification")
	}
}

func TestBulkDeleteClearsSelection(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "a"}, domain.Lead{ID: "b"})
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	fx.engine.ToggleChecked("a")
	fx.engine.ToggleChecked("b")

	result, err := fx.engine.BulkDelete(ctx)
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if result.Requested != 2 || !result.AllSucceeded() {
		t.Fatalf("result = %+v", result)
	}
	if len(fx.engine.CheckedIDs()) != 0 {
		t.Fatal("selection must clear after a successful bulk delete")
	}
	if !fx.bus.has(events.RefreshRequested{}.EventName()) {
		t.Fatal("bulk delete must request a refresh")
	}
}

func TestBulkDeleteFailureKeepsSelection(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "a"})
	fx.records.failWrites = true
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	fx.engine.ToggleChecked("a")
	if _, err := fx.engine.BulkDelete(ctx); err == nil {
		t.Fatal("expected bulk failure")
	}
	if len(fx.engine.CheckedIDs()) != 1 {
		t.Fatal("selection must survive a failed bulk delete")
	}
}

func TestBulkUpdateStatusGoesThroughLeadStore(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "a"}, domain.Lead{ID: "b"})
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	fx.engine.ToggleChecked("a")
	fx.engine.ToggleChecked("b")
	if _, err := fx.engine.BulkUpdateStatus(ctx, domain.StatusContacted); err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}
	if len(fx.store.updates) != 2 {
		t.Fatalf("updates = %v", fx.store.updates)
	}
	// Bulk status changes do not write audit notes.
	if len(fx.records.created) != 0 {
		t.Fatalf("unexpected notes: %+v", fx.records.created)
	}
}

func TestImportRequestsRefresh(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	result, err := fx.engine.Import(ctx, "name,phone,email\nדני,050-1234567,dani@x.com\n")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("imported = %d", result.Imported)
	}
	if len(fx.store.created) != 1 || fx.store.created[0].Status != domain.StatusNew {
		t.Fatalf("created = %+v", fx.store.created)
	}
	if !fx.bus.has(events.ImportCompleted{}.EventName()) || !fx.bus.has(events.RefreshRequested{}.EventName()) {
		t.Fatalf("events = %v", fx.bus.names())
	}
}

func TestAddTagRejectsDuplicate(t *testing.T) {
	fx := newFixture(domain.Lead{ID: "x", Tags: `["vip"]`})
	ctx := context.Background()
	_ = fx.engine.Refresh(ctx)

	if err := fx.engine.AddTag(ctx, "x", "vip"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if err := fx.engine.AddTag(ctx, "x", "chased"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if len(fx.store.updates) != 1 {
		t.Fatalf("updates = %v", fx.store.updates)
	}
}

func TestListAppliesPipeline(t *testing.T) {
	fx := newFixture(
		domain.Lead{ID: "1", Name: "a", Status: domain.StatusNew, Priority: domain.PriorityLow},
		domain.Lead{ID: "2", Name: "b", Status: domain.StatusNew, Priority: domain.PriorityUrgent},
		domain.Lead{ID: "3", Name: "c", Status: domain.StatusContacted},
	)
	_ = fx.engine.Refresh(context.Background())

	got := fx.engine.List(pipeline.Filters{Status: string(domain.StatusNew)})
	if len(got) != 2 || got[0].ID != "2" {
		t.Fatalf("list = %+v", got)
	}
}

func TestCreateLeadValidates(t *testing.T) {
	fx := newFixture()
	_, err := fx.engine.CreateLead(context.Background(), transport.CreateLeadRequest{Phone: "050-1234567"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	lead, err := fx.engine.CreateLead(context.Background(), transport.CreateLeadRequest{
		Name:  "דני",
		Phone: "050-1234567",
	})
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	if lead.ID == "" {
		t.Fatal("expected created lead")
	}
}
