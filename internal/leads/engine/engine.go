// Package engine orchestrates the leads administration flow: it caches the
// collection owned by the Record Service, drives filtering and export,
// coordinates bulk operations and imports, and keeps the open lead pinned
// to the freshest snapshot.
//
// The engine never mutates the collection itself. Every write goes through
// a collaborator, and its effect is observed only on the next full refresh
// (pull-based consistency). The mutex below guards the cached state only;
// no remote call runs under it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"estate_admin_backend/internal/events"
	"estate_admin_backend/internal/leads/bulk"
	"estate_admin_backend/internal/leads/csvio"
	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/internal/leads/importer"
	"estate_admin_backend/internal/leads/pipeline"
	"estate_admin_backend/internal/leads/selection"
	"estate_admin_backend/internal/leads/transport"
	"estate_admin_backend/internal/notify"
	"estate_admin_backend/internal/recordservice"
	"estate_admin_backend/platform/apperr"
	"estate_admin_backend/platform/logger"
	"estate_admin_backend/platform/phone"
	"estate_admin_backend/platform/validator"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LeadStore is the delegated collaborator owning the primary lead record.
// This is a consumer-driven interface; recordservice.Client satisfies it.
type LeadStore interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	ListProjects(ctx context.Context) ([]domain.ProjectRef, error)
	CreateLead(ctx context.Context, params recordservice.CreateLeadParams) (domain.Lead, error)
	UpdateLead(ctx context.Context, id string, params recordservice.UpdateLeadParams) (domain.Lead, error)
}

// Records covers the lead sub-resources and deletion.
type Records interface {
	ListNotes(ctx context.Context, leadID string) ([]domain.Note, error)
	ListReminders(ctx context.Context, leadID string) ([]domain.Reminder, error)
	CreateNote(ctx context.Context, leadID string, params recordservice.CreateNoteParams) (domain.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
	CreateReminder(ctx context.Context, leadID string, params recordservice.CreateReminderParams) (domain.Reminder, error)
	UpdateReminder(ctx context.Context, reminderID string, params recordservice.CompleteReminderParams) error
	DeleteReminder(ctx context.Context, reminderID string) error
	DeleteLead(ctx context.Context, leadID string) error
}

// Engine is the lead administration orchestrator.
type Engine struct {
	mu                 sync.Mutex
	leads              []domain.Lead
	projects           []domain.ProjectRef
	state              selection.State
	checked            *selection.Checked
	querySelectionDone bool

	store    LeadStore
	records  Records
	bulkOps  *bulk.Coordinator
	importer *importer.Importer
	val      *validator.Validator
	notifier notify.Notifier
	bus      events.Bus
	log      *logger.Logger
}

// New wires the engine. The limiter paces CSV import submissions.
func New(store LeadStore, records Records, val *validator.Validator, notifier notify.Notifier, bus events.Bus, limiter *rate.Limiter, log *logger.Logger) *Engine {
	e := &Engine{
		state:    selection.Closed(),
		checked:  selection.NewChecked(),
		store:    store,
		records:  records,
		val:      val,
		notifier: notifier,
		bus:      bus,
		log:      log,
	}
	e.bulkOps = bulk.New(storeStatusUpdater{store: store}, records, log)
	e.importer = importer.New(storeCreator{store: store}, val, limiter, log)
	return e
}

// storeStatusUpdater adapts the lead store to the bulk coordinator.
// Bulk status changes use the plain single-record update; the audit note
// belongs to the detail-view status change only.
type storeStatusUpdater struct {
	store LeadStore
}

func (s storeStatusUpdater) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	st := status
	_, err := s.store.UpdateLead(ctx, id, recordservice.UpdateLeadParams{Status: &st})
	return err
}

// storeCreator adapts the lead store to the importer. Imported rows are
// always "new"; the phone is normalized to E.164 when it parses.
type storeCreator struct {
	store LeadStore
}

func (s storeCreator) CreateLead(ctx context.Context, row importer.NewLead) error {
	_, err := s.store.CreateLead(ctx, recordservice.CreateLeadParams{
		Name:   row.Name,
		Phone:  phone.NormalizeE164(row.Phone),
		Email:  row.Email,
		Status: domain.StatusNew,
		Source: row.Source,
	})
	return err
}

// Refresh re-fetches the collection and re-resolves the open lead against
// it. The project list rides along; its failure degrades to the previous
// value because the export lookup tolerates unresolved references anyway.
func (e *Engine) Refresh(ctx context.Context) error {
	var (
		leads    []domain.Lead
		projects []domain.ProjectRef
		projErr  error
	)

	var g errgroup.Group
	var leadsErr error
	g.Go(func() error {
		leads, leadsErr = e.store.ListLeads(ctx)
		return nil
	})
	g.Go(func() error {
		projects, projErr = e.store.ListProjects(ctx)
		return nil
	})
	_ = g.Wait()

	if leadsErr != nil {
		e.log.RecordServiceError("refresh", "", leadsErr)
		return apperr.Wrap(apperr.KindUnavailable, "could not refresh leads", leadsErr)
	}

	e.mu.Lock()
	e.leads = leads
	if projErr == nil {
		e.projects = projects
	}
	e.state = selection.Reduce(e.state, selection.CollectionRefreshed{Leads: leads})
	e.mu.Unlock()

	return nil
}

// List returns the filtered, sorted view of the cached collection.
func (e *Engine) List(f pipeline.Filters) []domain.Lead {
	e.mu.Lock()
	snapshot := make([]domain.Lead, len(e.leads))
	copy(snapshot, e.leads)
	e.mu.Unlock()

	return pipeline.Apply(snapshot, f)
}

// Stats summarizes the unfiltered collection.
func (e *Engine) Stats() transport.LeadStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := transport.LeadStats{Total: len(e.leads)}
	weekAgo := time.Now().AddDate(0, 0, -7)
	for _, lead := range e.leads {
		if lead.Status == domain.StatusNew {
			stats.New++
		}
		if lead.CreatedTime().After(weekAgo) {
			stats.ThisWeek++
		}
	}
	return stats
}

// ExportCSV serializes the current filtered view. The payload carries the
// UTF-8 BOM; the filename embeds the export date.
func (e *Engine) ExportCSV(f pipeline.Filters, now time.Time) (string, string) {
	leads := e.List(f)

	e.mu.Lock()
	projects := make([]domain.ProjectRef, len(e.projects))
	copy(projects, e.projects)
	e.mu.Unlock()

	return csvio.ExportFilename(now), csvio.Export(leads, projects)
}

// Import runs a CSV import batch and requests a refresh so the new rows
// appear. Row accounting comes back even when some rows were skipped.
func (e *Engine) Import(ctx context.Context, text string) (importer.Result, error) {
	result, err := e.importer.Run(ctx, text)
	if err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "הייבוא נכשל")
		return result, err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess,
		fmt.Sprintf("יובאו %d לידים, דולגו %d", result.Imported, result.Skipped))
	e.bus.Publish(ctx, events.NewImportCompleted(result.BatchID, result.Imported, result.Skipped))
	e.requestRefresh(ctx, "import")
	return result, nil
}

// Open opens a lead for detail viewing and fetches its notes and reminders
// with two concurrent calls. Read failures degrade to empty lists; the
// detail view is never blocked by a missing sub-resource.
func (e *Engine) Open(ctx context.Context, id string) (transport.LeadDetailResponse, error) {
	e.mu.Lock()
	lead, ok := e.findLocked(id)
	if !ok {
		e.mu.Unlock()
		return transport.LeadDetailResponse{}, apperr.NotFound("lead not found")
	}
	e.state = selection.Reduce(e.state, selection.Opened{Lead: lead})
	e.mu.Unlock()

	notes := []domain.Note{}
	reminders := []domain.Reminder{}

	var g errgroup.Group
	g.Go(func() error {
		if fetched, err := e.records.ListNotes(ctx, id); err == nil && fetched != nil {
			notes = fetched
		} else if err != nil {
			e.log.RecordServiceError("list_notes", id, err)
		}
		return nil
	})
	g.Go(func() error {
		if fetched, err := e.records.ListReminders(ctx, id); err == nil && fetched != nil {
			reminders = fetched
		} else if err != nil {
			e.log.RecordServiceError("list_reminders", id, err)
		}
		return nil
	})
	_ = g.Wait()

	return transport.LeadDetailResponse{
		Lead:      transport.ToLeadResponse(lead),
		Notes:     notes,
		Reminders: reminders,
	}, nil
}

// OpenFromQuery honors the selected=<id> URL parameter: it opens the lead
// at most once per session, and only when the id exists in the current
// collection. The bool reports whether a view was opened.
func (e *Engine) OpenFromQuery(ctx context.Context, id string) (transport.LeadDetailResponse, bool, error) {
	e.mu.Lock()
	if e.querySelectionDone {
		e.mu.Unlock()
		return transport.LeadDetailResponse{}, false, nil
	}
	e.querySelectionDone = true
	_, ok := e.findLocked(id)
	e.mu.Unlock()

	if !ok {
		return transport.LeadDetailResponse{}, false, nil
	}

	detail, err := e.Open(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, false, err
	}
	return detail, true, nil
}

// Dismiss closes the detail view.
func (e *Engine) Dismiss() {
	e.mu.Lock()
	e.state = selection.Reduce(e.state, selection.Dismissed{})
	e.mu.Unlock()
}

// OpenLead returns the cached snapshot of the open lead, if any. The
// snapshot always reflects the most recent refresh.
func (e *Engine) OpenLead() (domain.Lead, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// ToggleChecked flips one id in the bulk selection set.
func (e *Engine) ToggleChecked(id string) {
	e.mu.Lock()
	e.checked.Toggle(id)
	e.mu.Unlock()
}

// CheckedIDs returns the bulk selection in stable order.
func (e *Engine) CheckedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checked.IDs()
}

// BulkUpdateStatus applies one status to every checked lead. On overall
// success the selection clears and a refresh is requested; any failure
// surfaces as a single coalesced notification.
func (e *Engine) BulkUpdateStatus(ctx context.Context, status domain.LeadStatus) (bulk.Result, error) {
	ids := e.CheckedIDs()
	result, err := e.bulkOps.UpdateStatus(ctx, ids, status)
	e.bus.Publish(ctx, events.NewBulkCompleted("update_status", result.Requested, result.FailedIDs))
	if err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "עדכון הסטטוס נכשל")
		return result, err
	}

	e.clearChecked()
	e.notifier.Notify(ctx, notify.LevelSuccess, "הסטטוס עודכן לכל הלידים שנבחרו")
	e.requestRefresh(ctx, "bulk_status")
	return result, nil
}

// BulkDelete deletes every checked lead, same reporting model as
// BulkUpdateStatus.
func (e *Engine) BulkDelete(ctx context.Context) (bulk.Result, error) {
	ids := e.CheckedIDs()
	result, err := e.bulkOps.Delete(ctx, ids)
	e.bus.Publish(ctx, events.NewBulkCompleted("delete", result.Requested, result.FailedIDs))
	if err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "מחיקת הלידים נכשלה")
		return result, err
	}

	e.clearChecked()
	e.notifier.Notify(ctx, notify.LevelSuccess, "הלידים שנבחרו נמחקו")
	e.requestRefresh(ctx, "bulk_delete")
	return result, nil
}

// CreateLead validates and submits a manual lead creation.
func (e *Engine) CreateLead(ctx context.Context, req transport.CreateLeadRequest) (domain.Lead, error) {
	if err := e.val.Struct(req); err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindValidation, "invalid lead", err)
	}

	lead, err := e.store.CreateLead(ctx, recordservice.CreateLeadParams{
		Name:                req.Name,
		Phone:               phone.NormalizeE164(req.Phone),
		Email:               req.Email,
		Status:              domain.StatusNew,
		Priority:            domain.LeadPriority(req.Priority),
		Source:              domain.LeadSource(req.Source),
		InvestmentGoal:      domain.InvestmentGoal(req.InvestmentGoal),
		BudgetRange:         req.BudgetRange,
		Notes:               req.Notes,
		Tags:                req.Tags,
		InterestedProjectID: req.InterestedProjectID,
	})
	if err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "יצירת הליד נכשלה")
		return domain.Lead{}, err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "הליד נוצר בהצלחה")
	e.requestRefresh(ctx, "create")
	return lead, nil
}

// ChangeStatus updates one lead's status and then writes the audit note.
// The two calls are not atomic; the note shares the update's error handler,
// so its failure is not surfaced distinctly.
func (e *Engine) ChangeStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	if !status.Valid() {
		return apperr.Validation("unknown lead status")
	}

	st := status
	if _, err := e.store.UpdateLead(ctx, id, recordservice.UpdateLeadParams{Status: &st}); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "עדכון הסטטוס נכשל")
		return err
	}

	_, noteErr := e.records.CreateNote(ctx, id, recordservice.CreateNoteParams{
		Type:      domain.NoteTypeStatusChange,
		Content:   "הסטטוס שונה ל: " + status.Label(),
		CreatedBy: actorFrom(ctx),
	})
	if noteErr != nil {
		e.notifier.Notify(ctx, notify.LevelError, "עדכון הסטטוס נכשל")
		return noteErr
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "הסטטוס עודכן")
	e.requestRefresh(ctx, "status_change")
	return nil
}

// UpdateLead applies a partial field update to one lead.
func (e *Engine) UpdateLead(ctx context.Context, id string, req transport.UpdateLeadRequest) error {
	if err := e.val.Struct(req); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid update", err)
	}

	params := recordservice.UpdateLeadParams{
		Name:                req.Name,
		Phone:               req.Phone,
		Email:               req.Email,
		BudgetRange:         req.BudgetRange,
		Notes:               req.Notes,
		Tags:                req.Tags,
		InterestedProjectID: req.InterestedProjectID,
	}
	if req.Priority != nil {
		p := domain.LeadPriority(*req.Priority)
		params.Priority = &p
	}
	if req.Source != nil {
		s := domain.LeadSource(*req.Source)
		params.Source = &s
	}
	if req.InvestmentGoal != nil {
		g := domain.InvestmentGoal(*req.InvestmentGoal)
		params.InvestmentGoal = &g
	}

	if _, err := e.store.UpdateLead(ctx, id, params); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "עדכון הליד נכשל")
		return err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "הליד עודכן")
	e.requestRefresh(ctx, "update")
	return nil
}

// AddTag appends one tag to a lead. Duplicates are rejected here, at add
// time; the store keeps whatever shape it already has.
func (e *Engine) AddTag(ctx context.Context, id string, tag string) error {
	e.mu.Lock()
	lead, ok := e.findLocked(id)
	e.mu.Unlock()
	if !ok {
		return apperr.NotFound("lead not found")
	}
	if lead.HasTag(tag) {
		return apperr.Validation("tag already exists")
	}

	tags := append(domain.ParseTags(lead.Tags), tag)
	if _, err := e.store.UpdateLead(ctx, id, recordservice.UpdateLeadParams{Tags: &tags}); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "הוספת התגית נכשלה")
		return err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "התגית נוספה")
	e.requestRefresh(ctx, "tag_add")
	return nil
}

// RemoveTag removes one tag from a lead.
func (e *Engine) RemoveTag(ctx context.Context, id string, tag string) error {
	e.mu.Lock()
	lead, ok := e.findLocked(id)
	e.mu.Unlock()
	if !ok {
		return apperr.NotFound("lead not found")
	}

	tags := make([]string, 0)
	for _, existing := range domain.ParseTags(lead.Tags) {
		if existing != tag {
			tags = append(tags, existing)
		}
	}
	if _, err := e.store.UpdateLead(ctx, id, recordservice.UpdateLeadParams{Tags: &tags}); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "הסרת התגית נכשלה")
		return err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "התגית הוסרה")
	e.requestRefresh(ctx, "tag_remove")
	return nil
}

// AddNote creates a free-form note on a lead.
func (e *Engine) AddNote(ctx context.Context, id string, req transport.CreateNoteRequest) (domain.Note, error) {
	if err := e.val.Struct(req); err != nil {
		return domain.Note{}, apperr.Wrap(apperr.KindValidation, "invalid note", err)
	}
	noteType := req.Type
	if noteType == "" {
		noteType = "note"
	}

	note, err := e.records.CreateNote(ctx, id, recordservice.CreateNoteParams{
		Type:      noteType,
		Content:   req.Content,
		CreatedBy: actorFrom(ctx),
	})
	if err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "הוספת ההערה נכשלה")
		return domain.Note{}, err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "ההערה נוספה")
	return note, nil
}

// DeleteNote removes a note.
func (e *Engine) DeleteNote(ctx context.Context, noteID string) error {
	if err := e.records.DeleteNote(ctx, noteID); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "מחיקת ההערה נכשלה")
		return err
	}
	e.notifier.Notify(ctx, notify.LevelSuccess, "ההערה נמחקה")
	return nil
}

// AddReminder creates a reminder on a lead.
func (e *Engine) AddReminder(ctx context.Context, id string, req transport.CreateReminderRequest) (domain.Reminder, error) {
	if err := e.val.Struct(req); err != nil {
		return domain.Reminder{}, apperr.Wrap(apperr.KindValidation, "invalid reminder", err)
	}

	reminder, err := e.records.CreateReminder(ctx, id, recordservice.CreateReminderParams{
		DueDate:   req.DueDate,
		Title:     req.Title,
		CreatedBy: actorFrom(ctx),
	})
	if err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "הוספת התזכורת נכשלה")
		return domain.Reminder{}, err
	}

	e.notifier.Notify(ctx, notify.LevelSuccess, "התזכורת נוספה")
	return reminder, nil
}

// CompleteReminder toggles a reminder's completion.
func (e *Engine) CompleteReminder(ctx context.Context, reminderID string, completed bool) error {
	params := recordservice.CompleteReminderParams{IsCompleted: completed}
	if completed {
		params.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := e.records.UpdateReminder(ctx, reminderID, params); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "עדכון התזכורת נכשל")
		return err
	}
	e.notifier.Notify(ctx, notify.LevelSuccess, "התזכורת עודכנה")
	return nil
}

// DeleteReminder removes a reminder.
func (e *Engine) DeleteReminder(ctx context.Context, reminderID string) error {
	if err := e.records.DeleteReminder(ctx, reminderID); err != nil {
		e.notifier.Notify(ctx, notify.LevelError, "מחיקת התזכורת נכשלה")
		return err
	}
	e.notifier.Notify(ctx, notify.LevelSuccess, "התזכורת נמחקה")
	return nil
}

func (e *Engine) clearChecked() {
	e.mu.Lock()
	e.checked.Clear()
	e.mu.Unlock()
}

func (e *Engine) requestRefresh(ctx context.Context, reason string) {
	e.bus.Publish(ctx, events.NewRefreshRequested(reason))
}

// findLocked looks up a lead in the cached collection. Callers hold e.mu.
func (e *Engine) findLocked(id string) (domain.Lead, bool) {
	for _, lead := range e.leads {
		if lead.ID == id {
			return lead, true
		}
	}
	return domain.Lead{}, false
}

func actorFrom(ctx context.Context) string {
	if userID, ok := ctx.Value(logger.UserIDKey).(string); ok && userID != "" {
		return userID
	}
	return "admin"
}
