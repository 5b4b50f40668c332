package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Joseda-hg/listkeeper/internal/auth"
	"github.com/Joseda-hg/listkeeper/internal/client"
	"github.com/Joseda-hg/listkeeper/internal/clock"
	"github.com/Joseda-hg/listkeeper/internal/db"
	"github.com/Joseda-hg/listkeeper/internal/flash"
	"github.com/Joseda-hg/listkeeper/internal/model"
	"github.com/Joseda-hg/listkeeper/internal/web"
)

func TestCreateListThroughDialog(t *testing.T) {
	ui, backend, clk := newTestUI(t)
	ui.refreshAll()
	ui.focus = viewLists

	if err := ui.addItem(nil, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if ui.formKind != formList || ui.listDialog.state() != dialogCreating {
		t.Fatalf("expected list dialog in creating state, got %v", ui.listDialog.state())
	}
	ui.setFormText("Groceries")

	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.formKind != formNone || ui.listDialog.state() != dialogIdle {
		t.Fatalf("expected dialog closed after save, got %v", ui.listDialog.state())
	}
	if msg := ui.toast.current(); msg.Success != "List created successfully." {
		t.Fatalf("expected success toast, got %+v", msg)
	}
	lists := ui.lists.items()
	if len(lists) != 1 || lists[0].Title != "Groceries" {
		t.Fatalf("expected Groceries first, got %+v", lists)
	}

	clk.Advance(toastDuration)
	if msg := ui.toast.current(); !msg.Empty() {
		t.Fatalf("expected toast dismissed after 3000ms, got %+v", msg)
	}

	page, msg, err := backend.ListLists(context.Background(), model.Filter{}, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || !msg.Empty() {
		t.Fatalf("expected flash consumed by the create response, got %+v %+v", page, msg)
	}
}

func TestSubmitValidationKeepsDialogOpen(t *testing.T) {
	ui, _, _ := newTestUI(t)
	ui.refreshAll()
	ui.focus = viewLists

	_ = ui.addItem(nil, nil)
	ui.setFormText("   ")
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if ui.listDialog.state() != dialogCreating {
		t.Fatalf("expected dialog back in creating state, got %v", ui.listDialog.state())
	}
	if ui.listDialog.errs.First("title") == "" {
		t.Fatalf("expected title error attached, got %+v", ui.listDialog.errs)
	}
	if !ui.listDialog.canSubmit() {
		t.Fatalf("expected submit re-enabled")
	}
	if msg := ui.toast.current(); !msg.Empty() {
		t.Fatalf("expected no toast on validation failure, got %+v", msg)
	}
	if len(ui.lists.items()) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestLazyListTasksAndToggle(t *testing.T) {
	ui, backend, _ := newTestUI(t)
	ctx := context.Background()
	list, _, err := backend.CreateList(ctx, model.ListInput{Title: "Groceries"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if _, _, err := backend.CreateTask(ctx, model.TaskInput{Title: "Buy milk", ListID: list.ID, DueDate: "2026-10-05"}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	ui.refreshAll()
	ui.focus = viewLists
	if len(ui.listTasks.items()) != 0 {
		t.Fatalf("expected list tasks to load lazily")
	}
	if err := ui.openSelectedList(nil, nil); err != nil {
		t.Fatalf("open list: %v", err)
	}
	if ui.focus != viewListTasks || ui.openList == nil || ui.openList.ID != list.ID {
		t.Fatalf("expected list tasks focused for %d", list.ID)
	}
	tasks := ui.listTasks.items()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Fatalf("unexpected list tasks %+v", tasks)
	}

	if err := ui.toggleCompleted(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	toggled := ui.listTasks.items()[0]
	if !toggled.IsCompleted {
		t.Fatalf("expected task completed")
	}
	if toggled.DueDate == nil || toggled.DueDate.Format(model.DateLayout) != "2026-10-05" || toggled.Title != "Buy milk" {
		t.Fatalf("expected other fields untouched, got %+v", toggled)
	}
	if msg := ui.toast.current(); msg.Success != "Task updated successfully." {
		t.Fatalf("expected update toast, got %+v", msg)
	}

	if err := ui.cycleFilter(nil, nil); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if ui.listTasks.query.Status != model.StatusPending || len(ui.listTasks.items()) != 0 {
		t.Fatalf("expected pending filter to hide the completed task, got %+v", ui.listTasks.items())
	}
}

func TestLazyLoadFailureShowsErrorToast(t *testing.T) {
	ui, backend, _ := newTestUI(t)
	flaky := &flakyBackend{Backend: backend, failures: 1}
	ui.backend = flaky

	list, _, err := backend.CreateList(context.Background(), model.ListInput{Title: "Groceries"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if _, _, err := backend.CreateTask(context.Background(), model.TaskInput{Title: "Buy bread", ListID: list.ID}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	ui.refreshAll()
	ui.focus = viewLists

	_ = ui.openSelectedList(nil, nil)
	if !ui.listTasksFailed {
		t.Fatalf("expected failure to be recorded")
	}
	if msg := ui.toast.current(); !msg.IsError() {
		t.Fatalf("expected error toast, got %+v", msg)
	}
	if len(ui.lists.items()) != 1 {
		t.Fatalf("expected list to stay visible without task detail")
	}

	ui.focus = viewLists
	_ = ui.openSelectedList(nil, nil)
	if ui.listTasksFailed || len(ui.listTasks.items()) != 1 {
		t.Fatalf("expected retry to load tasks, got %+v", ui.listTasks.items())
	}
}

func TestEditOfDeletedTaskClosesDialog(t *testing.T) {
	ui, backend, _ := newTestUI(t)
	ctx := context.Background()
	list, _, _ := backend.CreateList(ctx, model.ListInput{Title: "Groceries"})
	task, _, err := backend.CreateTask(ctx, model.TaskInput{Title: "Buy milk", ListID: list.ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	ui.refreshAll()
	ui.focus = viewTasks
	if err := ui.editItem(nil, nil); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if ui.taskDialog.state() != dialogEditing || ui.taskDialog.target() != task.ID {
		t.Fatalf("expected editing dialog for task %d", task.ID)
	}
	ui.setFormText("Buy oat milk")

	if _, err := backend.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ui.submitForm(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if ui.taskDialog.state() != dialogIdle || ui.formKind != formNone {
		t.Fatalf("expected dialog closed after not found")
	}
	if msg := ui.toast.current(); msg.Error != "Task not found." {
		t.Fatalf("expected not found toast, got %+v", msg)
	}
	if len(ui.tasks.items()) != 0 {
		t.Fatalf("expected stale task to be gone from the pane")
	}
}

func TestSearchAndPaging(t *testing.T) {
	ui, backend, clk := newTestUI(t)
	ctx := context.Background()
	list, _, _ := backend.CreateList(ctx, model.ListInput{Title: "Groceries"})
	for _, title := range []string{"Buy milk", "Buy bread", "Call mom"} {
		clk.Advance(time.Second)
		if _, _, err := backend.CreateTask(ctx, model.TaskInput{Title: title, ListID: list.ID}); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}

	ui.refreshAll()
	ui.focus = viewTasks
	if !ui.tasks.hasNext() || ui.tasks.hasPrev() {
		t.Fatalf("expected next enabled and prev disabled on page 1")
	}
	ui.selectedTask = 1
	if err := ui.nextPage(nil, nil); err != nil {
		t.Fatalf("next: %v", err)
	}
	if ui.tasks.page.CurrentPage != 2 || len(ui.tasks.items()) != 1 {
		t.Fatalf("expected page 2 with one task, got %+v", ui.tasks.page)
	}
	if ui.tasks.hasNext() {
		t.Fatalf("expected next disabled on the last page")
	}
	if ui.selectedTask != 0 {
		t.Fatalf("expected cursor clamped to the shorter page, got %d", ui.selectedTask)
	}

	if err := ui.applySearch(nil, "  BUY "); err != nil {
		t.Fatalf("search: %v", err)
	}
	if ui.tasks.query.Search != "BUY" || ui.tasks.page.CurrentPage != 1 || ui.tasks.page.Total != 2 {
		t.Fatalf("unexpected search result %+v", ui.tasks.page)
	}
}

func TestRenderHelpers(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	if got := formatDue(&due, now); got != "2026-10-01 (today)" {
		t.Fatalf("unexpected due label %q", got)
	}
	if got := formatDue(nil, now); got != "n/a" {
		t.Fatalf("unexpected empty due label %q", got)
	}
	page := model.Page[model.Task]{CurrentPage: 2, LastPage: 3, PerPage: 15, Total: 1234, From: 16, To: 30}
	if got := formatPageLabel(page); got != "16-30 of 1,234 | page 2/3" {
		t.Fatalf("unexpected page label %q", got)
	}
	task := model.Task{Title: "Buy milk", IsCompleted: true, DueDate: &due}
	if got := formatTaskSummary(task); got != "[x] Buy milk | due 2026-10-01" {
		t.Fatalf("unexpected summary %q", got)
	}
}

type flakyBackend struct {
	Backend
	failures int
}

func (f *flakyBackend) ListListTasks(ctx context.Context, listID int64, filter model.Filter, page int) (model.Page[model.Task], flash.Message, error) {
	if f.failures > 0 {
		f.failures--
		return model.Page[model.Task]{}, flash.Message{}, errors.New("connection reset")
	}
	return f.Backend.ListListTasks(ctx, listID, filter, page)
}

func newTestUI(t *testing.T) (*UI, *client.Client, *clock.FakeClock) {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	clk := clock.Fake(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	issuer, err := auth.NewIssuer("tui-test-secret-0123456789", time.Hour, clk)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := db.NewStore(conn, db.WithClock(clk), db.WithPageSize(2))
	srv := httptest.NewServer(web.NewServer(store, issuer, web.WithLogger(logger)).Handler())

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	backend := client.New(srv.URL, token, client.WithHTTPClient(srv.Client()))
	ui := newUI(backend, logger, clk)
	t.Cleanup(func() {
		ui.toast.stop()
		srv.Close()
		_ = conn.Close()
	})
	return ui, backend, clk
}
