package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/listkeeper/internal/client"
	"github.com/Joseda-hg/listkeeper/internal/clock"
	"github.com/Joseda-hg/listkeeper/internal/flash"
	"github.com/Joseda-hg/listkeeper/internal/model"
)

const (
	viewHeader    = "header"
	viewFooter    = "footer"
	viewLists     = "lists"
	viewListTasks = "listTasks"
	viewTasks     = "tasks"
	viewDetail    = "detail"
	viewSearch    = "search"
	viewForm      = "form"
	viewHelp      = "help"
)

// Backend is the API the UI drives. *client.Client implements it.
type Backend interface {
	ListLists(ctx context.Context, filter model.Filter, page int) (model.Page[model.List], flash.Message, error)
	ListListTasks(ctx context.Context, listID int64, filter model.Filter, page int) (model.Page[model.Task], flash.Message, error)
	ListTasks(ctx context.Context, filter model.Filter, page int) (model.Page[model.Task], flash.Message, error)
	CreateList(ctx context.Context, input model.ListInput) (model.List, flash.Message, error)
	UpdateList(ctx context.Context, id int64, input model.ListInput) (model.List, flash.Message, error)
	DeleteList(ctx context.Context, id int64) (flash.Message, error)
	CreateTask(ctx context.Context, input model.TaskInput) (model.Task, flash.Message, error)
	UpdateTask(ctx context.Context, id int64, input model.TaskInput) (model.Task, flash.Message, error)
	DeleteTask(ctx context.Context, id int64) (flash.Message, error)
	TaskHistory(ctx context.Context, id int64) ([]model.HistoryEntry, error)
}

type formKind int

const (
	formNone formKind = iota
	formList
	formTask
)

type UI struct {
	backend Backend
	gui     *gocui.Gui
	logger  *slog.Logger
	clock   clock.Clock
	toast   *toast

	lists     *browser[model.List]
	tasks     *browser[model.Task]
	listTasks *browser[model.Task]

	// openList is a copy of the list whose tasks fill the list tasks pane.
	openList        *model.List
	listTasksFailed bool

	selectedList     int
	selectedListTask int
	selectedTask     int
	focus            string

	history    []model.HistoryEntry
	historyFor int64

	listDialog dialog[ListForm]
	taskDialog dialog[TaskForm]
	formKind   formKind
	formIndex  int
	formEditor *formEditor

	searchActive bool
	helpActive   bool
}

type formEditor struct {
	ui *UI
}

func newUI(backend Backend, logger *slog.Logger, c clock.Clock) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.Real()
	}
	ui := &UI{
		backend:   backend,
		logger:    logger,
		clock:     c,
		lists:     newBrowser[model.List](),
		tasks:     newBrowser[model.Task](),
		listTasks: newBrowser[model.Task](),
		focus:     viewLists,
	}
	ui.toast = newToast(c, ui.redraw)
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(backend Backend, logger *slog.Logger) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(backend, logger, clock.Real())
	ui.gui = gui
	defer ui.toast.stop()
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.refreshAll()

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

// run performs work off the main loop and applies its result on it. Without
// a gui (tests) both happen inline.
func (u *UI) run(work func(ctx context.Context) func()) {
	if u.gui == nil {
		work(context.Background())()
		return
	}
	go func() {
		apply := work(context.Background())
		u.gui.Update(func(*gocui.Gui) error {
			apply()
			return nil
		})
	}()
}

func (u *UI) redraw() {
	if u.gui == nil {
		return
	}
	u.gui.Update(func(*gocui.Gui) error { return nil })
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'g', gocui.ModNone, u.clearFilters); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.addItem); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'e', gocui.ModNone, u.editItem); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'd', gocui.ModNone, u.deleteItem); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'x', gocui.ModNone, u.toggleCompleted); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'f', gocui.ModNone, u.cycleFilter); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'n', gocui.ModNone, u.nextPage); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'p', gocui.ModNone, u.prevPage); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'h', gocui.ModNone, u.loadHistory); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '/', gocui.ModNone, u.startSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", gocui.KeyTab, gocui.ModNone, u.switchFocus); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '1', gocui.ModNone, u.focusLists); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '2', gocui.ModNone, u.focusListTasks); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '3', gocui.ModNone, u.focusTasks); err != nil {
		return err
	}
	for _, name := range []string{viewLists, viewListTasks, viewTasks} {
		if err := gui.SetKeybinding(name, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'j', gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'k', gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowRight, gocui.ModNone, u.nextPage); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowLeft, gocui.ModNone, u.prevPage); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewLists, gocui.KeyEnter, gocui.ModNone, u.openSelectedList); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEnter, gocui.ModNone, u.submitSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEsc, gocui.ModNone, u.cancelSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyCtrlJ, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	for _, name := range []string{viewLists, viewListTasks, viewTasks} {
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: name, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, name, opts)
		}}); err != nil {
			return err
		}
	}
	return u.bindMouseScroll(gui)
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	layout := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX0 := 0
	leftX1 := leftX0 + layout.leftWidth - 1
	rightX0 := leftX1 + 1
	if rightX0 >= maxX {
		rightX0 = leftX1
	}
	rightX1 := maxX - 1

	listsY0 := bodyTop
	listsY1 := listsY0 + layout.listsHeight - 1
	listTasksY0 := listsY1 + 1
	listTasksY1 := bodyBottom
	tasksY0 := bodyTop
	tasksY1 := tasksY0 + layout.tasksHeight - 1
	detailY0 := tasksY1 + 1
	detailY1 := bodyBottom

	listsView, err := gui.SetView(viewLists, leftX0, listsY0, leftX1, listsY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	listsView.Title = "1 Lists " + formatPageLabel(u.lists.page)
	applyViewStyle(listsView, u.focus == viewLists, true)
	u.renderLists(listsView)

	listTasksView, err := gui.SetView(viewListTasks, leftX0, listTasksY0, leftX1, listTasksY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	listTasksView.Title = "2 " + u.listTasksTitle()
	applyViewStyle(listTasksView, u.focus == viewListTasks, true)
	u.renderTaskList(listTasksView, u.listTasks.items(), u.selectedListTask, u.focus == viewListTasks)
	if u.openList == nil {
		fmt.Fprint(listTasksView, "Press enter on a list to load its tasks")
	} else if u.listTasksFailed {
		fmt.Fprint(listTasksView, "Tasks could not be loaded. Press enter on the list to retry.")
	}

	tasksView, err := gui.SetView(viewTasks, rightX0, tasksY0, rightX1, tasksY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = "3 Tasks " + formatPageLabel(u.tasks.page)
	applyViewStyle(tasksView, u.focus == viewTasks, true)
	u.renderTaskList(tasksView, u.tasks.items(), u.selectedTask, u.focus == viewTasks)

	detailView, err := gui.SetView(viewDetail, rightX0, detailY0, rightX1, detailY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Detail"
		detailView.Wrap = true
	}
	applyViewStyle(detailView, false, false)
	u.renderDetail(detailView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.formKind != formNone {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.searchActive || u.formKind != formNone

	return nil
}

type layout struct {
	leftWidth   int
	listsHeight int
	tasksHeight int
}

func computeLayout(width, height int) layout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, 8)

	leftWidth := safeWidth * 2 / 5
	if leftWidth < 26 {
		leftWidth = 26
	}
	if leftWidth > safeWidth-18 {
		leftWidth = safeWidth / 2
	}

	listsHeight := max(safeHeight/2, 4)
	tasksHeight := max(int(float64(safeHeight)*0.55), 4)

	return layout{leftWidth: leftWidth, listsHeight: listsHeight, tasksHeight: tasksHeight}
}

// refreshAll reloads every pane with its current query.
func (u *UI) refreshAll() {
	u.loadLists(u.lists.reload())
	u.loadTasks(u.tasks.reload())
	if u.openList != nil {
		u.loadListTasks(u.listTasks.reload())
	}
}

func (u *UI) loadLists(req request) {
	u.run(func(ctx context.Context) func() {
		page, msg, err := u.backend.ListLists(ctx, req.query.filter(), req.query.Page)
		return func() {
			if u.lists.stale(req) {
				return
			}
			if err != nil {
				u.fetchFailed("lists", err)
				return
			}
			u.lists.apply(req, page)
			u.selectedList = clampIndex(u.selectedList, len(page.Data))
			u.toast.show(msg)
		}
	})
}

func (u *UI) loadTasks(req request) {
	u.run(func(ctx context.Context) func() {
		page, msg, err := u.backend.ListTasks(ctx, req.query.filter(), req.query.Page)
		return func() {
			if u.tasks.stale(req) {
				return
			}
			if err != nil {
				u.fetchFailed("tasks", err)
				return
			}
			u.tasks.apply(req, page)
			u.selectedTask = clampIndex(u.selectedTask, len(page.Data))
			u.toast.show(msg)
		}
	})
}

// loadListTasks lazily fetches the tasks of the open list. A failure leaves
// the list without task detail until the user retries.
func (u *UI) loadListTasks(req request) {
	if u.openList == nil {
		return
	}
	target := u.listTasks
	listID := u.openList.ID
	u.run(func(ctx context.Context) func() {
		page, msg, err := u.backend.ListListTasks(ctx, listID, req.query.filter(), req.query.Page)
		return func() {
			if u.listTasks != target || target.stale(req) {
				return
			}
			if errors.Is(err, client.ErrNotFound) {
				u.toast.show(flash.Error(err.Error()))
				u.closeOpenList()
				u.loadLists(u.lists.reload())
				return
			}
			if err != nil {
				u.listTasksFailed = true
				u.fetchFailed("list tasks", err)
				return
			}
			u.listTasksFailed = false
			target.apply(req, page)
			u.selectedListTask = clampIndex(u.selectedListTask, len(page.Data))
			u.toast.show(msg)
		}
	})
}

func (u *UI) fetchFailed(what string, err error) {
	u.logger.Error("fetch failed", "what", what, "err", err)
	u.toast.show(flash.Error(fmt.Sprintf("Could not load %s.", what)))
}

func (u *UI) closeOpenList() {
	u.openList = nil
	u.listTasks = newBrowser[model.Task]()
	u.listTasksFailed = false
	u.selectedListTask = 0
}

func (u *UI) openSelectedList(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedListItem()
	if selected == nil {
		return nil
	}
	if u.openList == nil || u.openList.ID != selected.ID {
		u.closeOpenList()
		list := *selected
		u.openList = &list
	}
	u.loadListTasks(u.listTasks.reload())
	return u.setFocus(gui, viewListTasks)
}

func (u *UI) listTasksTitle() string {
	if u.openList == nil {
		return "List Tasks"
	}
	return fmt.Sprintf("%s %s", u.openList.Title, formatPageLabel(u.listTasks.page))
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	b := u.focusedBrowserQuery()
	search := b.Search
	if search == "" {
		search = "type / to search"
	}
	fmt.Fprintf(view, "Search: %s | Filter: %s | Page: %d", search, b.Status, b.Page)
}

func (u *UI) focusedBrowserQuery() query {
	switch u.focus {
	case viewListTasks:
		return u.listTasks.query
	case viewTasks:
		return u.tasks.query
	default:
		return u.lists.query
	}
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | d delete | x done | enter open list | / search | f filter | n/p page | h history")
	fmt.Fprintln(view, "r reload | g clear | tab cycle | 1-3 panes | ? help | q quit")
	if msg := u.toast.current(); !msg.Empty() {
		if msg.IsError() {
			fmt.Fprintf(view, "✖ %s", msg.Text())
		} else {
			fmt.Fprintf(view, "✔ %s", msg.Text())
		}
	}
}

func (u *UI) renderLists(view *gocui.View) {
	view.Clear()
	focused := u.focus == viewLists
	for i, list := range u.lists.items() {
		prefix := " "
		if i == u.selectedList {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		marker := " "
		if u.openList != nil && u.openList.ID == list.ID {
			marker = "▸"
		}
		fmt.Fprintf(view, "%s %s %s\n", prefix, marker, formatListSummary(list))
	}
	if focused {
		view.SetCursor(0, max(min(u.selectedList, len(u.lists.items())-1), 0))
	}
}

func (u *UI) renderTaskList(view *gocui.View, tasks []model.Task, selected int, focused bool) {
	view.Clear()
	for i, task := range tasks {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(task))
	}
	if focused {
		view.SetCursor(0, max(min(selected, len(tasks)-1), 0))
	}
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	now := u.clock.Now()
	var lines []string
	switch u.focus {
	case viewLists:
		if list := u.selectedListItem(); list != nil {
			lines = listDetailLines(*list, now)
		}
	default:
		if task := u.selectedTaskItem(); task != nil {
			var history []model.HistoryEntry
			if u.historyFor == task.ID {
				history = u.history
			}
			lines = taskDetailLines(*task, u.listTitle(task.ListID), history, now)
		}
	}
	if len(lines) == 0 {
		fmt.Fprint(view, "Nothing selected")
		return
	}
	fmt.Fprint(view, strings.Join(lines, "\n"))
}

func (u *UI) listTitle(id int64) string {
	if u.openList != nil && u.openList.ID == id {
		return u.openList.Title
	}
	for _, list := range u.lists.items() {
		if list.ID == id {
			return list.Title
		}
	}
	return ""
}

func (u *UI) selectedListItem() *model.List {
	items := u.lists.items()
	if u.selectedList < 0 || u.selectedList >= len(items) {
		return nil
	}
	list := items[u.selectedList]
	return &list
}

// selectedTaskItem returns a copy of the task under the cursor of the focused
// task pane.
func (u *UI) selectedTaskItem() *model.Task {
	var items []model.Task
	var index int
	switch u.focus {
	case viewListTasks:
		items, index = u.listTasks.items(), u.selectedListTask
	case viewTasks:
		items, index = u.tasks.items(), u.selectedTask
	default:
		return nil
	}
	if index < 0 || index >= len(items) {
		return nil
	}
	task := items[index]
	return &task
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)

	switch viewName {
	case viewLists:
		u.selectedList = clampIndex(row, len(u.lists.items()))
	case viewListTasks:
		u.selectedListTask = clampIndex(row, len(u.listTasks.items()))
	case viewTasks:
		u.selectedTask = clampIndex(row, len(u.tasks.items()))
	default:
		return nil
	}
	return u.setFocus(gui, viewName)
}

func (u *UI) bindMouseScroll(gui *gocui.Gui) error {
	for _, name := range []string{viewLists, viewListTasks, viewTasks, viewDetail} {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	order := []string{viewLists, viewListTasks, viewTasks}
	next := order[0]
	for i, name := range order {
		if name == u.focus {
			next = order[(i+1)%len(order)]
			break
		}
	}
	return u.setFocus(gui, next)
}

func (u *UI) focusLists(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.setFocus(gui, viewLists)
}

func (u *UI) focusListTasks(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.setFocus(gui, viewListTasks)
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.setFocus(gui, viewTasks)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	u.focus = name
	if gui == nil {
		return nil
	}
	_, err := gui.SetCurrentView(name)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewLists:
		u.selectedList = clampIndex(u.selectedList+1, len(u.lists.items()))
	case viewListTasks:
		u.selectedListTask = clampIndex(u.selectedListTask+1, len(u.listTasks.items()))
	case viewTasks:
		u.selectedTask = clampIndex(u.selectedTask+1, len(u.tasks.items()))
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewLists:
		u.selectedList = clampIndex(u.selectedList-1, len(u.lists.items()))
	case viewListTasks:
		u.selectedListTask = clampIndex(u.selectedListTask-1, len(u.listTasks.items()))
	case viewTasks:
		u.selectedTask = clampIndex(u.selectedTask-1, len(u.tasks.items()))
	}
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.refreshAll()
	return nil
}

func (u *UI) clearFilters(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.lists.query.Status = model.StatusAll
	u.loadLists(u.lists.search(""))
	u.tasks.query.Status = model.StatusAll
	u.loadTasks(u.tasks.search(""))
	if u.openList != nil {
		u.listTasks.query.Status = model.StatusAll
		u.loadListTasks(u.listTasks.search(""))
	}
	return nil
}

// navigate sends req for the focused pane's browser.
func (u *UI) navigate(pane string, req request) {
	switch pane {
	case viewLists:
		u.loadLists(req)
	case viewListTasks:
		u.loadListTasks(req)
	case viewTasks:
		u.loadTasks(req)
	}
}

func (u *UI) cycleFilter(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		u.navigate(viewTasks, u.tasks.cycleStatus())
	case viewListTasks:
		if u.openList != nil {
			u.navigate(viewListTasks, u.listTasks.cycleStatus())
		}
	}
	return nil
}

func (u *UI) nextPage(_ *gocui.Gui, _ *gocui.View) error {
	return u.turnPage(1)
}

func (u *UI) prevPage(_ *gocui.Gui, _ *gocui.View) error {
	return u.turnPage(-1)
}

func (u *UI) turnPage(delta int) error {
	if u.inputActive() {
		return nil
	}
	var req request
	var ok bool
	switch u.focus {
	case viewLists:
		req, ok = pageStep(u.lists, delta)
	case viewListTasks:
		if u.openList == nil {
			return nil
		}
		req, ok = pageStep(u.listTasks, delta)
	case viewTasks:
		req, ok = pageStep(u.tasks, delta)
	}
	if ok {
		u.navigate(u.focus, req)
	}
	return nil
}

func pageStep[T any](b *browser[T], delta int) (request, bool) {
	if delta > 0 {
		return b.next()
	}
	return b.prev()
}

func (u *UI) loadHistory(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTaskItem()
	if selected == nil {
		return nil
	}
	taskID := selected.ID
	u.run(func(ctx context.Context) func() {
		history, err := u.backend.TaskHistory(ctx, taskID)
		return func() {
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					u.toast.show(flash.Error(err.Error()))
					u.refreshAll()
					return
				}
				u.fetchFailed("history", err)
				return
			}
			u.history = history
			u.historyFor = taskID
		}
	})
	return nil
}

func (u *UI) startSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewListTasks && u.openList == nil {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	value := ""
	if view != nil {
		value = view.Buffer()
	}
	return u.applySearch(gui, value)
}

func (u *UI) applySearch(gui *gocui.Gui, value string) error {
	u.searchActive = false
	if gui != nil {
		_ = gui.DeleteView(viewSearch)
		_, _ = gui.SetCurrentView(u.focus)
	}
	switch u.focus {
	case viewLists:
		u.navigate(viewLists, u.lists.search(value))
	case viewListTasks:
		if u.openList != nil {
			u.navigate(viewListTasks, u.listTasks.search(value))
		}
	case viewTasks:
		u.navigate(viewTasks, u.tasks.search(value))
	}
	return nil
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewSearch, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search"
		view.Wrap = true
		view.Clear()
		fmt.Fprint(view, u.focusedBrowserQuery().Search)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewSearch)
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.searchActive || u.formKind != formNone {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewHelp, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) addItem(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewLists:
		if u.listDialog.openCreate(ListForm{}) {
			u.openForm(formList)
		}
	default:
		form := TaskForm{}
		if u.openList != nil {
			form.ListID, form.ListTitle = u.openList.ID, u.openList.Title
		} else if list := u.selectedListItem(); list != nil {
			form.ListID, form.ListTitle = list.ID, list.Title
		}
		if u.taskDialog.openCreate(form) {
			u.openForm(formTask)
		}
	}
	return nil
}

func (u *UI) editItem(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewLists:
		list := u.selectedListItem()
		if list == nil {
			return nil
		}
		if u.listDialog.openEdit(list.ID, listFormFrom(*list)) {
			u.openForm(formList)
		}
	default:
		task := u.selectedTaskItem()
		if task == nil {
			return nil
		}
		if u.taskDialog.openEdit(task.ID, taskFormFrom(*task, u.listTitle(task.ListID))) {
			u.openForm(formTask)
		}
	}
	return nil
}

func (u *UI) openForm(kind formKind) {
	u.formKind = kind
	u.formIndex = 0
}

func (u *UI) deleteItem(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewLists:
		list := u.selectedListItem()
		if list == nil {
			return nil
		}
		listID := list.ID
		u.run(func(ctx context.Context) func() {
			msg, err := u.backend.DeleteList(ctx, listID)
			return func() {
				if u.openList != nil && u.openList.ID == listID && (err == nil || errors.Is(err, client.ErrNotFound)) {
					u.closeOpenList()
				}
				u.finishMutation(msg, err)
			}
		})
	default:
		task := u.selectedTaskItem()
		if task == nil {
			return nil
		}
		taskID := task.ID
		u.run(func(ctx context.Context) func() {
			msg, err := u.backend.DeleteTask(ctx, taskID)
			return func() { u.finishMutation(msg, err) }
		})
	}
	return nil
}

// toggleCompleted flips is_completed, sending the full snapshot so no other
// field changes.
func (u *UI) toggleCompleted(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	task := u.selectedTaskItem()
	if task == nil {
		return nil
	}
	input := taskInputFromTask(*task)
	completed := !task.IsCompleted
	input.IsCompleted = &completed
	taskID := task.ID
	u.run(func(ctx context.Context) func() {
		_, msg, err := u.backend.UpdateTask(ctx, taskID, input)
		return func() { u.finishMutation(msg, err) }
	})
	return nil
}

// finishMutation surfaces the result of a direct (dialog-less) mutation and
// refreshes every pane.
func (u *UI) finishMutation(msg flash.Message, err error) {
	var invalid *model.ValidationError
	switch {
	case err == nil:
		u.toast.show(msg)
	case errors.Is(err, client.ErrNotFound):
		u.toast.show(flash.Error(err.Error()))
	case errors.As(err, &invalid):
		u.toast.show(flash.Error(invalid.Error()))
	default:
		u.logger.Error("mutation failed", "err", err)
		u.toast.show(flash.Error("Something went wrong. Please try again."))
	}
	u.refreshAll()
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.formKind == formNone {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(16, max(10, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	x1 := x0 + width
	y1 := y0 + height

	view, err := gui.SetView(viewForm, x0, y0, x1, y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = u.formTitle()
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) formTitle() string {
	entity := "List"
	if u.formKind == formTask {
		entity = "Task"
	}
	switch u.formState() {
	case dialogSubmitting:
		return "Saving " + entity + "..."
	case dialogEditing:
		return "Edit " + entity
	default:
		return "New " + entity
	}
}

func (u *UI) formState() dialogState {
	switch u.formKind {
	case formList:
		return u.listDialog.state()
	case formTask:
		return u.taskDialog.state()
	}
	return dialogIdle
}

func (u *UI) formFields() []formField {
	switch u.formKind {
	case formList:
		return u.listDialog.form.fields()
	case formTask:
		return u.taskDialog.form.fields()
	}
	return nil
}

func (u *UI) formErrors() model.FieldErrors {
	switch u.formKind {
	case formList:
		return u.listDialog.errs
	case formTask:
		return u.taskDialog.errs
	}
	return nil
}

func (u *UI) setFormText(value string) {
	switch u.formKind {
	case formList:
		u.listDialog.edit(func(f *ListForm) { f.setText(u.formIndex, value) })
	case formTask:
		u.taskDialog.edit(func(f *TaskForm) { f.setText(u.formIndex, value) })
	}
}

func (u *UI) submitForm(_ *gocui.Gui, _ *gocui.View) error {
	switch u.formKind {
	case formList:
		sub, ok := u.listDialog.submit()
		if !ok {
			return nil
		}
		u.run(func(ctx context.Context) func() {
			var saved model.List
			var msg flash.Message
			var err error
			if sub.editing {
				saved, msg, err = u.backend.UpdateList(ctx, sub.id, sub.form.input())
			} else {
				saved, msg, err = u.backend.CreateList(ctx, sub.form.input())
			}
			return func() {
				result := u.listDialog.resolve(sub, err)
				if result == outcomeSaved && u.openList != nil && u.openList.ID == saved.ID {
					u.openList = &saved
				}
				u.finishSubmit(result, msg, err)
			}
		})
	case formTask:
		sub, ok := u.taskDialog.submit()
		if !ok {
			return nil
		}
		u.run(func(ctx context.Context) func() {
			var msg flash.Message
			var err error
			if sub.editing {
				_, msg, err = u.backend.UpdateTask(ctx, sub.id, sub.form.input())
			} else {
				_, msg, err = u.backend.CreateTask(ctx, sub.form.input())
			}
			return func() { u.finishSubmit(u.taskDialog.resolve(sub, err), msg, err) }
		})
	}
	return nil
}

func (u *UI) finishSubmit(result outcome, msg flash.Message, err error) {
	switch result {
	case outcomeIgnored:
		return
	case outcomeSaved:
		u.closeForm()
		u.toast.show(msg)
		u.refreshAll()
	case outcomeGone:
		u.closeForm()
		u.toast.show(flash.Error(err.Error()))
		u.refreshAll()
	case outcomeInvalid:
		errs := u.formErrors()
		for index, field := range u.formFields() {
			if len(errs[field.Key]) > 0 {
				u.formIndex = index
				break
			}
		}
	case outcomeFailed:
		u.logger.Error("save failed", "err", err)
		u.toast.show(flash.Error("Something went wrong. Please try again."))
	}
}

func (u *UI) cancelForm(_ *gocui.Gui, _ *gocui.View) error {
	switch u.formKind {
	case formList:
		u.listDialog.close()
	case formTask:
		u.taskDialog.close()
	}
	u.closeForm()
	return nil
}

func (u *UI) closeForm() {
	u.formKind = formNone
	u.formIndex = 0
	if u.gui != nil {
		_ = u.gui.DeleteView(viewForm)
		_, _ = u.gui.SetCurrentView(u.focus)
	}
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.formKind == formNone {
		return nil
	}
	if u.formIndex < len(u.formFields())-1 {
		u.formIndex++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.formKind == formNone {
		return nil
	}
	if u.formIndex > 0 {
		u.formIndex--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.formKind == formNone || view == nil {
		return
	}
	view.Clear()
	errs := u.formErrors()
	row := 0
	cursorY := 0
	fields := u.formFields()
	for index, field := range fields {
		prefix := "  "
		if index == u.formIndex {
			prefix = "> "
			cursorY = row
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
		row++
		for _, message := range errs[field.Key] {
			fmt.Fprintf(view, "    ! %s\n", message)
			row++
		}
	}
	if u.formState() == dialogSubmitting {
		fmt.Fprintln(view, "\n  saving...")
	}
	if u.formIndex >= len(fields) {
		return
	}
	current := fields[u.formIndex]
	cursorX := len([]rune(current.Label+": ")) + len([]rune(current.Value)) + 2
	view.SetCursor(cursorX, cursorY)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.formKind == formNone || view == nil {
		return false
	}
	fields := ui.formFields()
	if ui.formIndex >= len(fields) {
		return false
	}
	field := fields[ui.formIndex]

	switch field.Kind {
	case fieldToggle:
		if key == gocui.KeySpace || key == gocui.KeyArrowLeft || key == gocui.KeyArrowRight {
			ui.taskDialog.edit(func(f *TaskForm) { f.Completed = !f.Completed })
		}
		ui.renderForm(view)
		return true
	case fieldChoice:
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			ui.taskDialog.edit(func(f *TaskForm) { f.pickList(ui.lists.items(), 1) })
		case gocui.KeyArrowLeft:
			ui.taskDialog.edit(func(f *TaskForm) { f.pickList(ui.lists.items(), -1) })
		}
		ui.renderForm(view)
		return true
	}

	value := field.Value
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(value)
		if len(runes) > 0 {
			value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		value += " "
	case gocui.KeyCtrlU:
		value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		value += string(ch)
	}

	ui.setFormText(value)
	ui.renderForm(view)
	return true
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.formKind != formNone || u.helpActive
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes | 1 Lists | 2 List Tasks | 3 Tasks",
		"  j/k or arrows move selection | n/p or ←/→ change page",
		"  enter open the selected list",
		"  mouse click to focus/select, wheel scrolls",
		"",
		"Actions:",
		"  a add list/task | e edit | d delete | x toggle completed",
		"  enter save (form) | tab next field | esc close form",
		"  h load history of the selected task",
		"",
		"Search/Filter:",
		"  / search | f cycle all/pending/completed | g clear",
		"",
		"Other:",
		"  r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

func clampIndex(index, length int) int {
	if length <= 0 {
		return 0
	}
	return max(0, min(index, length-1))
}
