package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/shutter/internal/formatter"
	"github.com/desertthunder/shutter/internal/models"
	"github.com/desertthunder/shutter/internal/services"
	"github.com/desertthunder/shutter/internal/shared"
	"github.com/desertthunder/shutter/internal/tasks"
	"github.com/dustin/go-humanize"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	SearchView
	DetailView
	UploadView
)

const (
	// rows taken by the list title, status bar and pagination, plus our header and help
	listChrome = 8
	// default delegate: two lines per item plus one spacer
	itemHeight = 3
	// the sentinel sits this many items before the end of the list
	sentinelOffset = 3
	maxComments    = 5
)

// Options configures a [Model].
type Options struct {
	Query           models.Query
	FillRatio       float64
	FillAttempts    int
	SuggestionLimit int
	Debounce        time.Duration
	Recorder        tasks.FillRecorder
	History         tasks.SearchHistory
	Logger          *log.Logger

	// Uploads, when set, starts the TUI in the upload view.
	Uploads []models.UploadJob
	// MetaFor returns the metadata sent with each upload.
	MetaFor func(path string) models.PhotoMetadata
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	gallery services.Gallery
	logger  *log.Logger

	list      *tasks.ListController
	filler    *tasks.AutoFiller
	sentinel  *tasks.Sentinel
	suggester *tasks.Suggester
	tracker   *tasks.UploadTracker

	width   int
	height  int
	snap    tasks.Snapshot
	loading bool
	photos  list.Model
	spinner spinner.Model

	input       textinput.Model
	suggestions []tasks.Suggestion
	suggestIdx  int

	detail *models.PhotoDetail
	notice string

	uploads      []models.UploadJob
	metaFor      func(path string) models.PhotoMetadata
	progressChan chan tasks.ProgressUpdate
	uploadDone   chan tasks.UploadSummary
	progress     tasks.ProgressUpdate
	bar          progress.Model
	summary      *tasks.UploadSummary

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model browsing gallery.
func NewModel(ctx context.Context, gallery services.Gallery, opts Options) *Model {
	lc := tasks.NewListController(gallery, opts.Query, opts.Logger)

	photos := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	photos.Title = "Photos"
	photos.SetShowHelp(false)
	photos.SetFilteringEnabled(false)

	input := textinput.New()
	input.Placeholder = "search titles, category:<name>, #tag"
	input.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:        ctx,
		view:       BrowseView,
		gallery:    gallery,
		logger:     opts.Logger,
		list:       lc,
		filler:     tasks.NewAutoFiller(lc, opts.FillRatio, opts.FillAttempts, opts.Recorder, opts.Logger),
		sentinel:   tasks.NewSentinel(lc),
		suggester:  tasks.NewSuggester(gallery, opts.History, opts.SuggestionLimit, opts.Debounce, opts.Logger),
		tracker:    tasks.NewUploadTracker(opts.Logger),
		snap:       lc.Snapshot(),
		photos:     photos,
		spinner:    sp,
		input:      input,
		suggestIdx: -1,
		uploads:    opts.Uploads,
		metaFor:    opts.MetaFor,
		bar:        progress.New(progress.WithDefaultGradient()),
		help:       help.New(),
		keys:       newKeyMap(),
	}
	if len(opts.Uploads) > 0 {
		m.view = UploadView
	}
	return m
}

// Init starts the upload batch when one was given, otherwise loads the first page.
func (m *Model) Init() tea.Cmd {
	if m.view == UploadView {
		return tea.Batch(m.spinner.Tick, m.startUpload())
	}
	return tea.Batch(m.spinner.Tick, m.reload())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.photos.SetSize(msg.Width-4, msg.Height-listChrome)
		m.bar.Width = min(max(msg.Width-10, 10), 80)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageLoaded:
		data := msg.data.(pageLoaded)
		if errors.Is(data.err, shared.ErrSuperseded) || errors.Is(data.err, context.Canceled) {
			return m, nil
		}
		cmd := m.apply(data.snap)
		if data.err != nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.fill())

	case MsgFillDone:
		data := msg.data.(fillDone)
		if errors.Is(data.err, shared.ErrSuperseded) || errors.Is(data.err, context.Canceled) {
			return m, nil
		}
		return m, m.apply(data.res.Snapshot)

	case MsgSuggestTick:
		data := msg.data.(suggestTick)
		if !m.suggester.Current(data.ticket) {
			return m, nil
		}
		return m, m.resolve(data.ticket, data.text)

	case MsgSuggestions:
		data := msg.data.(suggestions)
		if data.err != nil || !m.suggester.Current(data.ticket) {
			return m, nil
		}
		m.suggestions = data.items
		m.suggestIdx = -1
		return m, nil

	case MsgDetailLoaded:
		data := msg.data.(detailLoaded)
		if data.err != nil {
			m.notice = styles.err.Render(data.err.Error())
			m.view = BrowseView
			return m, nil
		}
		m.detail = data.detail
		m.notice = ""
		m.view = DetailView
		return m, nil

	case MsgReaction:
		m.applyReaction(msg.data.(reaction))
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, tea.Batch(m.bar.SetPercent(float64(m.progress.Percent)/100), m.waitForProgress())

	case MsgUploadComplete:
		summary := msg.data.(tasks.UploadSummary)
		m.summary = &summary
		m.progressChan = nil
		m.uploadDone = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case BrowseView:
		return m.renderBrowse()
	case SearchView:
		return m.renderSearch()
	case DetailView:
		return m.renderDetail()
	case UploadView:
		return m.renderUpload()
	default:
		return ""
	}
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.list.Cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		return m, m.openSearch()
	case key.Matches(msg, m.keys.reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.clear):
		return m, m.setQuery(models.Query{PageSize: m.snap.Query.PageSize})
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.photos.SelectedItem().(photoItem); ok {
			return m, m.fetchDetail(item.photo.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.photos, cmd = m.photos.Update(msg)
	return m, tea.Batch(cmd, m.checkSentinel())
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.suggester.Input()
		m.suggestions = nil
		m.view = BrowseView
		return m, nil
	case "up":
		if m.suggestIdx >= 0 {
			m.suggestIdx--
		}
		return m, nil
	case "down":
		if m.suggestIdx < len(m.suggestions)-1 {
			m.suggestIdx++
		}
		return m, nil
	case "enter":
		text := m.input.Value()
		if m.suggestIdx >= 0 && m.suggestIdx < len(m.suggestions) {
			text = m.suggestions[m.suggestIdx].Text
		}
		return m, m.submit(text)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		ticket := m.suggester.Input()
		return m, tea.Batch(cmd, tea.Tick(m.suggester.Delay(), func(time.Time) tea.Msg {
			return suggestTickMsg(ticket, value)
		}))
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = BrowseView
		m.notice = ""
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.like()
	case key.Matches(msg, m.keys.favorite):
		return m, m.favorite()
	case key.Matches(msg, m.keys.open):
		if m.detail != nil {
			if err := shared.OpenBrowser(m.detail.ImageURL); err != nil {
				m.notice = styles.warn.Render(fmt.Sprintf("Open %s manually", m.detail.ImageURL))
			}
		}
	}
	return m, nil
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case m.summary == nil:
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		m.view = BrowseView
		return m, m.reload()
	}
	return m, nil
}

// apply copies a controller snapshot into the list view.
func (m *Model) apply(snap tasks.Snapshot) tea.Cmd {
	m.snap = snap
	m.loading = snap.Loading
	return m.photos.SetItems(photoItems(snap.Items))
}

// capacity is how many photos fit in the list at the current window height.
func (m *Model) capacity() int {
	return viewportCapacity(m.height)
}

func viewportCapacity(height int) int {
	if height <= 0 {
		return 0
	}
	return max((height-listChrome)/itemHeight, 1)
}

// checkSentinel issues a LoadMore when the cursor comes within reach of the end of the list.
func (m *Model) checkSentinel() tea.Cmd {
	n := len(m.snap.Items)
	near := n > 0 && m.photos.Index() >= n-sentinelOffset
	if !m.sentinel.Observe(near) {
		return nil
	}
	m.loading = true
	return func() tea.Msg {
		snap, err := m.list.LoadMore(m.ctx)
		return pageLoadedMsg(snap, err)
	}
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		snap, err := m.list.Reload(m.ctx)
		return pageLoadedMsg(snap, err)
	}
}

func (m *Model) setQuery(q models.Query) tea.Cmd {
	m.loading = true
	m.photos.ResetSelected()
	return func() tea.Msg {
		snap, err := m.list.SetQuery(m.ctx, q)
		return pageLoadedMsg(snap, err)
	}
}

func (m *Model) fill() tea.Cmd {
	vp := tasks.Viewport{Capacity: m.capacity()}
	return func() tea.Msg {
		res, err := m.filler.Fill(m.ctx, vp)
		return fillDoneMsg(res, err)
	}
}

func (m *Model) openSearch() tea.Cmd {
	m.view = SearchView
	m.input.SetValue(m.snap.Query.Text)
	m.suggestions = nil
	m.suggestIdx = -1
	ticket := m.suggester.Input()
	return tea.Batch(m.input.Focus(), m.resolve(ticket, m.input.Value()))
}

func (m *Model) resolve(ticket uint64, text string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.suggester.Resolve(m.ctx, ticket, text)
		return suggestionsMsg(ticket, out, err)
	}
}

func (m *Model) submit(text string) tea.Cmd {
	query, ok := m.suggester.Submit(text)
	if !ok {
		return nil
	}
	m.input.Blur()
	m.suggestions = nil
	m.view = BrowseView
	return m.setQuery(ParseFilter(query, m.snap.Query))
}

func (m *Model) fetchDetail(id int) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.gallery.GetPhoto(m.ctx, id)
		return detailLoadedMsg(detail, err)
	}
}

func (m *Model) like() tea.Cmd {
	if m.detail == nil {
		return nil
	}
	id := m.detail.ID
	return func() tea.Msg {
		res, err := m.gallery.LikePhoto(m.ctx, id)
		return reactionMsg(reaction{like: res, err: err})
	}
}

func (m *Model) favorite() tea.Cmd {
	if m.detail == nil {
		return nil
	}
	id := m.detail.ID
	return func() tea.Msg {
		res, err := m.gallery.FavoritePhoto(m.ctx, id)
		return reactionMsg(reaction{favorite: res, err: err})
	}
}

func (m *Model) applyReaction(r reaction) {
	if r.err != nil {
		if errors.Is(r.err, shared.ErrNotAuthenticated) || isUnauthorized(r.err) {
			m.notice = styles.warn.Render("Log in with `shutter auth login` to react to photos")
			return
		}
		m.notice = styles.err.Render(r.err.Error())
		return
	}
	if m.detail == nil {
		return
	}
	if r.like != nil {
		m.detail.LikedByMe = r.like.Liked
		m.detail.Likes = r.like.Likes
	}
	if r.favorite != nil {
		m.detail.FavoritedByMe = r.favorite.Favorited
		m.detail.Favorites = r.favorite.Favorites
	}
	m.notice = ""
}

func isUnauthorized(err error) bool {
	var apiErr *services.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

func (m *Model) startUpload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.uploadDone = make(chan tasks.UploadSummary, 1)
	jobs := append([]models.UploadJob(nil), m.uploads...)
	progressChan, done := m.progressChan, m.uploadDone

	send := func(ctx context.Context, job models.UploadJob, progress services.ProgressFunc) (*models.UploadResult, error) {
		return m.gallery.UploadPhoto(ctx, job.File, m.uploadMeta(job.File), progress)
	}

	go func() {
		summary := m.tracker.Run(m.ctx, jobs, send, progressChan)
		done <- summary
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) uploadMeta(file string) models.PhotoMetadata {
	if m.metaFor == nil {
		return models.PhotoMetadata{}
	}
	return m.metaFor(file)
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, done := m.progressChan, m.uploadDone
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		update, ok := <-progressChan
		if !ok {
			return uploadCompleteMsg(<-done)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderBrowse() string {
	var status string
	switch m.snap.Status {
	case models.StatusError:
		status = styles.err.Render(m.snap.Message) + " " + styles.help.Render("(r to retry)")
	case models.StatusEmpty:
		status = styles.warn.Render("No photos found.")
	case models.StatusIdle:
		status = m.spinner.View() + " Loading photos..."
	default:
		status = styles.help.Render(fmt.Sprintf("%d photos", len(m.snap.Items)))
		if m.snap.HasMore {
			status += styles.help.Render(" • more below")
		}
	}
	if m.loading && m.snap.Status != models.StatusIdle {
		status += " " + m.spinner.View()
	}

	filter := formatter.DescribeQuery(m.snap.Query)
	if filter == "" {
		filter = "all photos"
	}
	header := styles.label.Render("Filter: ") + filter + "\n" + status

	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.clear, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	body := fmt.Sprintf("%s\n\n%s\n\n%s", header, m.photos.View(), helpView)
	if m.notice != "" {
		body += "\n" + m.notice
	}
	return body
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Search Photos"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, s := range m.suggestions {
		line := s.Text
		if s.Recent {
			line += styles.help.Render("  recent")
		}
		if i == m.suggestIdx {
			b.WriteString(styles.selected.Render("› "+line) + "\n")
		} else {
			b.WriteString("   " + line + "\n")
		}
	}

	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "suggestions")),
		m.keys.back,
	}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDetail() string {
	d := m.detail
	if d == nil {
		return m.spinner.View() + " Loading photo..."
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(photoItem{photo: d.Photo}.Title()))
	b.WriteString("\n")

	field := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			b.WriteString(styles.label.Render(label+": ") + value + "\n")
		}
	}
	field("Author", d.Author)
	field("Category", d.Category)
	field("Tags", strings.Join(d.Tags, ", "))
	field("Camera", d.Camera)
	field("Settings", d.Settings)
	field("Image", d.ImageURL)

	likes := fmt.Sprintf("♥ %s", humanize.Comma(int64(d.Likes)))
	if d.LikedByMe {
		likes = styles.ok.Render(likes)
	}
	favorites := fmt.Sprintf("★ %s", humanize.Comma(int64(d.Favorites)))
	if d.FavoritedByMe {
		favorites = styles.ok.Render(favorites)
	}
	b.WriteString(likes + "  " + favorites + "\n")

	if d.Description != "" {
		b.WriteString("\n" + d.Description + "\n")
	}

	if len(d.Comments) > 0 {
		b.WriteString("\n" + styles.label.Render(fmt.Sprintf("Comments (%d)", len(d.Comments))) + "\n")
		start := max(len(d.Comments)-maxComments, 0)
		for _, c := range d.Comments[start:] {
			b.WriteString(fmt.Sprintf("  %s: %s\n", c.Username, c.Content))
		}
	}

	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}

	helpKeys := []key.Binding{m.keys.like, m.keys.favorite, m.keys.open, m.keys.back, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderUpload() string {
	title := styles.title.Render(fmt.Sprintf("Uploading %d files", len(m.uploads)))

	if m.summary == nil {
		return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), m.progress.Message, m.bar.View())
	}

	s := m.summary
	var result string
	if s.Failed != nil {
		result = styles.err.Render(fmt.Sprintf("✗ %s: %s", filepath.Base(s.Failed.File), s.Message))
		result += fmt.Sprintf("\n%d of %d uploaded before the failure", s.Completed, len(s.Jobs))
	} else {
		result = styles.ok.Render(fmt.Sprintf("✓ Uploaded %d of %d files", s.Completed, len(s.Jobs)))
	}
	for _, job := range s.Jobs {
		if job.Result == nil {
			continue
		}
		title := m.uploadMeta(job.File).Title
		if title == "" {
			title = filepath.Base(job.File)
		}
		for _, item := range job.Result.Items {
			result += "\n" + styles.label.Render(fmt.Sprintf("#%d", item.ID)) + " " + title
		}
	}

	helpKeys := []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "browse")),
		m.keys.quit,
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, result, m.help.ShortHelpView(helpKeys))
}
