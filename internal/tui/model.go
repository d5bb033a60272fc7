package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/tipfeed-cli/internal/engage"
	"github.com/glabrego/tipfeed-cli/internal/feed"
	"github.com/glabrego/tipfeed-cli/internal/model"
	"github.com/glabrego/tipfeed-cli/internal/session"
	"github.com/glabrego/tipfeed-cli/internal/tui/actions"
	"github.com/glabrego/tipfeed-cli/internal/tui/platform"
	tuistate "github.com/glabrego/tipfeed-cli/internal/tui/state"
	tuitheme "github.com/glabrego/tipfeed-cli/internal/tui/theme"
	tuiview "github.com/glabrego/tipfeed-cli/internal/tui/view"
)

const activityLimit = 50

// FeedSource builds the page loader for a logical feed.
type FeedSource interface {
	Fetcher(q model.FeedQuery, limit int) feed.Fetcher
}

type Deps struct {
	Feeds      FeedSource
	Engager    actions.Engager
	Group      *feed.Group
	Journal    actions.Journal
	Account    actions.AccountRefresher
	WebBaseURL string
	PageSize   int
}

type Preferences struct {
	Compact      bool
	RelativeTime bool
}

type promptKind int

const (
	promptNone promptKind = iota
	promptTip
	promptEdit
	promptWrite
	promptReport
	promptDelete
)

type prompt struct {
	kind    promptKind
	target  model.Entry
	initial string
	value   string
}

type clearStatusMsg struct {
	id int
}

type preferenceSaveErrorMsg struct {
	err error
}

var tabs = []model.FeedQuery{
	{Kind: model.FeedForYou},
	{Kind: model.FeedFollowing},
	{Kind: model.FeedTrending},
	{Kind: model.FeedBookmarks},
}

var tabLabels = []string{"For you", "Following", "Trending", "Bookmarks"}

type Model struct {
	deps  Deps
	theme tuitheme.Theme

	cache      *feed.Cache
	detach     func()
	tab        int
	cursor     int
	selectedID string

	inDetail       bool
	detailID       string
	detailFallback model.Entry
	replies        *feed.Cache
	detachReplies  func()
	replyCursor    int
	detailTop      int

	prompt prompt
	// inline holds the last failure per control, shown next to it until the
	// same control is triggered again or succeeds.
	inline map[model.Intent]string

	account      model.Account
	signedIn     bool
	balance      int64
	hasBalance   bool
	animating    bool
	showHelp     bool
	showActivity bool
	activity     []model.Activity
	totalTipped  int64

	compact      bool
	relativeTime bool

	width    int
	height   int
	status   string
	statusID int
	err      error

	openURLFn         func(string) error
	copyURLFn         func(string) error
	nowFn             func() time.Time
	savePreferencesFn func(Preferences) error
}

func NewModel(deps Deps) Model {
	if deps.PageSize <= 0 {
		deps.PageSize = 20
	}
	m := Model{
		deps:         deps,
		theme:        tuitheme.Default(),
		inline:       make(map[model.Intent]string),
		relativeTime: true,
		replyCursor:  -1,
		openURLFn:    platform.OpenURLInBrowser,
		copyURLFn:    platform.CopyURLToClipboard,
		nowFn:        time.Now,
	}
	m.mountFeed(tabs[0])
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadFirstPage(m.cache)}
	if m.deps.Account != nil {
		cmds = append(cmds, actions.RefreshAccountCmd(m.deps.Account))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case actions.FeedLoadedMsg:
		if msg.Err != nil {
			m.status = ""
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.followCursor()
		return m, nil
	case actions.MoreLoadedMsg:
		if msg.Err != nil {
			m.status = ""
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		if msg.Added == 0 {
			m.status = "No more posts"
		} else {
			m.status = fmt.Sprintf("Loaded %d more", msg.Added)
		}
		m.followCursor()
		cmd := m.clearStatusLater(3 * time.Second)
		return m, cmd
	case actions.ActionDoneMsg:
		return m.handleActionDone(msg)
	case actions.AccountLoadedMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, session.ErrSignedOut) {
				m.status = "Signed out: set TIPFEED_TOKEN to engage"
				return m, nil
			}
			m.err = msg.Err
			return m, nil
		}
		m.account = msg.Account
		m.signedIn = true
		return m, nil
	case actions.BalanceMsg:
		m.balance = msg.Value
		m.hasBalance = true
		m.animating = msg.Animating
		return m, nil
	case actions.ActivityLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.activity = msg.Items
		m.totalTipped = msg.TotalTipped
		return m, nil
	case actions.ClipboardMsg:
		if msg.Err != nil {
			m.status = msg.Err.Error()
		} else {
			m.status = msg.Status
		}
		cmd := m.clearStatusLater(3 * time.Second)
		return m, cmd
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	case preferenceSaveErrorMsg:
		m.err = msg.err
		m.status = "Could not persist UI preferences"
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt.kind != promptNone {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.showHelp {
		if msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}
	if m.showActivity {
		switch msg.String() {
		case "esc", "a":
			m.showActivity = false
		case "r":
			return m, m.loadActivity()
		}
		return m, nil
	}
	if m.inDetail {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		m.tab = idx
		m.mountFeed(tabs[idx])
		m.status = ""
		return m, m.loadFirstPage(m.cache)
	case "p":
		entry, ok := m.target()
		if !ok || entry.Author.ID == "" {
			return m, nil
		}
		m.tab = -1
		m.mountFeed(model.FeedQuery{Kind: model.FeedUser, Ref: entry.Author.ID})
		m.status = "Posts by @" + entry.Author.Username
		return m, m.loadFirstPage(m.cache)
	case "up", "k":
		m.moveCursorBy(-1)
		return m, nil
	case "down", "j":
		m.moveCursorBy(1)
		return m, nil
	case "pgup", "ctrl+b":
		m.moveCursorBy(-tuistate.PageStep(m.height, m.chromeRows()))
		return m, nil
	case "pgdown", "ctrl+f":
		m.moveCursorBy(tuistate.PageStep(m.height, m.chromeRows()))
		return m, nil
	case "g":
		m.cursor = 0
		m.syncSelected()
		return m, nil
	case "G":
		m.cursor = m.cache.Len() - 1
		m.syncSelected()
		return m, nil
	case "enter":
		entry, ok := m.target()
		if !ok {
			return m, nil
		}
		cmd := m.openDetail(entry)
		return m, cmd
	case "r":
		m.status = ""
		m.err = nil
		return m, m.loadFirstPage(m.cache)
	case "n":
		return m, m.loadMore(m.cache)
	case "a":
		m.showActivity = true
		return m, m.loadActivity()
	case "c":
		m.compact = !m.compact
		m.err = nil
		m.status = "Compact mode: " + onOff(m.compact)
		return m, persistPreferencesCmd(m.savePreferencesFn, m.preferences())
	case "d":
		m.relativeTime = !m.relativeTime
		m.err = nil
		if m.relativeTime {
			m.status = "Time format: relative"
		} else {
			m.status = "Time format: absolute"
		}
		return m, persistPreferencesCmd(m.savePreferencesFn, m.preferences())
	}
	return m.handleEngagementKey(msg)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.closeDetail()
		return m, nil
	case "up", "k":
		if m.detailTop > 0 {
			m.detailTop--
		}
		return m, nil
	case "down", "j":
		if m.detailTop < tuiview.DetailMaxTop(len(m.detailLines()), m.detailBodyHeight()) {
			m.detailTop++
		}
		return m, nil
	case "J":
		if n := m.replies.Len(); m.replyCursor < n-1 {
			m.replyCursor++
		}
		return m, nil
	case "K":
		if m.replyCursor >= 0 {
			m.replyCursor--
		}
		return m, nil
	case "r":
		m.err = nil
		return m, m.loadFirstPage(m.replies)
	case "n":
		return m, m.loadMore(m.replies)
	}
	return m.handleEngagementKey(msg)
}

func (m Model) handleEngagementKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "w" {
		return m.openWritePrompt()
	}
	entry, ok := m.target()
	if !ok {
		return m, nil
	}
	switch key {
	case "l":
		kind := model.ActionLike
		if entry.Liked {
			kind = model.ActionUnlike
		}
		return m.dispatch(entry.ID, kind, actions.ToggleLikeCmd(m.deps.Engager, entry))
	case "b":
		kind := model.ActionBookmark
		if entry.Bookmarked {
			kind = model.ActionUnbookmark
		}
		return m.dispatch(entry.ID, kind, actions.ToggleBookmarkCmd(m.deps.Engager, entry))
	case "f":
		if entry.Author.ID == "" {
			return m, nil
		}
		kind := model.ActionFollow
		if entry.Author.Following {
			kind = model.ActionUnfollow
		}
		return m.dispatch(entry.Author.ID, kind, actions.ToggleFollowCmd(m.deps.Engager, entry.Author))
	case "t":
		return m.openPrompt(promptTip, entry, model.ActionTip, "")
	case "e":
		if !m.ownsEntry(entry) {
			m.status = "You can only edit your own posts"
			cmd := m.clearStatusLater(3 * time.Second)
			return m, cmd
		}
		return m.openPrompt(promptEdit, entry, model.ActionEdit, entry.Content)
	case "D":
		if !m.ownsEntry(entry) {
			m.status = "You can only delete your own posts"
			cmd := m.clearStatusLater(3 * time.Second)
			return m, cmd
		}
		return m.openPrompt(promptDelete, entry, model.ActionDelete, "")
	case "R":
		return m.openPrompt(promptReport, entry, model.ActionReport, "")
	case "y":
		url, err := platform.Permalink(m.deps.WebBaseURL, entry.ID)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, actions.CopyCmd(url, m.copyURLFn)
	case "o":
		url, err := platform.Permalink(m.deps.WebBaseURL, entry.ID)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, actions.OpenCmd(url, m.openURLFn, m.copyURLFn)
	}
	return m, nil
}

// dispatch issues cmd unless the same control already has a request in
// flight. A repeated trigger is dropped.
func (m Model) dispatch(entityID string, kind model.ActionKind, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.deps.Engager == nil {
		return m, nil
	}
	if m.deps.Engager.Busy(entityID, kind) {
		m.status = engage.Message(engage.ErrBusy)
		cmd := m.clearStatusLater(2 * time.Second)
		return m, cmd
	}
	delete(m.inline, model.IntentFor(entityID, kind))
	m.status = ""
	m.err = nil
	return m, cmd
}

func (m Model) openPrompt(kind promptKind, target model.Entry, action model.ActionKind, initial string) (tea.Model, tea.Cmd) {
	if m.deps.Engager != nil && m.deps.Engager.Busy(target.ID, action) {
		m.status = engage.Message(engage.ErrBusy)
		cmd := m.clearStatusLater(2 * time.Second)
		return m, cmd
	}
	m.prompt = prompt{kind: kind, target: target, initial: initial, value: initial}
	return m, nil
}

func (m Model) openWritePrompt() (tea.Model, tea.Cmd) {
	var parent model.Entry
	if m.inDetail {
		parent.ID = m.detailID
	}
	return m.openPrompt(promptWrite, parent, model.ActionCreate, "")
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	if p.kind == promptDelete {
		m.prompt = prompt{}
		if msg.String() == "y" {
			return m.dispatch(p.target.ID, model.ActionDelete, actions.DeleteCmd(m.deps.Engager, p.target.ID))
		}
		m.status = "Delete cancelled"
		cmd := m.clearStatusLater(2 * time.Second)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = prompt{}
		return m, nil
	case tea.KeyEnter:
		m.prompt = prompt{}
		return m.submitPrompt(p)
	case tea.KeyBackspace:
		if r := []rune(p.value); len(r) > 0 {
			m.prompt.value = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.prompt.value += " "
		return m, nil
	case tea.KeyRunes:
		m.prompt.value += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) submitPrompt(p prompt) (tea.Model, tea.Cmd) {
	e := m.deps.Engager
	switch p.kind {
	case promptTip:
		amount, err := strconv.ParseInt(strings.TrimSpace(p.value), 10, 64)
		if err != nil {
			m.inline[model.IntentFor(p.target.ID, model.ActionTip)] = "Enter a whole number of points"
			return m, nil
		}
		return m.dispatch(p.target.ID, model.ActionTip, actions.TipCmd(e, p.target.ID, amount))
	case promptEdit:
		return m.dispatch(p.target.ID, model.ActionEdit, actions.EditCmd(e, p.target.ID, p.initial, p.value))
	case promptReport:
		return m.dispatch(p.target.ID, model.ActionReport, actions.ReportCmd(e, p.target.ID, p.value))
	case promptWrite:
		draft := model.Draft{Content: p.value, ParentID: p.target.ID}
		return m.dispatch(p.target.ID, model.ActionCreate, actions.CreateCmd(e, draft))
	}
	return m, nil
}

func (m Model) handleActionDone(msg actions.ActionDoneMsg) (tea.Model, tea.Cmd) {
	intent := model.IntentFor(msg.EntityID, msg.Kind)
	if msg.Err != nil {
		if errors.Is(msg.Err, engage.ErrBusy) {
			m.status = engage.Message(msg.Err)
			cmd := m.clearStatusLater(2 * time.Second)
			return m, cmd
		}
		if msg.EntityID == "" {
			m.status = ""
			m.err = errors.New(engage.Message(msg.Err))
			return m, nil
		}
		m.inline[intent] = engage.Message(msg.Err)
		return m, nil
	}

	delete(m.inline, intent)
	m.err = nil
	m.status = msg.Status
	if m.inDetail {
		if msg.Kind == model.ActionDelete && msg.EntityID == m.detailID {
			m.closeDetail()
		} else if _, ok := m.cache.Entry(m.detailID); !ok {
			m.closeDetail()
		} else {
			m.replyCursor = min(m.replyCursor, m.replies.Len()-1)
		}
	}
	if msg.Kind == model.ActionCreate && msg.Created != nil && !m.inDetail {
		m.selectedID = msg.Created.ID
	}
	m.followCursor()
	cmd := m.clearStatusLater(3 * time.Second)
	return m, cmd
}

func (m *Model) mountFeed(q model.FeedQuery) {
	m.closeDetail()
	if m.detach != nil {
		m.detach()
	}
	var opts []feed.Option
	if q.Kind == model.FeedBookmarks {
		opts = append(opts, feed.WithBookmarkedOnly())
	}
	m.cache = feed.NewCache(q, opts...)
	m.detach = m.attach(m.cache)
	m.cursor = 0
	m.selectedID = ""
}

func (m *Model) openDetail(entry model.Entry) tea.Cmd {
	m.inDetail = true
	m.detailID = entry.ID
	m.detailFallback = entry
	m.detailTop = 0
	m.replyCursor = -1
	m.replies = feed.NewCache(model.FeedQuery{Kind: model.FeedReplies, Ref: entry.ID})
	m.detachReplies = m.attach(m.replies)
	return m.loadFirstPage(m.replies)
}

func (m *Model) closeDetail() {
	if m.detachReplies != nil {
		m.detachReplies()
	}
	m.inDetail = false
	m.detailID = ""
	m.replies = nil
	m.detachReplies = nil
	m.replyCursor = -1
	m.detailTop = 0
}

func (m *Model) attach(c *feed.Cache) func() {
	if m.deps.Group == nil {
		return nil
	}
	return m.deps.Group.Attach(c)
}

func (m Model) loadFirstPage(c *feed.Cache) tea.Cmd {
	if c == nil || m.deps.Feeds == nil {
		return nil
	}
	return actions.LoadFirstPageCmd(c, m.deps.Feeds.Fetcher(c.Query(), m.deps.PageSize))
}

func (m Model) loadMore(c *feed.Cache) tea.Cmd {
	if c == nil || m.deps.Feeds == nil {
		return nil
	}
	st := c.Snapshot()
	if !st.HasMore || st.Loading || st.LoadingMore {
		return nil
	}
	return actions.LoadMoreCmd(c, m.deps.Feeds.Fetcher(c.Query(), m.deps.PageSize))
}

func (m Model) loadActivity() tea.Cmd {
	if m.deps.Journal == nil {
		return nil
	}
	return actions.LoadActivityCmd(m.deps.Journal, activityLimit)
}

// target is the entry the engagement keys act on: the selected reply or the
// open post in detail view, the selected entry otherwise.
func (m Model) target() (model.Entry, bool) {
	if m.inDetail {
		if m.replyCursor >= 0 && m.replies != nil {
			if st := m.replies.Snapshot(); m.replyCursor < len(st.Entries) {
				return st.Entries[m.replyCursor], true
			}
		}
		return m.detailEntry(), m.detailID != ""
	}
	st := m.cache.Snapshot()
	if len(st.Entries) == 0 {
		return model.Entry{}, false
	}
	return st.Entries[tuistate.ClampCursor(m.cursor, len(st.Entries))], true
}

func (m Model) detailEntry() model.Entry {
	if entry, ok := m.cache.Entry(m.detailID); ok {
		return entry
	}
	return m.detailFallback
}

func (m Model) ownsEntry(entry model.Entry) bool {
	return m.signedIn && entry.Author.ID != "" && entry.Author.ID == m.account.ID
}

func (m *Model) moveCursorBy(delta int) {
	m.cursor = tuistate.ClampCursor(m.cursor+delta, m.cache.Len())
	m.syncSelected()
}

func (m *Model) syncSelected() {
	st := m.cache.Snapshot()
	m.cursor = tuistate.ClampCursor(m.cursor, len(st.Entries))
	if len(st.Entries) == 0 {
		m.selectedID = ""
		return
	}
	m.selectedID = st.Entries[m.cursor].ID
}

func (m *Model) followCursor() {
	st := m.cache.Snapshot()
	m.cursor = tuistate.FollowCursor(st.Entries, m.selectedID, m.cursor)
	m.syncSelected()
}

func (m *Model) clearStatusLater(after time.Duration) tea.Cmd {
	m.statusID++
	return clearStatusCmd(m.statusID, after)
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func persistPreferencesCmd(saveFn func(Preferences) error, prefs Preferences) tea.Cmd {
	if saveFn == nil {
		return nil
	}
	return func() tea.Msg {
		if err := saveFn(prefs); err != nil {
			return preferenceSaveErrorMsg{err: err}
		}
		return nil
	}
}

func (m *Model) ApplyPreferences(prefs Preferences) {
	m.compact = prefs.Compact
	m.relativeTime = prefs.RelativeTime
}

func (m *Model) SetPreferencesSaver(saveFn func(Preferences) error) {
	m.savePreferencesFn = saveFn
}

func (m Model) preferences() Preferences {
	return Preferences{Compact: m.compact, RelativeTime: m.relativeTime}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// chromeRows counts rows taken below the list by the status panel and prompt.
func (m Model) chromeRows() int {
	rows := 0
	if m.status != "" || m.err != nil {
		rows += 2
	}
	if m.prompt.kind != promptNone {
		rows++
	}
	return rows
}
