package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineDeck/internal/auth"
	"github.com/vadimtrunov/CineDeck/internal/config"
	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
	"github.com/vadimtrunov/CineDeck/internal/home"
	"github.com/vadimtrunov/CineDeck/internal/screen"
)

const (
	loadFailedMsg    = "Failed to load movies. Please try again."
	trailerFailedMsg = "Could not open YouTube video."
)

// newBrowseCmd returns the "browse" subcommand, the full-screen browser.
func newBrowseCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse movies and TV shows in the terminal",
		Long: "Sign in, browse the home feed and open details and trailers.\n" +
			"Keys: enter opens, r refreshes, p plays the trailer, esc goes back,\n" +
			"ctrl+l logs out, ctrl+c quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse(metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}

// runBrowse wires the home state and screen flow into the Bubble Tea program.
func runBrowse(metricsAddr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Logs would corrupt the alt screen; they go to app.log_file or nowhere.
	w, closeLog, err := config.LogWriter(cfg.App, io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger := config.SetupLogger(cfg.App.LogLevel, w)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newServices(cfg, metricsAddrFor(cfg, metricsAddr), logger)
	metricsErrCh := svc.startMetrics(ctx, logger)

	pump := newSnapshotPump()
	state := home.New(svc.feed, home.Options{
		RotationInterval: cfg.Feed.RotationInterval,
		OnChange:         pump.push,
		OnRotate:         svc.onRotate(),
	}, logger)
	defer state.Close()

	flow := screen.New()
	flow.OnTransition(svc.onTransition(logger))

	model := newBrowseModel(ctx, browseDeps{
		flow:         flow,
		auth:         auth.NewAuthenticator(auth.DefaultDelay, logger),
		home:         state,
		catalog:      svc.catalog,
		inlineFrames: cfg.Player.InlineFrames,
		openURL:      openBrowser,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	go pump.run(ctx, p.Send)

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	_, runErr := p.Run()
	cancel()
	if err := <-metricsErrCh; err != nil && runErr == nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run browse: %w", runErr)
	}
	return nil
}

// snapshotPump hands home snapshots to the program from its own goroutine.
// OnChange also fires from inside Update (Advance, Reset), where a direct
// Program.Send would block the event loop. Only the newest pending
// snapshot is kept.
type snapshotPump struct {
	ch chan home.Snapshot
}

func newSnapshotPump() *snapshotPump {
	return &snapshotPump{ch: make(chan home.Snapshot, 1)}
}

// push never blocks. Calls are serialized by home.State.
func (p *snapshotPump) push(snap home.Snapshot) {
	for {
		select {
		case p.ch <- snap:
			return
		default:
		}
		select {
		case <-p.ch:
		default:
		}
	}
}

func (p *snapshotPump) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.ch:
			send(homeSnapshotMsg{snap: snap})
		}
	}
}

// browseDeps are the collaborators of the browse model.
type browseDeps struct {
	flow         *screen.Flow
	auth         *auth.Authenticator
	home         *home.State
	catalog      details.Source
	inlineFrames bool
	openURL      func(string) error
}

// Messages delivered to the browse model.
type (
	authDoneMsg struct {
		user   *auth.User
		err    error
		signup bool
	}
	homeSnapshotMsg  struct{ snap home.Snapshot }
	homeFetchedMsg   struct{ err error }
	detailsLoadedMsg struct {
		key  string
		view *details.View
		err  error
	}
	trailerOpenedMsg struct {
		url string
		err error
	}
)

// alert is a blocking message box; any confirm key dismisses it and fires
// the optional event.
type alert struct {
	title string
	body  string
	fire  *screen.Event
}

// browseModel is the Bubble Tea model for the four-screen browser.
type browseModel struct {
	ctx  context.Context
	deps browseDeps

	width   int
	height  int
	spinner spinner.Model
	alert   *alert
	user    *auth.User

	login  form
	signup form
	busy   bool

	snap     home.Snapshot
	fetching bool
	row      int // -1 is the featured banner
	col      int

	viewport       viewport.Model
	view           *details.View
	loadingDetails bool
	notice         string
}

func newBrowseModel(ctx context.Context, deps browseDeps) browseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:      ctx,
		deps:     deps,
		spinner:  s,
		login:    newLoginForm(),
		signup:   newSignUpForm(),
		row:      -1,
		viewport: viewport.New(80, 20),
	}
}

// Init starts the cursor blink.
func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) screen() screen.State { return m.deps.flow.State() }

func (m browseModel) spinning() bool {
	return m.busy || m.fetching || m.snap.Refreshing || m.loadingDetails
}

// Update routes messages by type, then keys by the current screen.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		if m.view != nil {
			m.viewport.SetContent(renderDetails(m.view, m.deps.inlineFrames, msg.Width))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.spinning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case homeSnapshotMsg:
		if m.screen() != screen.Home {
			return m, nil
		}
		m.snap = msg.snap
		m.clampCursor()
		return m, nil

	case homeFetchedMsg:
		m.fetching = false
		if m.screen() != screen.Home {
			return m, nil
		}
		m.snap = m.deps.home.Snapshot()
		m.clampCursor()
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) &&
			!errors.Is(msg.err, home.ErrClosed) && !errors.Is(msg.err, home.ErrReset) {
			m.alert = &alert{title: "Error", body: loadFailedMsg}
		}
		return m, nil

	case detailsLoadedMsg:
		return m.handleDetailsLoaded(msg)

	case trailerOpenedMsg:
		if msg.err != nil {
			m.alert = &alert{title: "Error", body: trailerFailedMsg}
			m.notice = msg.url
		} else {
			m.notice = "Opened " + msg.url
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != nil {
			return m.handleAlertKey(msg)
		}
		switch m.screen() {
		case screen.Login:
			return m.handleLoginKey(msg)
		case screen.SignUp:
			return m.handleSignUpKey(msg)
		case screen.Home:
			return m.handleHomeKey(msg)
		case screen.Details:
			return m.handleDetailsKey(msg)
		}
	}
	return m, nil
}

func (m browseModel) handleAlertKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
	default:
		return m, nil
	}
	a := m.alert
	m.alert = nil
	if a.fire == nil {
		return m, nil
	}
	return m.fire(*a.fire)
}

// fire applies a flow event and runs the entry action of the new screen.
func (m browseModel) fire(ev screen.Event) (tea.Model, tea.Cmd) {
	to, err := m.deps.flow.Fire(ev)
	if err != nil {
		return m, nil
	}
	return m.enter(to, ev)
}

// enter runs the entry action of a screen. Leaving Home for Login tears the
// home state down; Home refetches on every entry except the return from
// Details.
func (m browseModel) enter(to screen.State, ev screen.Event) (tea.Model, tea.Cmd) {
	switch to {
	case screen.Login:
		m.user = nil
		m.busy = false
		m.login = newLoginForm()
		m.deps.home.Reset()
		m.snap = home.Snapshot{}
		m.fetching = false
		return m, textinput.Blink
	case screen.SignUp:
		m.signup = newSignUpForm()
		return m, textinput.Blink
	case screen.Home:
		m.view = nil
		m.notice = ""
		m.loadingDetails = false
		if ev == screen.Back {
			m.snap = m.deps.home.Snapshot()
			m.clampCursor()
			if m.snap.Feed != nil {
				return m, nil
			}
		}
		m.row, m.col = -1, 0
		m.fetching = true
		return m, tea.Batch(m.spinner.Tick, m.loadHome(false))
	}
	return m, nil
}

func (m browseModel) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "tab", "down":
		m.login.move(1)
		return m, nil
	case "shift+tab", "up":
		m.login.move(-1)
		return m, nil
	case "ctrl+n":
		return m.fire(screen.SignUpRequested)
	case "enter":
		if !m.login.last() {
			m.login.move(1)
			return m, nil
		}
		form := m.login.loginForm()
		res := auth.ValidateLogin(form)
		m.login.setErrors(res)
		if !res.Valid() {
			m.alert = &alert{title: "Validation Error", body: strings.Join(res.Messages(), "\n")}
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.authenticate(form, auth.SignUpForm{}, false))
	}
	cmd := m.login.update(msg)
	return m, cmd
}

func (m browseModel) handleSignUpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m.fire(screen.BackToLogin)
	case "tab", "down":
		m.signup.move(1)
		return m, nil
	case "shift+tab", "up":
		m.signup.move(-1)
		return m, nil
	case "enter":
		if !m.signup.last() {
			m.signup.move(1)
			return m, nil
		}
		form := m.signup.signUpForm()
		res := auth.ValidateSignUp(form)
		m.signup.setErrors(res)
		if !res.Valid() {
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.authenticate(auth.LoginForm{}, form, true))
	}
	cmd := m.signup.update(msg)
	return m, cmd
}

func (m browseModel) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		m.alert = &alert{title: "Login Failed", body: "Invalid credentials. Please try again."}
		return m, nil
	}
	if msg.signup {
		ev := screen.SignUpSucceeded
		m.alert = &alert{
			title: "Success!",
			body:  "Account created successfully! You can now sign in.",
			fire:  &ev,
		}
		return m, nil
	}
	m.user = msg.user
	return m.fire(screen.LoginSucceeded)
}

func (m browseModel) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+l":
		return m.fire(screen.Logout)
	case "r":
		if m.fetching || m.snap.Refreshing {
			return m, nil
		}
		m.snap.Refreshing = true
		return m, tea.Batch(m.spinner.Tick, m.loadHome(true))
	case "up", "k":
		if m.row > -1 {
			m.row--
		}
		m.clampCursor()
	case "down", "j":
		if m.snap.Feed != nil && m.row < len(m.snap.Feed.Rows)-1 {
			m.row++
		}
		m.clampCursor()
	case "left", "h":
		if m.row >= 0 && m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.row == -1 {
			if m.deps.home.Advance() {
				m.snap = m.deps.home.Snapshot()
			}
			return m, nil
		}
		m.col++
		m.clampCursor()
	case "enter":
		item, ok := m.selectedItem()
		if !ok {
			return m, nil
		}
		if _, err := m.deps.flow.Select(item); err != nil {
			return m, nil
		}
		m.view = nil
		m.notice = ""
		m.loadingDetails = true
		return m, tea.Batch(m.spinner.Tick, m.loadDetails(item))
	}
	return m, nil
}

func (m browseModel) handleDetailsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		return m.fire(screen.Back)
	case "p":
		if m.view == nil {
			return m, nil
		}
		playback, err := details.ResolvePlayback(m.view.Trailer, m.deps.inlineFrames)
		switch {
		case errors.Is(err, details.ErrNoTrailer):
			m.alert = &alert{title: "No Trailer Available", body: "Sorry, no trailer is available for this movie."}
			return m, nil
		case err != nil:
			m.alert = &alert{title: "Error", body: trailerFailedMsg}
			return m, nil
		}
		return m, m.openTrailer(playback.URL)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m browseModel) handleDetailsLoaded(msg detailsLoadedMsg) (tea.Model, tea.Cmd) {
	selected, ok := m.deps.flow.Selected()
	if !ok || selected.Key() != msg.key {
		return m, nil // superseded
	}
	m.loadingDetails = false
	if msg.err != nil {
		ev := screen.Back
		m.alert = &alert{title: "Error", body: details.UserMessage, fire: &ev}
		return m, nil
	}
	m.view = msg.view
	m.viewport.SetContent(renderDetails(msg.view, m.deps.inlineFrames, m.width))
	m.viewport.GotoTop()
	return m, nil
}

// selectedItem is the item under the cursor.
func (m browseModel) selectedItem() (core.MediaItem, bool) {
	if m.row == -1 {
		return m.snap.CurrentFeatured()
	}
	if m.snap.Feed == nil || m.row >= len(m.snap.Feed.Rows) {
		return core.MediaItem{}, false
	}
	items := m.snap.Feed.Rows[m.row].Items
	if m.col >= len(items) {
		return core.MediaItem{}, false
	}
	return items[m.col], true
}

func (m *browseModel) clampCursor() {
	if m.snap.Feed == nil {
		m.row, m.col = -1, 0
		return
	}
	if m.row >= len(m.snap.Feed.Rows) {
		m.row = len(m.snap.Feed.Rows) - 1
	}
	if m.row < 0 {
		m.row, m.col = -1, 0
		return
	}
	n := len(m.snap.Feed.Rows[m.row].Items)
	m.col = max(min(m.col, n-1), 0)
}

func (m browseModel) authenticate(login auth.LoginForm, signup auth.SignUpForm, isSignUp bool) tea.Cmd {
	return func() tea.Msg {
		if isSignUp {
			u, err := m.deps.auth.SignUp(m.ctx, signup)
			return authDoneMsg{user: u, err: err, signup: true}
		}
		u, err := m.deps.auth.Login(m.ctx, login)
		return authDoneMsg{user: u, err: err}
	}
}

func (m browseModel) loadHome(refresh bool) tea.Cmd {
	return func() tea.Msg {
		if refresh {
			return homeFetchedMsg{err: m.deps.home.Refresh(m.ctx)}
		}
		return homeFetchedMsg{err: m.deps.home.Load(m.ctx)}
	}
}

func (m browseModel) loadDetails(item core.MediaItem) tea.Cmd {
	return func() tea.Msg {
		view, err := details.Load(m.ctx, m.deps.catalog, item)
		return detailsLoadedMsg{key: item.Key(), view: view, err: err}
	}
}

func (m browseModel) openTrailer(url string) tea.Cmd {
	return func() tea.Msg {
		if m.deps.openURL == nil {
			return trailerOpenedMsg{url: url, err: errors.New("no opener")}
		}
		return trailerOpenedMsg{url: url, err: m.deps.openURL(url)}
	}
}
