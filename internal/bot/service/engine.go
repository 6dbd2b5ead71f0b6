package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/seerrbot/OverseerrBot/internal/bot/constant"
	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/sirupsen/logrus"
)

// issueCategory is one static issue classification offered after selecting
// an available title. Code matches the Overseerr issue type.
type issueCategory struct {
	Code          int
	Label         string
	Subcategories []string
}

var issueCategories = []issueCategory{
	{Code: 1, Label: "Video", Subcategories: []string{"Does not play", "Wrong resolution", "Buffering or stuttering", "Other video problem"}},
	{Code: 2, Label: "Audio", Subcategories: []string{"No sound", "Wrong language", "Out of sync", "Other audio problem"}},
	{Code: 3, Label: "Subtitle", Subcategories: []string{"Missing subtitles", "Wrong language", "Out of sync", "Other subtitle problem"}},
	{Code: 4, Label: "Other", Subcategories: []string{"Wrong episode or version", "Incorrect metadata", "Something else"}},
}

func categoryByCode(code int) *issueCategory {
	for i := range issueCategories {
		if issueCategories[i].Code == code {
			return &issueCategories[i]
		}
	}
	return nil
}

// Engine drives the per-session conversation state machine. Events for the
// same participant are serialized on a per-session lock; handlers mutate a
// copy of the session that is saved back to the store and persisted before
// the triggering event's replies are handed back for delivery.
type Engine struct {
	sessions   SessionStore
	config     ConfigStore
	backend    Backend
	selections *SelectionCache
	auth       *AuthGate
	group      *GroupGate

	locks map[int64]*sync.Mutex
	mu    sync.Mutex // protects locks
}

// NewEngine wires the conversation engine.
func NewEngine(sessions SessionStore, config ConfigStore, backend Backend, selections *SelectionCache, auth *AuthGate, group *GroupGate) *Engine {
	return &Engine{
		sessions:   sessions,
		config:     config,
		backend:    backend,
		selections: selections,
		auth:       auth,
		group:      group,
		locks:      make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) sessionLock(participantID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[participantID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[participantID] = l
	}
	return l
}

// Handle processes one inbound event and returns the replies to deliver.
// A nil return means the event was dropped (not admitted, or blocked).
func (e *Engine) Handle(ev Event) []Reply {
	lock := e.sessionLock(ev.ParticipantID)
	lock.Lock()
	defer lock.Unlock()

	sess := e.sessions.GetOrCreate(ev.ParticipantID, e.auth.PasswordEmpty())

	if !e.group.Admit(ev, &sess) {
		e.persistSessions()
		return nil
	}

	var replies []Reply
	switch e.auth.Authorize(&sess, ev) {
	case AuthDenyBlocked:
		replies = nil
	case AuthPrompt:
		replies = textReply(constant.MSG_PASSWORD_PROMPT)
	case AuthDenyPassword:
		replies = textReply(constant.MSG_PASSWORD_WRONG)
	case AuthAccepted:
		replies = textReply(constant.MSG_PASSWORD_OK)
	default:
		replies = e.dispatch(&sess, ev)
	}

	e.sessions.Save(sess)
	e.persistSessions()
	for i := range replies {
		replies[i].Silent = replies[i].Silent || sess.Prefs.Silent
	}
	return replies
}

func (e *Engine) persistSessions() {
	if err := e.sessions.Persist(); err != nil {
		logrus.WithError(err).Error("Failed to persist sessions")
	}
}

func (e *Engine) dispatch(sess *models.Session, ev Event) []Reply {
	switch {
	case ev.Command != "":
		return e.handleCommand(sess, ev)
	case ev.Callback != "":
		return e.handleCallback(sess, ev)
	default:
		return e.handleText(sess, ev)
	}
}

// handleCommand executes a slash command. Commands force a state reset:
// an in-progress wizard is abandoned and its staged input discarded.
func (e *Engine) handleCommand(sess *models.Session, ev Event) []Reply {
	sess.State = models.StateIdle
	sess.StagedEmail = ""

	switch ev.Command {
	case "start":
		return e.handleStart(sess)
	case "check":
		return e.handleCheck(sess, ev)
	case "settings":
		return e.handleSettings(sess)
	case "block":
		return e.handleSetRole(sess, ev, models.RoleBlocked)
	case "unblock":
		return e.handleSetRole(sess, ev, models.RoleUser)
	default:
		return textReply("Unknown command. Try /check <title> or /settings.")
	}
}

func (e *Engine) handleStart(sess *models.Session) []Reply {
	welcome := "Welcome to the Overseerr Telegram Bot!\n\n" +
		constant.EMOJI_MAGNIFIER + " *To search and request a movie or TV show:*\n" +
		"Type `/check <title>`.\n" +
		"_Example: /check Venom_\n\n" +
		constant.EMOJI_CLAPPER + " *What I do:*\n" +
		"- I search for the title you specify.\n" +
		"- If it has not been requested yet, I can submit a request for you.\n" +
		"- If it is already in the library, you can report playback issues.\n\n" +
		constant.EMOJI_GEAR + " Use /settings to link your Overseerr account."
	if sess.Role == models.RoleAdmin {
		welcome += "\n\nYou are the bot admin: /settings also offers mode and group controls."
	}
	return []Reply{{Text: welcome, Markdown: true}}
}

func (e *Engine) handleCheck(sess *models.Session, ev Event) []Reply {
	query := strings.TrimSpace(ev.Args)
	if query == "" {
		return textReply(constant.MSG_CHECK_USAGE)
	}

	// A new /check supersedes whatever flow was in progress.
	e.selections.Clear(sess.ParticipantID)

	results, err := e.backend.Search(query)
	if err != nil {
		return e.backendFailure(err)
	}
	if len(results) == 0 {
		return textReply(constant.MSG_NO_RESULTS)
	}

	sel := e.selections.StartSearch(sess.ParticipantID, query, results)
	sess.State = models.StateBrowsingResults
	return []Reply{e.resultsPage(sel, false)}
}

func (e *Engine) handleSettings(sess *models.Session) []Reply {
	cfg := e.config.Get()

	switch cfg.Mode {
	case models.ModeNormal:
		if sess.Identity.Kind == models.IdentityCredentials {
			return e.settingsStatus(sess, cfg)
		}
		sess.State = models.StateAwaitingEmail
		return textReply("Let's link your Overseerr account.\nPlease enter your email address:")

	case models.ModeAPI:
		users, err := e.backend.ListUsers()
		if err != nil {
			return e.backendFailure(err)
		}
		sel := e.selections.StartUsers(sess.ParticipantID, users)
		sess.State = models.StateSelectingBackendUser
		replies := []Reply{e.usersPage(sel, sess.Role == models.RoleAdmin)}
		if sess.Role == models.RoleAdmin {
			replies = append(replies, Reply{Text: "Admin controls:", Buttons: e.adminRows(cfg)})
		}
		return replies

	case models.ModeShared:
		if sess.Role != models.RoleAdmin {
			status := "The bot runs in shared mode: every request is made with the admin's shared account."
			if cfg.SharedToken == "" {
				status += "\nThe shared login is not configured yet - ask the admin."
			}
			return textReply(status)
		}
		if cfg.SharedToken != "" {
			return e.settingsStatus(sess, cfg)
		}
		sess.State = models.StateAwaitingEmail
		return textReply("Shared mode: log in with the Overseerr account every request will use.\nPlease enter the email address:")
	}
	return textReply(constant.MSG_IDLE_HINT)
}

// settingsStatus shows the current identity plus action buttons. Reached
// only with a configured identity in Normal mode, or by the admin in Shared
// mode with a shared login present.
func (e *Engine) settingsStatus(sess *models.Session, cfg models.BotConfig) []Reply {
	var b strings.Builder
	b.WriteString("Current settings\n")
	b.WriteString("Mode: " + string(cfg.Mode) + "\n")
	switch {
	case cfg.Mode == models.ModeShared:
		b.WriteString("Shared login: configured\n")
	case sess.Identity.Kind == models.IdentityCredentials:
		b.WriteString("Login: linked\n")
	case sess.Identity.Kind == models.IdentitySelectedUser:
		b.WriteString(fmt.Sprintf("Requesting as user #%d\n", sess.Identity.UserID))
	}
	if sess.Prefs.Enabled {
		delivery := "loud"
		if sess.Prefs.Silent {
			delivery = "silent"
		}
		b.WriteString("Notifications: on (" + delivery + ")")
	} else {
		b.WriteString("Notifications: off")
	}

	buttons := [][]Button{
		{{Label: constant.BUTTON_TEXT_RELOGIN, Data: constant.CB_RELOGIN + ":again"}},
	}
	buttons = append(buttons, e.notifRows(sess)...)
	if sess.Role == models.RoleAdmin {
		buttons = append(buttons, e.adminRows(cfg)...)
	}
	return []Reply{{Text: b.String(), Buttons: buttons}}
}

func (e *Engine) notifRows(sess *models.Session) [][]Button {
	var row []Button
	if sess.Prefs.Enabled {
		row = append(row, Button{Label: "Disable notifications", Data: constant.CB_NOTIFY + ":off"})
		if sess.Prefs.Silent {
			row = append(row, Button{Label: "Loud delivery", Data: constant.CB_NOTIFY + ":loud"})
		} else {
			row = append(row, Button{Label: "Silent delivery", Data: constant.CB_NOTIFY + ":silent"})
		}
	} else {
		row = append(row, Button{Label: "Enable notifications", Data: constant.CB_NOTIFY + ":on"})
	}
	return [][]Button{row}
}

func (e *Engine) adminRows(cfg models.BotConfig) [][]Button {
	mark := func(m models.OperationMode, label string) Button {
		if cfg.Mode == m {
			label = constant.EMOJI_CHECK + " " + label
		}
		return Button{Label: label, Data: constant.CB_MODE + ":" + string(m)}
	}
	modeRow := []Button{
		mark(models.ModeNormal, "Normal"),
		mark(models.ModeAPI, "API"),
		mark(models.ModeShared, "Shared"),
	}
	groupRow := []Button{}
	if cfg.GroupMode {
		groupRow = append(groupRow, Button{Label: "Disable group mode", Data: constant.CB_GROUP + ":off"})
	} else {
		groupRow = append(groupRow, Button{Label: "Enable group mode", Data: constant.CB_GROUP + ":on"})
	}
	return [][]Button{modeRow, groupRow}
}

// handleText advances the wizard the session is in, or hints when idle.
func (e *Engine) handleText(sess *models.Session, ev Event) []Reply {
	text := strings.TrimSpace(ev.Text)

	switch sess.State {
	case models.StateAwaitingEmail:
		if !strings.Contains(text, "@") {
			return textReply("That does not look like an email address. Please try again:")
		}
		sess.StagedEmail = text
		sess.State = models.StateAwaitingLoginPassword
		return textReply("Now enter the password:")

	case models.StateAwaitingLoginPassword:
		return e.completeLogin(sess, text)

	case models.StateAwaitingNewUserEmail:
		if !strings.Contains(text, "@") {
			return textReply("That does not look like an email address. Please try again:")
		}
		sess.StagedEmail = text
		sess.State = models.StateAwaitingNewUserName
		return textReply("Now enter a username for the new account:")

	case models.StateAwaitingNewUserName:
		return e.completeCreateUser(sess, text)

	default:
		return textReply(constant.MSG_IDLE_HINT)
	}
}

// completeLogin finishes the email+password wizard. A rejected login sends
// the participant back to email entry with staged input cleared; a transient
// backend failure leaves the step retryable.
func (e *Engine) completeLogin(sess *models.Session, password string) []Reply {
	token, err := e.backend.Login(sess.StagedEmail, password)
	if err != nil {
		if errors.Is(err, models.ErrTransientBackend) {
			return textReply(constant.MSG_TRANSIENT)
		}
		sess.StagedEmail = ""
		sess.State = models.StateAwaitingEmail
		return textReply("Login failed. Let's start over - please enter your email address:")
	}

	cfg := e.config.Get()
	if cfg.Mode == models.ModeShared && sess.Role == models.RoleAdmin {
		if err = e.config.Update(func(c *models.BotConfig) error {
			c.SharedToken = token
			return nil
		}); err != nil {
			logrus.WithError(err).Error("Failed to store shared login")
			return textReply(constant.MSG_TRANSIENT)
		}
		sess.StagedEmail = ""
		sess.State = models.StateIdle
		return textReply(constant.EMOJI_CHECK + " Shared login configured. Everyone's requests now use this account.")
	}

	sess.Identity = models.BackendIdentity{Kind: models.IdentityCredentials, Token: token}
	sess.StagedEmail = ""
	sess.State = models.StateIdle
	return textReply(constant.EMOJI_CHECK + " Logged in! You can now /check titles and request them.")
}

func (e *Engine) completeCreateUser(sess *models.Session, username string) []Reply {
	if username == "" {
		return textReply("Please enter a non-empty username:")
	}
	err := e.backend.CreateUser(sess.StagedEmail, username)
	if err != nil {
		if errors.Is(err, models.ErrTransientBackend) {
			return textReply(constant.MSG_TRANSIENT)
		}
		sess.StagedEmail = ""
		sess.State = models.StateAwaitingNewUserEmail
		return textReply("Could not create that user (maybe the email is taken). Please enter a different email address:")
	}
	sess.StagedEmail = ""
	sess.State = models.StateIdle
	return textReply(constant.EMOJI_CHECK + " User created. Run /settings to select them.")
}

// handleSetRole is the admin's /block and /unblock. The target session is
// created if the participant has never written to the bot.
func (e *Engine) handleSetRole(sess *models.Session, ev Event, role models.Role) []Reply {
	if sess.Role != models.RoleAdmin {
		return textReply(constant.MSG_ADMIN_ONLY)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(ev.Args), 10, 64)
	if err != nil {
		return textReply("Usage: /" + ev.Command + " <participant id>")
	}
	if id == sess.ParticipantID {
		return textReply("You cannot change your own role.")
	}
	target := e.sessions.GetOrCreate(id, e.auth.PasswordEmpty())
	if target.Role == models.RoleAdmin {
		return textReply("The admin cannot be blocked.")
	}
	e.sessions.SetRole(id, role)
	verb := "unblocked"
	if role == models.RoleBlocked {
		verb = "blocked"
	}
	logrus.Infof("Admin %d %s participant %d", sess.ParticipantID, verb, id)
	return textReply(fmt.Sprintf("Participant %d has been %s.", id, verb))
}

// handleCallback routes a menu-button tap. Selection-bound buttons carry a
// generation token and are rejected as stale when the token no longer
// matches the live selection.
func (e *Engine) handleCallback(sess *models.Session, ev Event) []Reply {
	parts := strings.SplitN(ev.Callback, ":", 3)

	switch parts[0] {
	case constant.CB_MODE:
		if len(parts) < 2 {
			return textReply(constant.MSG_STALE_MENU)
		}
		return e.handleModeSwitch(sess, parts[1])
	case constant.CB_GROUP:
		if len(parts) < 2 {
			return textReply(constant.MSG_STALE_MENU)
		}
		return e.handleGroupToggle(sess, parts[1])
	case constant.CB_NOTIFY:
		if len(parts) < 2 {
			return textReply(constant.MSG_STALE_MENU)
		}
		return e.handleNotifyToggle(sess, parts[1])
	case constant.CB_RELOGIN:
		sess.StagedEmail = ""
		if e.config.Get().Mode == models.ModeAPI {
			return e.handleSettings(sess)
		}
		sess.State = models.StateAwaitingEmail
		return textReply("Please enter your email address:")
	}

	if len(parts) != 3 {
		return textReply(constant.MSG_STALE_MENU)
	}
	sel, err := e.selections.Get(sess.ParticipantID, parts[1])
	if err != nil {
		// Stale taps are corrected with a fresh prompt, not an error.
		return textReply(constant.MSG_STALE_MENU)
	}
	payload := parts[2]

	switch parts[0] {
	case constant.CB_PAGE:
		return e.handlePageTurn(sess, sel, payload)
	case constant.CB_SELECT:
		return e.handleResultSelect(sess, sel, payload)
	case constant.CB_REQUEST:
		return e.handleRequestSubmit(sess, sel, payload)
	case constant.CB_CATEGORY:
		return e.handleCategoryPick(sess, sel, payload)
	case constant.CB_SUBCATEGORY:
		return e.handleIssueSubmit(sess, sel, payload)
	case constant.CB_USER:
		return e.handleUserSelect(sess, sel, payload)
	case constant.CB_NEW_USER:
		if sess.Role != models.RoleAdmin {
			return textReply(constant.MSG_ADMIN_ONLY)
		}
		sess.State = models.StateAwaitingNewUserEmail
		return textReply("Enter the new user's email address:")
	}
	return textReply(constant.MSG_STALE_MENU)
}

func (e *Engine) handlePageTurn(sess *models.Session, sel *Selection, payload string) []Reply {
	page, err := strconv.Atoi(payload)
	if err != nil || page < 0 {
		return textReply(constant.MSG_STALE_MENU)
	}
	n := len(sel.Results)
	if sel.Kind == SelectionUsers {
		n = len(sel.Users)
	}
	if start, end := pageBounds(n, page, constant.PageSize); start == end {
		return textReply(constant.MSG_STALE_MENU)
	}
	sel.Page = page
	if sel.Kind == SelectionUsers {
		return []Reply{e.usersPage(sel, sess.Role == models.RoleAdmin)}
	}
	return []Reply{e.resultsPage(sel, true)}
}

func (e *Engine) handleResultSelect(sess *models.Session, sel *Selection, payload string) []Reply {
	idx, err := strconv.Atoi(payload)
	if err != nil || sel.Kind != SelectionSearch || idx < 0 || idx >= len(sel.Results) {
		return textReply(constant.MSG_STALE_MENU)
	}
	sel.ChosenIdx = idx
	r := sel.Results[idx]

	if r.Available {
		sess.State = models.StateSelectingIssueCategory
		var rows [][]Button
		for _, cat := range issueCategories {
			rows = append(rows, []Button{{
				Label: cat.Label,
				Data:  constant.CB_CATEGORY + ":" + sel.Token + ":" + strconv.Itoa(cat.Code),
			}})
		}
		return []Reply{{
			Text:    fmt.Sprintf("'%s' is already in the library. What kind of issue would you like to report?", titleWithYear(r)),
			Buttons: rows,
		}}
	}

	if r.Requested {
		return textReply(fmt.Sprintf("'%s' has already been requested. You will be notified when it becomes available.", titleWithYear(r)))
	}
	return []Reply{{
		Text: fmt.Sprintf("'%s' is not in the library yet.", titleWithYear(r)),
		Buttons: [][]Button{{{
			Label: constant.BUTTON_TEXT_REQUEST,
			Data:  constant.CB_REQUEST + ":" + sel.Token + ":" + strconv.Itoa(idx),
		}}},
	}}
}

func (e *Engine) handleRequestSubmit(sess *models.Session, sel *Selection, payload string) []Reply {
	idx, err := strconv.Atoi(payload)
	if err != nil || sel.Kind != SelectionSearch || idx < 0 || idx >= len(sel.Results) {
		return textReply(constant.MSG_STALE_MENU)
	}
	r := sel.Results[idx]

	identity, err := ResolveIdentity(e.config.Get(), sess, false)
	if err != nil {
		return textReply(constant.MSG_NEEDS_SETUP)
	}
	if err = e.backend.CreateRequest(identity, r.ID, r.MediaType); err != nil {
		return e.backendFailure(err)
	}

	e.selections.Clear(sess.ParticipantID)
	sess.State = models.StateIdle
	return textReply(fmt.Sprintf("Request for '%s' has been sent successfully!", titleWithYear(r)))
}

func (e *Engine) handleCategoryPick(sess *models.Session, sel *Selection, payload string) []Reply {
	code, err := strconv.Atoi(payload)
	cat := categoryByCode(code)
	if err != nil || cat == nil || sel.ChosenIdx < 0 {
		return textReply(constant.MSG_STALE_MENU)
	}
	sel.Category = code
	sess.State = models.StateSelectingIssueSubcategory

	var rows [][]Button
	for i, sub := range cat.Subcategories {
		rows = append(rows, []Button{{
			Label: sub,
			Data:  constant.CB_SUBCATEGORY + ":" + sel.Token + ":" + strconv.Itoa(i),
		}})
	}
	return []Reply{{Text: "Which best describes the problem?", Buttons: rows}}
}

func (e *Engine) handleIssueSubmit(sess *models.Session, sel *Selection, payload string) []Reply {
	cat := categoryByCode(sel.Category)
	idx, err := strconv.Atoi(payload)
	if err != nil || cat == nil || sel.ChosenIdx < 0 || idx < 0 || idx >= len(cat.Subcategories) {
		return textReply(constant.MSG_STALE_MENU)
	}
	r := sel.Results[sel.ChosenIdx]

	// Issue reports resolve through the issue-specific path: under API mode
	// they are attributed to the admin, not the selected user.
	identity, err := ResolveIdentity(e.config.Get(), sess, true)
	if err != nil {
		return textReply(constant.MSG_NEEDS_SETUP)
	}
	message := fmt.Sprintf("%s - %s (reported via Telegram for '%s')", cat.Label, cat.Subcategories[idx], titleWithYear(r))
	if err = e.backend.CreateIssue(identity, r.ID, sel.Category, message); err != nil {
		return e.backendFailure(err)
	}

	e.selections.Clear(sess.ParticipantID)
	sess.State = models.StateIdle
	return textReply(constant.EMOJI_CHECK + " Issue report submitted. Thanks for letting us know!")
}

func (e *Engine) handleUserSelect(sess *models.Session, sel *Selection, payload string) []Reply {
	idx, err := strconv.Atoi(payload)
	if err != nil || sel.Kind != SelectionUsers || idx < 0 || idx >= len(sel.Users) {
		return textReply(constant.MSG_STALE_MENU)
	}
	u := sel.Users[idx]
	sess.Identity = models.BackendIdentity{Kind: models.IdentitySelectedUser, UserID: u.ID}
	e.selections.Clear(sess.ParticipantID)
	sess.State = models.StateIdle
	return textReply(fmt.Sprintf("Requests will now be made for %s.", u.DisplayName))
}

func (e *Engine) handleModeSwitch(sess *models.Session, payload string) []Reply {
	if sess.Role != models.RoleAdmin {
		return textReply(constant.MSG_ADMIN_ONLY)
	}
	mode := models.OperationMode(payload)
	if mode != models.ModeNormal && mode != models.ModeAPI && mode != models.ModeShared {
		return textReply(constant.MSG_STALE_MENU)
	}
	// Switching modes never touches any session's stored identity; an
	// identity from another mode is simply inert until that mode returns.
	if err := e.config.Update(func(c *models.BotConfig) error {
		c.Mode = mode
		return nil
	}); err != nil {
		logrus.WithError(err).Error("Failed to switch operation mode")
		return textReply(constant.MSG_TRANSIENT)
	}
	logrus.Infof("Admin %d switched operation mode to %s", sess.ParticipantID, mode)
	return textReply(fmt.Sprintf("Operation mode is now %s. Users may need to run /settings again.", mode))
}

func (e *Engine) handleGroupToggle(sess *models.Session, payload string) []Reply {
	if sess.Role != models.RoleAdmin {
		return textReply(constant.MSG_ADMIN_ONLY)
	}
	enable := payload == "on"
	err := e.config.Update(func(c *models.BotConfig) error {
		if enable && !e.sessions.HasAdmin() {
			return ErrConfigInvariant
		}
		c.GroupMode = enable
		c.PrimaryChatID = 0
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConfigInvariant) {
			return textReply("Group mode needs a bot admin first.")
		}
		logrus.WithError(err).Error("Failed to toggle group mode")
		return textReply(constant.MSG_TRANSIENT)
	}
	if enable {
		return textReply("Group mode enabled. Send /start in the chat that should become the primary chat.")
	}
	return textReply("Group mode disabled. The bot responds everywhere again.")
}

func (e *Engine) handleNotifyToggle(sess *models.Session, payload string) []Reply {
	identity, err := ResolveIdentity(e.config.Get(), sess, false)
	if err != nil {
		return textReply(constant.MSG_NEEDS_SETUP)
	}

	prefs := sess.Prefs
	switch payload {
	case "on":
		prefs.Enabled = true
	case "off":
		prefs.Enabled = false
	case "silent":
		prefs.Silent = true
	case "loud":
		prefs.Silent = false
	default:
		return textReply(constant.MSG_STALE_MENU)
	}

	if err = e.backend.SetNotifications(identity, prefs.Enabled, prefs.Silent); err != nil {
		return e.backendFailure(err)
	}
	sess.Prefs = prefs

	state := "off"
	if prefs.Enabled {
		state = "on (loud)"
		if prefs.Silent {
			state = "on (silent)"
		}
	}
	return textReply("Notifications are now " + state + ".")
}

// backendFailure maps a backend error to the user-visible reply. Transient
// failures leave the conversation state untouched so the same step can be
// retried.
func (e *Engine) backendFailure(err error) []Reply {
	switch {
	case errors.Is(err, models.ErrTransientBackend):
		return textReply(constant.MSG_TRANSIENT)
	case errors.Is(err, models.ErrBadCredentials):
		return textReply("Your Overseerr login is no longer valid. Please run /settings to log in again.")
	default:
		logrus.WithError(err).Error("Backend call failed")
		return textReply(constant.MSG_TRANSIENT)
	}
}

func titleWithYear(r models.MediaResult) string {
	if r.Year == "" {
		return r.Title
	}
	return r.Title + " (" + r.Year + ")"
}

// resultsPage builds the paginated search-result menu for the selection's
// current page. edit makes the orchestrator replace the tapped menu.
func (e *Engine) resultsPage(sel *Selection, edit bool) Reply {
	start, end := pageBounds(len(sel.Results), sel.Page, constant.PageSize)
	var rows [][]Button
	for i := start; i < end; i++ {
		rows = append(rows, []Button{{
			Label: titleWithYear(sel.Results[i]),
			Data:  constant.CB_SELECT + ":" + sel.Token + ":" + strconv.Itoa(i),
		}})
	}
	if nav := e.navRow(sel, len(sel.Results), end); nav != nil {
		rows = append(rows, nav)
	}
	return Reply{Text: constant.MSG_SELECT_RESULT, Buttons: rows, EditMenu: edit}
}

func (e *Engine) usersPage(sel *Selection, isAdmin bool) Reply {
	start, end := pageBounds(len(sel.Users), sel.Page, constant.PageSize)
	var rows [][]Button
	for i := start; i < end; i++ {
		rows = append(rows, []Button{{
			Label: sel.Users[i].DisplayName,
			Data:  constant.CB_USER + ":" + sel.Token + ":" + strconv.Itoa(i),
		}})
	}
	if nav := e.navRow(sel, len(sel.Users), end); nav != nil {
		rows = append(rows, nav)
	}
	if isAdmin {
		rows = append(rows, []Button{{
			Label: constant.BUTTON_TEXT_CREATE_USER,
			Data:  constant.CB_NEW_USER + ":" + sel.Token + ":0",
		}})
	}
	return Reply{Text: "Select the Overseerr user to request as:", Buttons: rows}
}

func (e *Engine) navRow(sel *Selection, total, end int) []Button {
	var nav []Button
	if sel.Page > 0 {
		nav = append(nav, Button{
			Label: constant.BUTTON_TEXT_BACK,
			Data:  constant.CB_PAGE + ":" + sel.Token + ":" + strconv.Itoa(sel.Page-1),
		})
	}
	if end < total {
		nav = append(nav, Button{
			Label: constant.BUTTON_TEXT_MORE,
			Data:  constant.CB_PAGE + ":" + sel.Token + ":" + strconv.Itoa(sel.Page+1),
		})
	}
	return nav
}
