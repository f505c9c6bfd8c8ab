package bot

import (
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndvornikov/job_apply_bot/internal/db"
)

// Sender is the narrow slice of the messaging gateway the state machines
// depend on. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type ApplicationStore interface {
	GetByUserID(userID int64) (*db.Application, error)
	GetByID(appID int64) (*db.Application, error)
	Upsert(userID int64, username *string, fullName string, f db.Fields, existingAppID *int64) error
	ListPage(page, perPage int, statuses []string) ([]db.Application, int, int, error)
	SetStatus(appID int64, newStatus string) error
}

type Banlist interface {
	Ban(userID int64, reason string) (bool, error)
	IsBanned(userID int64) bool
}

type Service struct {
	sender       Sender
	apps         ApplicationStore
	banlist      Banlist
	adminChatID  int64
	adminIDs     map[int64]bool
	appsPerPage  int
	greetingPath string
	userStates   map[int64]*UserState
	adminStates  map[int64]*AdminState
}

func New(
	sender Sender,
	apps ApplicationStore,
	banlist Banlist,
	adminChatID int64,
	adminUserIDs []int64,
	appsPerPage int,
	greetingPath string,
) *Service {
	adminIDs := make(map[int64]bool, len(adminUserIDs))
	for _, id := range adminUserIDs {
		adminIDs[id] = true
	}

	return &Service{
		sender:       sender,
		apps:         apps,
		banlist:      banlist,
		adminChatID:  adminChatID,
		adminIDs:     adminIDs,
		appsPerPage:  appsPerPage,
		greetingPath: greetingPath,
		userStates:   make(map[int64]*UserState),
		adminStates:  make(map[int64]*AdminState),
	}
}

// Run consumes updates until the channel closes.
func (s *Service) Run(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		s.HandleUpdate(update)
	}
}

// HandleUpdate dispatches one inbound event: ban gate first, then commands,
// then the transition table matching the sender's current step.
func (s *Service) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		s.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		s.handleCallback(update.CallbackQuery)
	}
}

func (s *Service) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}

	userID := msg.From.ID

	if s.adminIDs[userID] {
		s.handleAdminMessage(msg)
		return
	}

	// Banned users get no reply at all. Admins are seeded into the ban set at
	// boot, so they never reach the registration flow either.
	if s.banlist.IsBanned(userID) {
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		s.cmdStart(msg)
		return
	case msg.IsCommand() && msg.Command() == "cancel",
		strings.EqualFold(text, "отмена"):
		s.cmdCancel(msg)
		return
	case msg.IsCommand():
		return
	}

	state, ok := s.userStates[userID]
	if !ok {
		log.Printf("bot: message from user %d with no active conversation - ignored", userID)
		return
	}

	handlers, ok := registrationTable[state.Step]
	if !ok || handlers.OnMessage == nil {
		log.Printf("bot: no message handler for step %q (user %d)", state.Step, userID)
		return
	}

	handlers.OnMessage(s, msg, state)
}

func (s *Service) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || !cq.Message.Chat.IsPrivate() {
		return
	}

	userID := cq.From.ID

	if s.adminIDs[userID] {
		s.handleAdminCallback(cq)
		return
	}

	if s.banlist.IsBanned(userID) {
		return
	}

	// The start-menu buttons work from any step: they reset the conversation.
	switch cq.Data {
	case cbStartNewApplication:
		s.startNewApplication(cq)
		return
	case cbStartEditApplication:
		s.startEditApplication(cq)
		return
	}

	state, ok := s.userStates[userID]
	if !ok {
		s.answerCallback(cq.ID, "", false)
		return
	}

	handlers, ok := registrationTable[state.Step]
	if !ok {
		s.answerCallback(cq.ID, "", false)
		return
	}

	for _, route := range handlers.OnCallback {
		if matchRoute(route, cq.Data) {
			route.Handle(s, cq, state)
			return
		}
	}

	s.answerCallback(cq.ID, "", false)
}

type callbackRoute struct {
	// Data matches the payload exactly; Prefix matches its head. Exactly one
	// of the two is set.
	Data   string
	Prefix string
	Handle func(s *Service, cq *tgbotapi.CallbackQuery, state *UserState)
}

func matchRoute(route callbackRoute, data string) bool {
	if route.Data != "" {
		return data == route.Data
	}

	return strings.HasPrefix(data, route.Prefix)
}

type stepHandlers struct {
	OnMessage  func(s *Service, msg *tgbotapi.Message, state *UserState)
	OnCallback []callbackRoute
}

// registrationTable is the registration state machine: one entry per step,
// consulted only by handleMessage/handleCallback.
var registrationTable = map[Step]stepHandlers{
	StepAwaitingAge: {
		OnMessage: (*Service).handleAge,
	},
	StepAwaitingCitizenship: {
		OnMessage: (*Service).handleCitizenship,
	},
	StepAwaitingRegion: {
		OnMessage: (*Service).handleRegionText,
		OnCallback: []callbackRoute{
			{Prefix: cbRegionPrefix, Handle: (*Service).handleRegionChoice},
		},
	},
	StepAwaitingAddress: {
		OnMessage: (*Service).handleAddressText,
		OnCallback: []callbackRoute{
			{Prefix: cbAddressPrefix, Handle: (*Service).handleAddressChoice},
		},
	},
	StepAwaitingPhone: {
		OnMessage: (*Service).handlePhone,
	},
	StepAwaitingConfirmation: {
		OnMessage: (*Service).handleConfirmationText,
		OnCallback: []callbackRoute{
			{Prefix: cbEditPrefix, Handle: (*Service).handleEditField},
			{Data: cbConfirmSubmission, Handle: (*Service).handleConfirmSubmission},
			{Data: cbCancelSubmission, Handle: (*Service).handleCancelSubmission},
		},
	},
}

// send delivers an outbound message; delivery failures are logged, never
// propagated, since storage is the record of truth.
func (s *Service) send(c tgbotapi.Chattable) {
	if _, err := s.sender.Send(c); err != nil {
		log.Printf("bot: send failed: %v", err)
	}
}

func (s *Service) sendText(chatID int64, text string) {
	s.send(tgbotapi.NewMessage(chatID, text))
}

func (s *Service) answerCallback(callbackID, text string, showAlert bool) {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = showAlert

	if _, err := s.sender.Request(cb); err != nil {
		log.Printf("bot: answer callback failed: %v", err)
	}
}

func (s *Service) deleteMessage(chatID int64, messageID int) {
	if _, err := s.sender.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Printf("bot: delete message %d failed: %v", messageID, err)
	}
}

func userFullName(u *tgbotapi.User) string {
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}

func displayUsername(u *tgbotapi.User) string {
	if u.UserName == "" {
		return "N/A"
	}

	return u.UserName
}
