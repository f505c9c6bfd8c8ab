package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndvornikov/job_apply_bot/internal/db"
)

// fakeSender records everything the state machines push to the gateway.
type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}

	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func chattableText(c tgbotapi.Chattable) string {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.Text
	case tgbotapi.EditMessageTextConfig:
		return v.Text
	case tgbotapi.PhotoConfig:
		return v.Caption
	}

	return ""
}

func chattableChatID(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.EditMessageTextConfig:
		return v.ChatID
	case tgbotapi.PhotoConfig:
		return v.ChatID
	}

	return 0
}

func (f *fakeSender) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}

	return chattableText(f.sent[len(f.sent)-1])
}

// textsTo collects all message texts sent to one chat.
func (f *fakeSender) textsTo(chatID int64) []string {
	var texts []string

	for _, c := range f.sent {
		if chattableChatID(c) == chatID {
			texts = append(texts, chattableText(c))
		}
	}

	return texts
}

func (f *fakeSender) alerts() []tgbotapi.CallbackConfig {
	var alerts []tgbotapi.CallbackConfig

	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok && cb.ShowAlert {
			alerts = append(alerts, cb)
		}
	}

	return alerts
}

type upsertCall struct {
	UserID        int64
	Username      *string
	FullName      string
	Fields        db.Fields
	ExistingAppID *int64
}

type listCall struct {
	Page, PerPage int
	Statuses      []string
}

type fakeAppStore struct {
	byUser map[int64]*db.Application
	byID   map[int64]*db.Application

	upserts   []upsertCall
	listCalls []listCall
	statusSet map[int64]string

	listResult []db.Application
	listPages  int
	listItems  int

	getErr       error
	upsertErr    error
	listErr      error
	setStatusErr error
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{
		byUser:    make(map[int64]*db.Application),
		byID:      make(map[int64]*db.Application),
		statusSet: make(map[int64]string),
	}
}

func (f *fakeAppStore) GetByUserID(userID int64) (*db.Application, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	app, ok := f.byUser[userID]
	if !ok {
		return nil, db.ErrNotFound
	}

	return app, nil
}

func (f *fakeAppStore) GetByID(appID int64) (*db.Application, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	app, ok := f.byID[appID]
	if !ok {
		return nil, db.ErrNotFound
	}

	return app, nil
}

func (f *fakeAppStore) Upsert(userID int64, username *string, fullName string, fields db.Fields, existingAppID *int64) error {
	f.upserts = append(f.upserts, upsertCall{
		UserID:        userID,
		Username:      username,
		FullName:      fullName,
		Fields:        fields,
		ExistingAppID: existingAppID,
	})

	return f.upsertErr
}

func (f *fakeAppStore) ListPage(page, perPage int, statuses []string) ([]db.Application, int, int, error) {
	f.listCalls = append(f.listCalls, listCall{Page: page, PerPage: perPage, Statuses: statuses})

	if f.listErr != nil {
		return nil, 0, 0, f.listErr
	}

	return f.listResult, f.listPages, f.listItems, nil
}

func (f *fakeAppStore) SetStatus(appID int64, newStatus string) error {
	if f.setStatusErr != nil {
		return f.setStatusErr
	}

	f.statusSet[appID] = newStatus

	return nil
}

type fakeBanlist struct {
	banned  map[int64]bool
	reasons map[int64]string
	banErr  error
}

func newFakeBanlist() *fakeBanlist {
	return &fakeBanlist{
		banned:  make(map[int64]bool),
		reasons: make(map[int64]string),
	}
}

func (f *fakeBanlist) Ban(userID int64, reason string) (bool, error) {
	if f.banErr != nil {
		return false, f.banErr
	}

	if f.banned[userID] {
		return false, nil
	}

	f.banned[userID] = true
	f.reasons[userID] = reason

	return true, nil
}

func (f *fakeBanlist) IsBanned(userID int64) bool {
	return f.banned[userID]
}

const (
	testAdminChatID = int64(777)
	testAdminID     = int64(900)
)

func newTestService() (*Service, *fakeSender, *fakeAppStore, *fakeBanlist) {
	sender := &fakeSender{}
	store := newFakeAppStore()
	bans := newFakeBanlist()

	svc := New(sender, store, bans, testAdminChatID, []int64{testAdminID}, 5, "testdata/absent.jpg")

	return svc, sender, store, bans
}

func testUser(userID int64) *tgbotapi.User {
	return &tgbotapi.User{ID: userID, FirstName: "Иван", LastName: "Петров", UserName: "ivan"}
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      testUser(userID),
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}}
}

func commandUpdate(userID int64, command string) tgbotapi.Update {
	update := textUpdate(userID, command)
	update.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command)},
	}

	return update
}

func callbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: testUser(userID),
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		},
		Data: data,
	}}
}
