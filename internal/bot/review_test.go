package bot

import (
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndvornikov/job_apply_bot/internal/db"
)

func reviewableApp(id, userID int64) db.Application {
	return db.Application{
		ID:          id,
		UserID:      userID,
		Username:    pointer.ToString("ivan"),
		FullName:    "Иван Петров",
		Age:         30,
		Citizenship: "Россия",
		RegionName:  "Московская область",
		Address:     "г. Мытищи Калинина, 6",
		Phone:       "+79161234567",
		Status:      db.StatusNew,
		CreatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
	}
}

// reviewingState seeds an admin mid-review, the way adminStartReview leaves it.
func reviewingState(svc *Service, appID, applicantID int64, page int) *AdminState {
	state := &AdminState{
		Step:            StepReviewingApplication,
		AppID:           appID,
		ApplicantUserID: applicantID,
		ApplicantName:   "Иван Петров",
		AppStatus:       db.StatusNew,
		ReturnPage:      page,
	}
	svc.adminStates[testAdminID] = state

	return state
}

func TestAdminViewApps(t *testing.T) {
	svc, sender, store, _ := newTestService()

	store.listResult = []db.Application{reviewableApp(11, 101), reviewableApp(12, 102)}
	store.listPages = 3
	store.listItems = 12

	svc.HandleUpdate(commandUpdate(testAdminID, "/view_apps"))

	require.Len(t, store.listCalls, 1)
	assert.Equal(t, listCall{Page: 1, PerPage: 5, Statuses: db.ReviewableStatuses}, store.listCalls[0])

	text := sender.lastText()
	assert.Contains(t, text, "Заявки (Страница 1/3, Всего: 12)")
	assert.Contains(t, text, "Заявка #11")
	assert.Contains(t, text, "Заявка #12")
}

func TestAdminViewAppsEmpty(t *testing.T) {
	svc, sender, _, _ := newTestService()

	svc.HandleUpdate(commandUpdate(testAdminID, "/view_apps"))
	assert.Equal(t, "Нет доступных заявок для просмотра.", sender.lastText())
}

func TestAdminViewAppsStorageError(t *testing.T) {
	svc, sender, store, _ := newTestService()

	store.listErr = assert.AnError

	svc.HandleUpdate(commandUpdate(testAdminID, "/view_apps"))
	assert.Equal(t, "Ошибка при получении заявок.", sender.lastText())
}

func TestAdminViewAppsIgnoredForNonAdmin(t *testing.T) {
	svc, sender, store, _ := newTestService()

	svc.HandleUpdate(commandUpdate(42, "/view_apps"))

	assert.Empty(t, store.listCalls)
	assert.Empty(t, sender.sent)
}

func TestAdminPagination(t *testing.T) {
	svc, sender, store, _ := newTestService()

	store.listResult = []db.Application{reviewableApp(6, 106)}
	store.listPages = 3
	store.listItems = 12

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_viewapps_page_2"))

	require.Len(t, store.listCalls, 1)
	assert.Equal(t, 2, store.listCalls[0].Page)
	assert.Contains(t, sender.lastText(), "Страница 2/3")
}

func TestAdminStartReview(t *testing.T) {
	svc, sender, store, _ := newTestService()

	store.byID[7] = pointer.To(reviewableApp(7, 42))

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_app_review_7_2"))

	state, ok := svc.adminStates[testAdminID]
	require.True(t, ok)
	assert.Equal(t, StepReviewingApplication, state.Step)
	assert.Equal(t, int64(7), state.AppID)
	assert.Equal(t, int64(42), state.ApplicantUserID)
	assert.Equal(t, 2, state.ReturnPage)

	text := sender.lastText()
	assert.Contains(t, text, "Просмотр заявки #7")
	assert.Contains(t, text, "+79161234567")
	assert.Contains(t, text, "Иван Петров")
}

func TestAdminStartReviewMissingApplication(t *testing.T) {
	svc, sender, store, _ := newTestService()

	store.listResult = nil
	store.listPages = 0
	store.listItems = 0

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_app_review_7_1"))

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)

	alerts := sender.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Text, "Заявка #7 не найдена")

	// The stale button falls back to a refreshed list.
	require.Len(t, store.listCalls, 1)
	assert.Equal(t, 1, store.listCalls[0].Page)
}

func TestAdminComplete(t *testing.T) {
	svc, sender, store, _ := newTestService()

	reviewingState(svc, 7, 42, 2)

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_review_complete"))

	assert.Equal(t, db.StatusCompleted, store.statusSet[7])

	applicantTexts := sender.textsTo(42)
	require.Len(t, applicantTexts, 1)
	assert.Contains(t, applicantTexts[0], "Ваша заявка #7 была принята!")

	alerts := sender.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Text, "завершенная")

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)

	// Back to the page the admin came from.
	require.Len(t, store.listCalls, 1)
	assert.Equal(t, 2, store.listCalls[0].Page)
}

func TestAdminCompleteLosesRace(t *testing.T) {
	svc, sender, store, _ := newTestService()

	reviewingState(svc, 7, 42, 1)
	store.setStatusErr = db.ErrNotFound

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_review_complete"))

	assert.Empty(t, sender.textsTo(42), "the applicant is not congratulated twice")

	alerts := sender.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Text, "не найдена или уже обработана")

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)
	assert.Len(t, store.listCalls, 1)
}

func TestAdminRejectFlow(t *testing.T) {
	svc, sender, store, _ := newTestService()

	state := reviewingState(svc, 7, 42, 1)

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_review_reject"))
	assert.Equal(t, StepAwaitingRejectionReason, state.Step)
	assert.Contains(t, sender.lastText(), "причину отклонения заявки #7")

	svc.HandleUpdate(textUpdate(testAdminID, "Не подходит по возрасту"))

	assert.Equal(t, db.StatusRejected, store.statusSet[7])

	applicantTexts := sender.textsTo(42)
	require.Len(t, applicantTexts, 1)
	assert.Contains(t, applicantTexts[0], "была отклонена")
	assert.Contains(t, applicantTexts[0], "Не подходит по возрасту")

	adminTexts := sender.textsTo(testAdminID)
	assert.Contains(t, adminTexts[len(adminTexts)-2], "Заявка #7 отклонена")

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)
}

func TestAdminWriteToApplicant(t *testing.T) {
	svc, sender, store, _ := newTestService()

	state := reviewingState(svc, 7, 42, 1)

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_review_write"))
	assert.Equal(t, StepAwaitingMessageToUser, state.Step)

	svc.HandleUpdate(textUpdate(testAdminID, "Перезвоните нам завтра"))

	applicantTexts := sender.textsTo(42)
	require.Len(t, applicantTexts, 1)
	assert.Contains(t, applicantTexts[0], "по вашей заявке #7")
	assert.Contains(t, applicantTexts[0], "Перезвоните нам завтра")

	assert.Empty(t, store.statusSet, "relaying a message does not touch the status")

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)
}

func TestAdminBan(t *testing.T) {
	svc, sender, store, bans := newTestService()

	reviewingState(svc, 7, 42, 1)

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_ban_user"))

	assert.True(t, bans.banned[42])
	assert.Contains(t, bans.reasons[42], "banned by admin 900")

	applicantTexts := sender.textsTo(42)
	require.Len(t, applicantTexts, 1)
	assert.Contains(t, applicantTexts[0], "заблокированы")

	assert.Empty(t, store.statusSet, "the application keeps its status")

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)
	assert.Len(t, store.listCalls, 1)
}

func TestAdminBackToList(t *testing.T) {
	svc, _, store, _ := newTestService()

	reviewingState(svc, 7, 42, 3)

	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_review_backtolist"))

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)

	require.Len(t, store.listCalls, 1)
	assert.Equal(t, 3, store.listCalls[0].Page)
}

func TestAdminStaleReviewAction(t *testing.T) {
	svc, sender, store, _ := newTestService()

	// No reviewing state: the button outlived the review it belonged to.
	svc.HandleUpdate(callbackUpdate(testAdminID, "admin_review_complete"))

	assert.Empty(t, store.statusSet)

	alerts := sender.alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Text, "Действие устарело")
}

func TestAdminCancelAction(t *testing.T) {
	svc, sender, store, _ := newTestService()

	state := reviewingState(svc, 7, 42, 2)
	state.Step = StepAwaitingRejectionReason

	svc.HandleUpdate(commandUpdate(testAdminID, "/cancel_admin_action"))

	_, ok := svc.adminStates[testAdminID]
	assert.False(t, ok)
	assert.Empty(t, store.statusSet)

	adminTexts := sender.textsTo(testAdminID)
	require.NotEmpty(t, adminTexts)
	assert.Contains(t, adminTexts[0], "Действие отменено")

	require.Len(t, store.listCalls, 1)
	assert.Equal(t, 2, store.listCalls[0].Page)
}
