package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndvornikov/job_apply_bot/internal/db"
)

func (s *Service) handleAdminMessage(msg *tgbotapi.Message) {
	adminID := msg.From.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "view_apps":
			log.Printf("bot: admin %d opened the application list", adminID)
			delete(s.adminStates, adminID)
			s.showApplicationsPage(msg.Chat.ID, 0, 1, false)
		case "cancel_admin_action":
			s.cmdCancelAdminAction(msg)
		}
		return
	}

	state, ok := s.adminStates[adminID]
	if !ok {
		return
	}

	handler, ok := adminMessageTable[state.Step]
	if !ok {
		return
	}

	handler(s, msg, state)
}

func (s *Service) handleAdminCallback(cq *tgbotapi.CallbackQuery) {
	for _, route := range adminCallbackTable {
		if !matchAdminRoute(route, cq.Data) {
			continue
		}

		var state *AdminState
		if route.NeedsReview {
			var ok bool
			state, ok = s.adminStates[cq.From.ID]
			if !ok || state.Step != StepReviewingApplication {
				s.answerCallback(cq.ID, "Действие устарело. Откройте список заявок: /view_apps", true)
				return
			}
		}

		route.Handle(s, cq, state)
		return
	}

	s.answerCallback(cq.ID, "", false)
}

type adminRoute struct {
	Data   string
	Prefix string

	// NeedsReview requires an active reviewing_application state; the other
	// routes carry their context in the payload.
	NeedsReview bool

	Handle func(s *Service, cq *tgbotapi.CallbackQuery, state *AdminState)
}

func matchAdminRoute(route adminRoute, data string) bool {
	if route.Data != "" {
		return data == route.Data
	}

	return strings.HasPrefix(data, route.Prefix)
}

// adminCallbackTable is the review state machine's button vocabulary.
var adminCallbackTable = []adminRoute{
	{Prefix: cbAdminPagePrefix, Handle: (*Service).adminListPage},
	{Prefix: cbAdminReviewPrefix, Handle: (*Service).adminStartReview},
	{Data: cbAdminWrite, NeedsReview: true, Handle: (*Service).adminWriteStart},
	{Data: cbAdminComplete, NeedsReview: true, Handle: (*Service).adminComplete},
	{Data: cbAdminReject, NeedsReview: true, Handle: (*Service).adminRejectStart},
	{Data: cbAdminBan, NeedsReview: true, Handle: (*Service).adminBan},
	{Data: cbAdminBackToList, NeedsReview: true, Handle: (*Service).adminBackToList},
	{Data: cbAdminNoop, Handle: (*Service).adminNoop},
}

var adminMessageTable = map[Step]func(s *Service, msg *tgbotapi.Message, state *AdminState){
	StepAwaitingMessageToUser:   (*Service).adminRelayMessage,
	StepAwaitingRejectionReason: (*Service).adminRejectReason,
}

func (s *Service) cmdCancelAdminAction(msg *tgbotapi.Message) {
	adminID := msg.From.ID

	state, ok := s.adminStates[adminID]
	if !ok {
		s.sendText(msg.Chat.ID, "Нечего отменять.")
		return
	}

	log.Printf("bot: admin %d cancelled action at step %q", adminID, state.Step)

	page := state.ReturnPage
	if page < 1 {
		page = 1
	}

	delete(s.adminStates, adminID)
	s.sendText(msg.Chat.ID, "Действие отменено. Возврат к списку заявок.")
	s.showApplicationsPage(msg.Chat.ID, 0, page, false)
}

// showApplicationsPage renders one list page, either as a new message or
// in place of an existing one. An edit failure falls back to a new message.
func (s *Service) showApplicationsPage(chatID int64, messageID int, page int, edit bool) {
	apps, totalPages, totalItems, err := s.apps.ListPage(page, s.appsPerPage, db.ReviewableStatuses)
	if err != nil {
		log.Printf("bot: list applications page %d failed: %v", page, err)
		s.sendText(chatID, "Ошибка при получении заявок.")
		return
	}

	var (
		text string
		rows [][]tgbotapi.InlineKeyboardButton
	)

	if len(apps) == 0 {
		text = "Нет доступных заявок для просмотра."
	} else {
		parts := []string{fmt.Sprintf("📝 <b>Заявки (Страница %d/%d, Всего: %d):</b>\n", page, totalPages, totalItems)}

		for _, app := range apps {
			shownAt := app.UpdatedAt
			if app.Status == db.StatusNew {
				shownAt = app.CreatedAt
			}

			parts = append(parts, fmt.Sprintf(
				"\n<b>Заявка #%d</b> (Статус: <code>%s</code>)\n"+
					"От: %s\n"+
					"Пользователь: %s (@%s, ID: %d)\n"+
					"Телефон: %s\n",
				app.ID, app.Status,
				shownAt.Format("02.01.06 15:04"),
				app.FullName, strOrDefault(app.Username, "N/A"), app.UserID,
				app.Phone,
			))

			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("Рассмотреть заявку #%d", app.ID),
					fmt.Sprintf("%s%d_%d", cbAdminReviewPrefix, app.ID, page)),
			))
		}

		if paginationRow := PaginationRow(page, totalPages); paginationRow != nil {
			rows = append(rows, paginationRow)
		}

		text = strings.Join(parts, "")
	}

	if edit {
		var reply tgbotapi.EditMessageTextConfig
		if rows != nil {
			reply = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text,
				tgbotapi.NewInlineKeyboardMarkup(rows...))
		} else {
			reply = tgbotapi.NewEditMessageText(chatID, messageID, text)
		}
		reply.ParseMode = tgbotapi.ModeHTML

		if _, err := s.sender.Send(reply); err != nil {
			log.Printf("bot: edit application list failed: %v - sending a new message", err)
			edit = false
		}
	}

	if !edit {
		reply := tgbotapi.NewMessage(chatID, text)
		reply.ParseMode = tgbotapi.ModeHTML
		if rows != nil {
			reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		}
		s.send(reply)
	}
}

func (s *Service) adminListPage(cq *tgbotapi.CallbackQuery, _ *AdminState) {
	page, err := strconv.Atoi(strings.TrimPrefix(cq.Data, cbAdminPagePrefix))
	if err != nil || page < 1 {
		s.answerCallback(cq.ID, "", false)
		return
	}

	delete(s.adminStates, cq.From.ID)
	s.showApplicationsPage(cq.Message.Chat.ID, cq.Message.MessageID, page, true)
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) adminStartReview(cq *tgbotapi.CallbackQuery, _ *AdminState) {
	// Payload: admin_app_review_<appID>_<page>.
	parts := strings.Split(cq.Data, "_")
	if len(parts) < 2 {
		s.answerCallback(cq.ID, "", false)
		return
	}

	appID, errID := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	page, errPage := strconv.Atoi(parts[len(parts)-1])
	if errID != nil || errPage != nil || page < 1 {
		s.answerCallback(cq.ID, "", false)
		return
	}

	adminID := cq.From.ID
	chatID := cq.Message.Chat.ID

	app, err := s.apps.GetByID(appID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Another admin got there first; fall back to a fresh list.
			log.Printf("bot: admin %d opened missing application #%d", adminID, appID)
			s.answerCallback(cq.ID, fmt.Sprintf("Заявка #%d не найдена или уже обработана.", appID), true)
			s.showApplicationsPage(chatID, cq.Message.MessageID, page, true)
			return
		}

		log.Printf("bot: load application #%d failed: %v", appID, err)
		s.answerCallback(cq.ID, "Ошибка при получении заявки.", true)
		return
	}

	s.adminStates[adminID] = &AdminState{
		Step:            StepReviewingApplication,
		AppID:           app.ID,
		ApplicantUserID: app.UserID,
		ApplicantName:   app.FullName,
		AppStatus:       app.Status,
		ReturnPage:      page,
	}

	log.Printf("bot: admin %d reviews application #%d (page %d)", adminID, app.ID, page)

	text := fmt.Sprintf(
		"📝 <b>Просмотр заявки #%d</b> (Статус: <code>%s</code>)\n"+
			"Создана: %s, Обновлена: %s\n\n"+
			"<b>Пользователь:</b> %s (@%s, ID: %d)\n"+
			"<b>Возраст:</b> %d\n"+
			"<b>Гражданство:</b> %s\n"+
			"<b>Область:</b> %s\n"+
			"<b>Адрес:</b> %s\n"+
			"<b>Телефон:</b> %s\n\n"+
			"Выберите действие:",
		app.ID, app.Status,
		app.CreatedAt.Format("02.01.2006 15:04"), app.UpdatedAt.Format("02.01.2006 15:04"),
		app.FullName, strOrDefault(app.Username, "N/A"), app.UserID,
		app.Age, app.Citizenship, app.RegionName, app.Address, app.Phone,
	)

	reply := tgbotapi.NewEditMessageTextAndMarkup(chatID, cq.Message.MessageID, text, ReviewKeyboard())
	reply.ParseMode = tgbotapi.ModeHTML
	s.send(reply)
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) adminWriteStart(cq *tgbotapi.CallbackQuery, state *AdminState) {
	state.Step = StepAwaitingMessageToUser

	log.Printf("bot: admin %d writes to applicant of #%d", cq.From.ID, state.AppID)

	s.send(tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID,
		fmt.Sprintf("✏️ Введите сообщение для пользователя %s (заявка #%d).\nДля отмены введите /cancel_admin_action",
			state.ApplicantName, state.AppID)))
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) adminComplete(cq *tgbotapi.CallbackQuery, state *AdminState) {
	adminID := cq.From.ID

	err := s.apps.SetStatus(state.AppID, db.StatusCompleted)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Printf("bot: admin %d completing #%d lost the race", adminID, state.AppID)
			s.answerCallback(cq.ID, fmt.Sprintf("Заявка #%d не найдена или уже обработана.", state.AppID), true)
			delete(s.adminStates, adminID)
			s.showApplicationsPage(cq.Message.Chat.ID, cq.Message.MessageID, state.ReturnPage, true)
			return
		}

		log.Printf("bot: complete application #%d failed: %v", state.AppID, err)
		s.answerCallback(cq.ID, "Ошибка при обновлении заявки.", true)
		return
	}

	log.Printf("bot: admin %d completed application #%d", adminID, state.AppID)

	s.sendText(state.ApplicantUserID,
		fmt.Sprintf("🎉 Ваша заявка #%d была принята! Скоро с Вами свяжутся.", state.AppID))

	s.answerCallback(cq.ID, fmt.Sprintf("Заявка #%d отмечена как 'завершенная'.", state.AppID), true)
	delete(s.adminStates, adminID)
	s.showApplicationsPage(cq.Message.Chat.ID, cq.Message.MessageID, state.ReturnPage, true)
}

func (s *Service) adminRejectStart(cq *tgbotapi.CallbackQuery, state *AdminState) {
	state.Step = StepAwaitingRejectionReason

	log.Printf("bot: admin %d rejects application #%d", cq.From.ID, state.AppID)

	s.send(tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID,
		fmt.Sprintf("📝 Введите причину отклонения заявки #%d:\nЧтобы отменить, введите /cancel_admin_action", state.AppID)))
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) adminBan(cq *tgbotapi.CallbackQuery, state *AdminState) {
	adminID := cq.From.ID

	banned, err := s.banlist.Ban(state.ApplicantUserID, fmt.Sprintf("banned by admin %d", adminID))
	if err != nil {
		log.Printf("bot: ban user %d failed: %v", state.ApplicantUserID, err)
		s.answerCallback(cq.ID, "Ошибка при блокировке пользователя.", true)
		return
	}

	if banned {
		log.Printf("bot: admin %d banned user %d (application #%d)", adminID, state.ApplicantUserID, state.AppID)
		s.sendText(state.ApplicantUserID, "⛔️ Вы были заблокированы администратором.")
		s.answerCallback(cq.ID, fmt.Sprintf("Пользователь %d заблокирован.", state.ApplicantUserID), true)
	} else {
		s.answerCallback(cq.ID, fmt.Sprintf("Пользователь %d уже заблокирован.", state.ApplicantUserID), true)
	}

	delete(s.adminStates, adminID)
	s.showApplicationsPage(cq.Message.Chat.ID, cq.Message.MessageID, state.ReturnPage, true)
}

func (s *Service) adminBackToList(cq *tgbotapi.CallbackQuery, state *AdminState) {
	delete(s.adminStates, cq.From.ID)
	s.showApplicationsPage(cq.Message.Chat.ID, cq.Message.MessageID, state.ReturnPage, true)
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) adminNoop(cq *tgbotapi.CallbackQuery, _ *AdminState) {
	s.answerCallback(cq.ID, "", false)
}

// adminRelayMessage forwards the admin's free text to the applicant verbatim
// and returns the admin to the list.
func (s *Service) adminRelayMessage(msg *tgbotapi.Message, state *AdminState) {
	if msg.Text == "" {
		s.sendText(msg.Chat.ID, "Сообщение не может быть пустым. Введите текст:")
		return
	}

	adminID := msg.From.ID

	relay := tgbotapi.NewMessage(state.ApplicantUserID,
		fmt.Sprintf("Сообщение от администратора по вашей заявке #%d:\n\n%s", state.AppID, msg.Text))

	if _, err := s.sender.Send(relay); err != nil {
		log.Printf("bot: relay message from admin %d to user %d failed: %v", adminID, state.ApplicantUserID, err)
		s.sendText(msg.Chat.ID, "⚠️ Не удалось отправить сообщение.")
	} else {
		log.Printf("bot: admin %d messaged user %d about #%d", adminID, state.ApplicantUserID, state.AppID)
		s.sendText(msg.Chat.ID, "✅ Сообщение успешно отправлено пользователю.")
	}

	delete(s.adminStates, adminID)
	s.showApplicationsPage(msg.Chat.ID, 0, state.ReturnPage, false)
}

func (s *Service) adminRejectReason(msg *tgbotapi.Message, state *AdminState) {
	if msg.Text == "" {
		s.sendText(msg.Chat.ID, "Причина не может быть пустой. Введите текст:")
		return
	}

	adminID := msg.From.ID

	err := s.apps.SetStatus(state.AppID, db.StatusRejected)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			log.Printf("bot: admin %d rejecting #%d lost the race", adminID, state.AppID)
			s.sendText(msg.Chat.ID, fmt.Sprintf("Заявка #%d не найдена или уже обработана.", state.AppID))
			delete(s.adminStates, adminID)
			s.showApplicationsPage(msg.Chat.ID, 0, state.ReturnPage, false)
			return
		}

		log.Printf("bot: reject application #%d failed: %v", state.AppID, err)
		s.sendText(msg.Chat.ID, "Ошибка при обновлении заявки. Попробуйте снова.")
		return
	}

	log.Printf("bot: admin %d rejected application #%d", adminID, state.AppID)

	s.sendText(state.ApplicantUserID,
		fmt.Sprintf("ℹ️ К сожалению, ваша заявка #%d была отклонена.\nПричина: %s\nОбновите заявку и попробуйте отправить её снова.",
			state.AppID, msg.Text))

	s.sendText(msg.Chat.ID, fmt.Sprintf("✅ Заявка #%d отклонена. Пользователь уведомлен.", state.AppID))
	delete(s.adminStates, adminID)
	s.showApplicationsPage(msg.Chat.ID, 0, state.ReturnPage, false)
}
