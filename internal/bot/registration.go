package bot

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/AlekSi/pointer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndvornikov/job_apply_bot/internal/db"
)

// cmdStart greets the user and offers to submit a new application or edit the
// stored one. Any in-progress conversation is dropped.
func (s *Service) cmdStart(msg *tgbotapi.Message) {
	userID := msg.From.ID
	delete(s.userStates, userID)

	log.Printf("bot: user %d (%s) ran /start", userID, userFullName(msg.From))

	existing, err := s.apps.GetByUserID(userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		log.Printf("bot: lookup application for user %d failed: %v", userID, err)
	}

	greeting := fmt.Sprintf("👋 Привет, %s!\n", userFullName(msg.From))
	if existing != nil {
		greeting += "У вас уже есть сохраненная заявка.\n"
	} else {
		greeting += "Готовы оставить заявку?\n"
	}
	greeting += "(Кнопка ниже нажимается)"

	keyboard := StartKeyboard(existing != nil)

	if _, statErr := os.Stat(s.greetingPath); statErr != nil {
		log.Printf("bot: greeting picture %s unavailable: %v", s.greetingPath, statErr)

		reply := tgbotapi.NewMessage(msg.Chat.ID, greeting)
		reply.ReplyMarkup = keyboard
		s.send(reply)
		return
	}

	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FilePath(s.greetingPath))
	photo.Caption = greeting
	photo.ReplyMarkup = keyboard
	s.send(photo)
}

// cmdCancel drops the current conversation, if any.
func (s *Service) cmdCancel(msg *tgbotapi.Message) {
	userID := msg.From.ID

	if _, ok := s.userStates[userID]; !ok {
		s.sendText(msg.Chat.ID, "Нечего отменять.")
		return
	}

	log.Printf("bot: user %d cancelled at step %q", userID, s.userStates[userID].Step)
	delete(s.userStates, userID)
	s.sendText(msg.Chat.ID, "Действие отменено. Чтобы начать заново, введите /start")
}

func (s *Service) startNewApplication(cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	state := &UserState{Step: StepAwaitingAge}

	existing, err := s.apps.GetByUserID(userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		log.Printf("bot: lookup application for user %d failed: %v", userID, err)
	}
	if existing != nil {
		// The fresh submission will replace the stored row.
		state.ExistingAppID = &existing.ID
		log.Printf("bot: user %d starts a new application replacing #%d", userID, existing.ID)
	}

	s.userStates[userID] = state

	s.deleteMessage(chatID, cq.Message.MessageID)
	s.sendText(chatID, "Отлично! Давайте начнем.\nДля начала, пожалуйста, напишите свой возраст (только цифры).")
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) startEditApplication(cq *tgbotapi.CallbackQuery) {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	app, err := s.apps.GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("bot: lookup application for user %d failed: %v", userID, err)
		}

		s.send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID,
			"Ошибка: ваша заявка не найдена. Пожалуйста, подайте новую."))
		s.answerCallback(cq.ID, "", false)
		return
	}

	state := &UserState{
		Step:          StepAwaitingConfirmation,
		Age:           pointer.ToInt(app.Age),
		Citizenship:   pointer.ToString(app.Citizenship),
		RegionName:    pointer.ToString(app.RegionName),
		Address:       pointer.ToString(app.Address),
		Phone:         pointer.ToString(app.Phone),
		ExistingAppID: &app.ID,
		PrevUsername:  app.Username,
		PrevFullName:  pointer.ToString(app.FullName),
	}

	for _, opt := range regionOptions {
		if opt.Text == app.RegionName {
			state.RegionCode = opt.Code
		}
	}

	s.userStates[userID] = state
	log.Printf("bot: user %d edits application #%d", userID, app.ID)

	s.deleteMessage(chatID, cq.Message.MessageID)
	s.showConfirmation(chatID, 0, state, false)
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) handleAge(msg *tgbotapi.Message, state *UserState) {
	if !IsDigits(msg.Text) {
		s.sendText(msg.Chat.ID, "Пожалуйста, введите возраст цифрами. Например: 25")
		return
	}

	age, _ := strconv.Atoi(msg.Text)
	if age <= 5 || age >= 100 {
		s.sendText(msg.Chat.ID, "Пожалуйста, укажите корректный возраст (от 6 до 99 лет).")
		return
	}

	state.Age = &age

	if state.EditingNow {
		s.returnToConfirmation(msg.Chat.ID, state)
		return
	}

	state.Step = StepAwaitingCitizenship
	s.sendText(msg.Chat.ID, "Отлично! Теперь укажите свое гражданство.")
}

func (s *Service) handleCitizenship(msg *tgbotapi.Message, state *UserState) {
	citizenship, ok := ParseCitizenship(msg.Text)
	if !ok {
		s.sendText(msg.Chat.ID, "Пожалуйста, введите корректное название страны/гражданства.")
		return
	}

	state.Citizenship = &citizenship

	if state.EditingNow {
		s.returnToConfirmation(msg.Chat.ID, state)
		return
	}

	state.Step = StepAwaitingRegion

	reply := tgbotapi.NewMessage(msg.Chat.ID, "Хорошо. В какой области Вы ищете работу?")
	reply.ReplyMarkup = RegionKeyboard()
	s.send(reply)
}

func (s *Service) handleRegionText(msg *tgbotapi.Message, _ *UserState) {
	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"Пожалуйста, выберите регион из предложенных вариантов, нажав на кнопку.")
	reply.ReplyMarkup = RegionKeyboard()
	s.send(reply)
}

func (s *Service) handleRegionChoice(cq *tgbotapi.CallbackQuery, state *UserState) {
	code := strings.TrimPrefix(cq.Data, cbRegionPrefix)

	region, ok := findOption(regionOptions, code)
	if !ok {
		log.Printf("bot: unknown region code %q from user %d", code, cq.From.ID)
		s.answerCallback(cq.ID, "Ошибка конфигурации", true)
		return
	}

	state.RegionCode = code
	state.RegionName = &region.Text

	keyboard, ok := AddressKeyboard(code)
	if !ok {
		log.Printf("bot: no address keyboard for region %q", code)
		s.send(tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID,
			"Ошибка: не найдена клавиатура адресов."))
		s.answerCallback(cq.ID, "Ошибка конфигурации", true)
		return
	}

	// Editing the region still goes through address selection: the old
	// address belongs to the old region.
	state.Step = StepAwaitingAddress

	s.send(tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID,
		fmt.Sprintf("Вы выбрали: %s.\nТеперь выберите адрес объекта:", region.Text), keyboard))
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) handleAddressText(msg *tgbotapi.Message, state *UserState) {
	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"Пожалуйста, выберите адрес из предложенных вариантов, нажав на кнопку.")

	if keyboard, ok := AddressKeyboard(state.RegionCode); ok {
		reply.ReplyMarkup = keyboard
	}

	s.send(reply)
}

func (s *Service) handleAddressChoice(cq *tgbotapi.CallbackQuery, state *UserState) {
	code := strings.TrimPrefix(cq.Data, cbAddressPrefix)

	address, ok := findOption(addressOptions[state.RegionCode], code)
	if !ok {
		log.Printf("bot: unknown address code %q for region %q", code, state.RegionCode)
		s.answerCallback(cq.ID, "Ошибка конфигурации", true)
		return
	}

	state.Address = &address.Text

	if state.EditingNow {
		state.EditingNow = false
		state.Step = StepAwaitingConfirmation
		s.showConfirmation(cq.Message.Chat.ID, cq.Message.MessageID, state, true)
		s.answerCallback(cq.ID, "", false)
		return
	}

	state.Step = StepAwaitingPhone

	s.send(tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID,
		fmt.Sprintf("Вы выбрали адрес: %s.\nТеперь, пожалуйста, укажите ваш контактный номер телефона (например, +79001234567 или 89001234567).", address.Text)))
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) handlePhone(msg *tgbotapi.Message, state *UserState) {
	phone, ok := ParsePhone(msg.Text)
	if !ok {
		s.sendText(msg.Chat.ID,
			"Пожалуйста, введите корректный номер телефона в формате +7XXXXXXXXXX или 8XXXXXXXXXX.")
		return
	}

	state.Phone = &phone
	s.returnToConfirmation(msg.Chat.ID, state)
}

func (s *Service) returnToConfirmation(chatID int64, state *UserState) {
	state.EditingNow = false
	state.Step = StepAwaitingConfirmation
	s.showConfirmation(chatID, 0, state, false)
}

func (s *Service) showConfirmation(chatID int64, messageID int, state *UserState, edit bool) {
	text := fmt.Sprintf(
		"📝 <b>Пожалуйста, проверьте введенные данные:</b>\n\n"+
			"<b>Возраст:</b> %s\n"+
			"<b>Гражданство:</b> %s\n"+
			"<b>Область:</b> %s\n"+
			"<b>Адрес объекта:</b> %s\n"+
			"<b>Телефон:</b> %s\n\n"+
			"<b>Все верно?</b>",
		intOrDefault(state.Age, "Не указан"),
		strOrDefault(state.Citizenship, "Не указано"),
		strOrDefault(state.RegionName, "Не указана"),
		strOrDefault(state.Address, "Не указан"),
		strOrDefault(state.Phone, "Не указан"),
	)

	if edit {
		reply := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, ConfirmationKeyboard())
		reply.ParseMode = tgbotapi.ModeHTML
		s.send(reply)
		return
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = ConfirmationKeyboard()
	s.send(reply)
}

func (s *Service) handleConfirmationText(msg *tgbotapi.Message, state *UserState) {
	s.sendText(msg.Chat.ID, "Пожалуйста, используйте кнопки для подтверждения или редактирования данных.")
	s.showConfirmation(msg.Chat.ID, 0, state, false)
}

func (s *Service) handleEditField(cq *tgbotapi.CallbackQuery, state *UserState) {
	field := strings.TrimPrefix(cq.Data, cbEditPrefix)
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	log.Printf("bot: user %d edits field %q", cq.From.ID, field)
	state.EditingNow = true

	switch field {
	case "age":
		state.Step = StepAwaitingAge
		s.send(tgbotapi.NewEditMessageText(chatID, messageID, "Введите новый возраст:"))
	case "citizenship":
		state.Step = StepAwaitingCitizenship
		s.send(tgbotapi.NewEditMessageText(chatID, messageID, "Введите новое гражданство:"))
	case "phone":
		state.Step = StepAwaitingPhone
		s.send(tgbotapi.NewEditMessageText(chatID, messageID, "Введите новый номер телефона:"))
	case "region":
		state.Step = StepAwaitingRegion
		s.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
			"Выберите новый регион:", RegionKeyboard()))
	case "address":
		state.Step = StepAwaitingAddress
		if keyboard, ok := AddressKeyboard(state.RegionCode); ok {
			s.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
				"Выберите новый адрес:", keyboard))
		} else {
			state.Step = StepAwaitingRegion
			s.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
				"Сначала выберите регион:", RegionKeyboard()))
		}
	default:
		state.EditingNow = false
	}

	s.answerCallback(cq.ID, "", false)
}

func (s *Service) handleConfirmSubmission(cq *tgbotapi.CallbackQuery, state *UserState) {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	log.Printf("bot: user %d confirmed submission", userID)
	delete(s.userStates, userID)

	s.send(tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID,
		"✅ Спасибо! Ваша заявка отправлена администраторам."))
	s.answerCallback(cq.ID, "", false)

	fields := db.Fields{
		Age:          state.Age,
		Citizenship:  state.Citizenship,
		RegionName:   state.RegionName,
		Address:      state.Address,
		Phone:        state.Phone,
		PrevUsername: state.PrevUsername,
		PrevFullName: state.PrevFullName,
	}

	err := s.apps.Upsert(userID, usernamePtr(cq.From), userFullName(cq.From), fields, state.ExistingAppID)
	if err != nil {
		log.Printf("bot: save application for user %d failed: %v", userID, err)
		s.sendText(chatID, "Произошла ошибка при отправке вашей заявки. Пожалуйста, попробуйте позже.")
		return
	}

	// The record of truth is stored; a failed notification is logged, never
	// rolled back.
	s.notifyAdmins(cq.From, state)
}

func (s *Service) handleCancelSubmission(cq *tgbotapi.CallbackQuery, _ *UserState) {
	userID := cq.From.ID

	log.Printf("bot: user %d cancelled submission", userID)
	delete(s.userStates, userID)

	s.send(tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID,
		"Заявка отменена. Чтобы начать заново, введите /start"))
	s.answerCallback(cq.ID, "", false)
}

func (s *Service) notifyAdmins(from *tgbotapi.User, state *UserState) {
	header := "🔔 <b>Новая заявка!</b>"
	if state.ExistingAppID != nil {
		header = fmt.Sprintf("🔔 <b>Обновление заявки!</b> (ID: %d)", *state.ExistingAppID)
	}

	text := fmt.Sprintf(
		"%s\n\n"+
			"<b>От пользователя:</b> %s\n"+
			"<b>ID:</b> %d\n"+
			"<b>Username:</b> @%s\n\n"+
			"<b><u>Данные заявки:</u></b>\n"+
			"<b>Возраст:</b> %s\n"+
			"<b>Гражданство:</b> %s\n"+
			"<b>Область:</b> %s\n"+
			"<b>Адрес объекта:</b> %s\n"+
			"<b>Телефон:</b> %s",
		header,
		userFullName(from),
		from.ID,
		displayUsername(from),
		intOrDefault(state.Age, "Не указан"),
		strOrDefault(state.Citizenship, "Не указано"),
		strOrDefault(state.RegionName, "Не указано"),
		strOrDefault(state.Address, "Не указано"),
		strOrDefault(state.Phone, "Не указан"),
	)

	notification := tgbotapi.NewMessage(s.adminChatID, text)
	notification.ParseMode = tgbotapi.ModeHTML

	if _, err := s.sender.Send(notification); err != nil {
		log.Printf("bot: notify admins about application from user %d failed: %v", from.ID, err)
	}
}

func usernamePtr(u *tgbotapi.User) *string {
	if u.UserName == "" {
		return nil
	}

	return pointer.ToString(u.UserName)
}

func strOrDefault(v *string, fallback string) string {
	if v == nil {
		return fallback
	}

	return *v
}

func intOrDefault(v *int, fallback string) string {
	if v == nil {
		return fallback
	}

	return strconv.Itoa(*v)
}
