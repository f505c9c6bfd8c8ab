package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data vocabulary of the two state machines.
const (
	cbStartNewApplication  = "start_new_application"
	cbStartEditApplication = "start_edit_application"
	cbConfirmSubmission    = "confirm_submission"
	cbCancelSubmission     = "cancel_submission"

	cbEditPrefix    = "edit_"
	cbRegionPrefix  = "region_"
	cbAddressPrefix = "address_"

	cbAdminPagePrefix   = "admin_viewapps_page_"
	cbAdminReviewPrefix = "admin_app_review_"
	cbAdminWrite        = "admin_review_write"
	cbAdminComplete     = "admin_review_complete"
	cbAdminReject       = "admin_review_reject"
	cbAdminBan          = "admin_ban_user"
	cbAdminBackToList   = "admin_review_backtolist"
	cbAdminNoop         = "admin_noop"
)

type option struct {
	Code string
	Text string
}

var regionOptions = []option{
	{Code: "msk", Text: "Московская область"},
	{Code: "vldmr", Text: "Владимирская область"},
}

var addressOptions = map[string][]option{
	"msk": {
		{Code: "msk_1", Text: "посёлок совхоза Останино, Дорожная, 28А"},
		{Code: "msk_2", Text: "г. Королев Лесная, 6"},
		{Code: "msk_3", Text: "д. Большие Жеребцы Восточная, 1к8"},
		{Code: "msk_4", Text: "пос. Софрино Тютчева, с15"},
		{Code: "msk_5", Text: "г. Мытищи Калинина, 6"},
		{Code: "msk_6", Text: "с. Васильевское 22А"},
		{Code: "msk_7", Text: "посёлок санатория Тишково, Курортная улица, 2"},
		{Code: "msk_8", Text: "Сергиев Посад, Пограничная улица 32"},
		{Code: "msk_9", Text: "Пушкино, Железнодорожная улица, 6"},
		{Code: "msk_10", Text: "Мытищи, Калинина, 6"},
		{Code: "msk_11", Text: "посёлок Софрино, Тютчева с15"},
	},
	"vldmr": {
		{Code: "vldmr_1", Text: "г. Кольчугино, улица Максимова, 11"},
		{Code: "vldmr_2", Text: "г. Петушки Московская, 16"},
		{Code: "vldmr_3", Text: "г. Александров Королёва, 4к2"},
		{Code: "vldmr_4", Text: "г. Александров Королёва, 9"},
		{Code: "vldmr_5", Text: "г. Александров Гагарина, 23к1"},
		{Code: "vldmr_6", Text: "Струнино Заречная, 32"},
		{Code: "vldmr_7", Text: "Александров, улица Жулёва, 3"},
		{Code: "vldmr_8", Text: "г. Александров Кольчугинская 49с1"},
		{Code: "vldmr_9", Text: "Александров, Улица Геологов, 8"},
		{Code: "vldmr_10", Text: "г. Кольчугино, улица Железнодорожная, 31"},
		{Code: "vldmr_11", Text: "посёлок Городищи, Советская, 18"},
	},
}

// findOption resolves a callback code back to its button text.
func findOption(options []option, code string) (option, bool) {
	for _, opt := range options {
		if opt.Code == code {
			return opt, true
		}
	}

	return option{}, false
}

func StartKeyboard(hasExistingApplication bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if hasExistingApplication {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать мою заявку", cbStartEditApplication),
		))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Подать новую (заменит старую)", cbStartNewApplication),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Подать заявку", cbStartNewApplication),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func RegionKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, opt := range regionOptions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Text, cbRegionPrefix+opt.Code),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AddressKeyboard(regionCode string) (tgbotapi.InlineKeyboardMarkup, bool) {
	options, ok := addressOptions[regionCode]
	if !ok {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	var rows [][]tgbotapi.InlineKeyboardButton

	for _, opt := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Text, cbAddressPrefix+opt.Code),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func ConfirmationKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Редактировать возраст", cbEditPrefix+"age"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Редактировать гражданство", cbEditPrefix+"citizenship"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Редактировать регион", cbEditPrefix+"region"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Редактировать адрес", cbEditPrefix+"address"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Редактировать телефон", cbEditPrefix+"phone"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Все верно, отправить", cbConfirmSubmission),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить и начать заново", cbCancelSubmission),
		),
	)
}

// PaginationRow builds the prev/next row for the admin list, or nothing when
// one page is enough.
func PaginationRow(currentPage, totalPages int) []tgbotapi.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var row []tgbotapi.InlineKeyboardButton

	if currentPage > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"⬅️ Пред.", fmt.Sprintf("%s%d", cbAdminPagePrefix, currentPage-1)))
	}

	row = append(row, tgbotapi.NewInlineKeyboardButtonData(
		fmt.Sprintf("📄 %d/%d", currentPage, totalPages), cbAdminNoop))

	if currentPage < totalPages {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			"След. ➡️", fmt.Sprintf("%s%d", cbAdminPagePrefix, currentPage+1)))
	}

	return row
}

func ReviewKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✉️ Написать пользователю", cbAdminWrite),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Завершить заявку", cbAdminComplete),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить заявку", cbAdminReject),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⛔ Заблокировать пользователя", cbAdminBan),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ К списку заявок", cbAdminBackToList),
		),
	)
}
