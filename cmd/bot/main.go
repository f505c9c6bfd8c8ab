package main

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"

	"github.com/ndvornikov/job_apply_bot/internal/banlist"
	"github.com/ndvornikov/job_apply_bot/internal/bot"
	"github.com/ndvornikov/job_apply_bot/internal/config"
	"github.com/ndvornikov/job_apply_bot/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	database, err := db.New(cfg)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Error initializing schema: %v", err)
	}

	appRepo := db.NewApplicationRepository(database.Conn)
	blockRepo := db.NewBlocklistRepository(database.Conn)

	// The ban cache must be warm before the first update arrives.
	banCache := banlist.New(blockRepo)
	if err := banCache.Load(); err != nil {
		log.Fatalf("Error loading ban list: %v", err)
	}

	// Admins live in the ban set so they can never trip the end-user flow.
	for _, adminID := range cfg.AdminUserIDs {
		if _, err := banCache.Ban(adminID, "admin_privilege"); err != nil {
			log.Printf("Error seeding admin %d into ban list: %v", adminID, err)
		}
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Error creating telegram bot: %v", err)
	}

	registerCommands(botAPI)

	botService := bot.New(
		botAPI,
		appRepo,
		banCache,
		cfg.AdminChatID,
		cfg.AdminUserIDs,
		cfg.AppsPerPage,
		cfg.GreetingPath,
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	log.Printf("Bot started as @%s", botAPI.Self.UserName)

	botService.Run(botAPI.GetUpdatesChan(u))
}

func registerCommands(botAPI *tgbotapi.BotAPI) {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Начать/перезапустить бота"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отменить текущее действие"},
		tgbotapi.BotCommand{Command: "view_apps", Description: "Просмотреть заявки (только для админов)"},
		tgbotapi.BotCommand{Command: "cancel_admin_action", Description: "Отменить текущее действие админа (только для админов)"},
	)

	if _, err := botAPI.Request(commands); err != nil {
		log.Printf("Error registering bot commands: %v", err)
	}
}
