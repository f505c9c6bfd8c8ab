package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken     string
	AdminChatID  int64
	AdminUserIDs []int64
	DBUser       string
	DBPassword   string
	DBName       string
	DBHost       string
	DBPort       string
	AppsPerPage  int
	GreetingPath string
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBHost:       os.Getenv("DB_HOST"),
		DBPort:       os.Getenv("DB_PORT"),
		GreetingPath: os.Getenv("GREETING_PICTURE_PATH"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config.Load: BOT_TOKEN is required")
	}

	if cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("config.Load: DB_USER, DB_PASSWORD, DB_NAME are required")
	}

	rawChatID := os.Getenv("ADMIN_CHAT_ID")
	if rawChatID == "" {
		return nil, fmt.Errorf("config.Load: ADMIN_CHAT_ID is required")
	}

	cfg.AdminChatID, err = strconv.ParseInt(rawChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("config.Load: ADMIN_CHAT_ID must be a number: %w", err)
	}

	cfg.AdminUserIDs = ParseAdminIDs(os.Getenv("ADMIN_USER_IDS"))

	if cfg.DBHost == "" {
		cfg.DBHost = "localhost"
	}

	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}

	cfg.AppsPerPage = 5
	if raw := os.Getenv("APPS_PER_PAGE"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			log.Printf("config.Load: invalid APPS_PER_PAGE %q - using default 5", raw)
		} else {
			cfg.AppsPerPage = perPage
		}
	}

	if cfg.GreetingPath == "" {
		cfg.GreetingPath = "data/greeting.jpg"
	}

	return cfg, nil
}

// ParseAdminIDs parses a comma-separated id list. A malformed list disables
// admin commands instead of aborting startup.
func ParseAdminIDs(raw string) []int64 {
	if raw == "" {
		log.Printf("config.ParseAdminIDs: ADMIN_USER_IDS is empty - admin commands disabled")
		return nil
	}

	var ids []int64

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("config.ParseAdminIDs: bad admin id %q - admin commands disabled", part)
			return nil
		}

		ids = append(ids, id)
	}

	return ids
}
