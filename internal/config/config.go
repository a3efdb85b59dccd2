/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	APIBaseURL string
	DBPath     string

	ReconnectDelay time.Duration
	TypingIdle     time.Duration
	HTTPTimeout    time.Duration

	ResyncCron string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() Config {
	return Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		HTTPAddr: getenv("HTTP_ADDR", "127.0.0.1:7460"),

		APIBaseURL: getenv("HUB_API_BASE_URL", "http://127.0.0.1:8000/api"),
		DBPath:     getenv("AGENT_DB_PATH", "hub-agent.db"),

		ReconnectDelay: dur("WS_RECONNECT_DELAY", 2*time.Second),
		TypingIdle:     dur("CHAT_TYPING_IDLE", 3*time.Second),
		HTTPTimeout:    dur("HTTP_TIMEOUT", 15*time.Second),

		ResyncCron: getenv("RESYNC_CRON", "*/15 * * * *"),
	}
}
