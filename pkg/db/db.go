package db

import (
	"fmt"
	"strconv"

	"github.com/sitesmith-ai/sitesmith-backend/pkg/env"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

func NewConfig() Config {
	port, err := strconv.Atoi(env.GetEnv("PG_PORT", "5432"))
	if err != nil {
		port = 5432
	}
	return Config{
		Host:     env.GetEnv("PG_HOST", "localhost"),
		Port:     port,
		User:     env.GetEnv("PG_USER", "postgres"),
		Password: env.GetEnv("PG_PASSWORD", "postgres"),
		Database: env.GetEnv("PG_DB", "postgres"),
	}
}

func (c Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}
