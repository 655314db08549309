package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/config"
	"github.com/tribuna/internal/db"
	"github.com/tribuna/internal/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.Environment)

	username := flag.String("username", cfg.SuperRootUserName, "admin username")
	password := flag.String("password", cfg.SuperRootPassword, "admin password")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: init_user -username <name> -password <secret>")
		os.Exit(2)
	}

	// 初始化数据库
	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	if err := db.Init(cfg.DatabaseDriver, dsn); err != nil {
		log.Fatal().Err(err).Msg("数据库初始化失败")
	}

	if err := db.EnsureUser(db.DB, *username, *password); err != nil {
		log.Fatal().Err(err).Msg("创建用户失败")
	}

	fmt.Printf("管理员用户已就绪: %s\n", *username)
}
