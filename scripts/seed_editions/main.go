package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/cache"
	"github.com/tribuna/internal/config"
	"github.com/tribuna/internal/db"
	"github.com/tribuna/internal/locale"
	"github.com/tribuna/internal/logger"
	"github.com/tribuna/internal/pdflink"
	"github.com/tribuna/internal/service"
)

var months = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// 测试数据生成器：写入一批指向 Google Drive 的期刊
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.Environment)

	count := flag.Int("count", 20, "number of editions to create")
	flag.Parse()

	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	if err := db.Init(cfg.DatabaseDriver, dsn); err != nil {
		log.Fatal().Err(err).Msg("数据库初始化失败")
	}

	svc := service.NewEditionService(db.DB, pdflink.NewResolver(cache.NewMemory(0)), nil)
	created, err := seedEditions(context.Background(), svc, *count, time.Now().In(locale.Location()))
	if err != nil {
		log.Fatal().Err(err).Int("created", created).Msg("生成测试数据失败")
	}

	fmt.Printf("测试数据生成完成：%d 期\n", created)
}

// seedEditions creates count weekly editions ending at now, oldest first.
func seedEditions(ctx context.Context, svc *service.EditionService, count int, now time.Time) (int, error) {
	created := 0
	for i := count - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -7*i)
		meta := service.EditionMetadata{
			Title:       fmt.Sprintf("Edição %d de %s de %d", day.Day(), months[day.Month()-1], day.Year()),
			Description: "Edição semanal do **Jornal Tribuna**.",
			ExternalURL: fmt.Sprintf("https://drive.google.com/file/d/SEED%012d/view?usp=sharing", day.Unix()),
		}
		sub, err := service.NewSubmission(meta, nil)
		if err != nil {
			return created, err
		}
		if _, err := svc.Create(ctx, sub); err != nil {
			return created, fmt.Errorf("create %q: %w", meta.Title, err)
		}
		created++
	}
	return created, nil
}
