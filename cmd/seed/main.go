// 种子导入工具：从 JSON 文件批量写入房源，便于本地联调与演示环境初始化
// 用法：go run ./cmd/seed <properties.json>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"nyumbatz/internal/logger"
	"nyumbatz/internal/migrate"
	"nyumbatz/internal/property"
	"nyumbatz/internal/store"
	"nyumbatz/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: seed <properties.json>")
		os.Exit(2)
	}
	b, err := os.ReadFile(os.Args[1])
	if err != nil {
		l.Error("seed_read_error", "path", os.Args[1], "err", err)
		os.Exit(1)
	}
	var props []property.Property
	if err := json.Unmarshal(b, &props); err != nil {
		l.Error("seed_parse_error", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	st := store.AttachDB(db)
	ctx := context.Background()
	ok := 0
	for _, p := range props {
		if p.ID == "" {
			l.Warn("seed_skip_no_id", "title", p.Title)
			continue
		}
		if err := st.Upsert(ctx, p); err != nil {
			l.Error("seed_upsert_error", "id", p.ID, "err", err)
			continue
		}
		ok++
	}
	l.Info("seed_done", "total", len(props), "imported", ok)
}
