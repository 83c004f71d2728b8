package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/prism-local/internal/config"
	"github.com/nulzo/prism-local/internal/store/model"
	"github.com/nulzo/prism-local/internal/store/sqlite"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// sample installs; the last one is deliberately broken and must be skipped
var sampleModels = map[string]string{
	"tinyllama-1.1b": `{"id":"tinyllama-1.1b","name":"TinyLlama Chat 1.1B Q4","engine":"nitro","format":"gguf","settings":{"ctx_len":2048}}`,
	"llama3-8b":      `{"id":"llama3-8b","name":"Llama 3 8B Q4","engine":"nitro","format":"gguf","settings":{"ctx_len":8192}}`,
	"gpt-4o":         `{"id":"gpt-4o","name":"OpenAI GPT 4o","engine":"openai","format":"api"}`,
	"broken":         `{"id":`,
}

func main() {
	configFile := pflag.StringP("config", "c", "", "path to config file")
	days := pflag.Int("days", 7, "days of request history to generate")
	perDay := pflag.Int("per-day", 40, "requests per day")
	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := config.LoadConfig(*configFile, pflag.CommandLine)
	if err != nil {
		log.Fatal(err)
	}

	fs := afero.NewOsFs()
	modelsDir := filepath.Join(cfg.Data.Root, cfg.Data.ModelsDir)
	for id, meta := range sampleModels {
		dir := filepath.Join(modelsDir, id)
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
		if err := afero.WriteFile(fs, filepath.Join(dir, cfg.Data.MetadataFile), []byte(meta), 0o644); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("Wrote %d sample models to %s\n", len(sampleModels), modelsDir)

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.Path, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	ids := []string{"tinyllama-1.1b", "llama3-8b", "gpt-4o"}

	count := 0
	for d := 0; d < *days; d++ {
		for i := 0; i < *perDay; i++ {
			id := ids[rand.Intn(len(ids))]
			entry := &model.RequestLog{
				ID:           uuid.NewString(),
				ModelID:      id,
				Engine:       "nitro",
				StatusCode:   200,
				LatencyMS:    int64(200 + rand.Intn(3000)),
				TTFBMS:       sql.NullInt64{Int64: int64(20 + rand.Intn(200)), Valid: true},
				BytesRelayed: int64(512 + rand.Intn(16384)),
				IsStreamed:   rand.Intn(4) != 0,
				IPAddress:    "127.0.0.1",
				UserAgent:    "prism-seed",
				CreatedAt:    now.Add(-time.Duration(d)*24*time.Hour - time.Duration(rand.Intn(3600))*time.Second),
			}
			if id == "gpt-4o" {
				entry.Engine = "openai"
			}
			if rand.Intn(20) == 0 {
				entry.StatusCode = 502
				entry.ErrorMessage = sql.NullString{String: "connection refused", Valid: true}
				entry.BytesRelayed = 0
			}
			if err := repo.Requests().Log(ctx, entry); err != nil {
				log.Fatal(err)
			}
			count++
		}
	}

	fmt.Printf("Seeded %d request logs into %s\n", count, cfg.Database.Path)
}
