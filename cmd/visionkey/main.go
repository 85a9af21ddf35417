package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag   string
		modelFlag string
		clearFlag bool
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key for style analysis (falls back to GEMINI_API_KEY)")
	flag.StringVar(&modelFlag, "model", "", "model recorded alongside the key (falls back to GEMINI_MODEL)")
	flag.BoolVar(&clearFlag, "clear", false, "remove the stored key; profiles become colour-only")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" && !clearFlag {
		fmt.Fprintln(os.Stderr, "API key is required via -key or GEMINI_API_KEY")
		os.Exit(1)
	}
	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "visionkey")
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure schema: %v\n", err)
		os.Exit(1)
	}
	store := credentials.NewStore(runner)

	if clearFlag {
		if err := store.ClearVisionAPIKey(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear vision api key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("vision API key removed")
		return
	}
	if err := store.SetVisionAPIKey(ctx, key, model); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist vision api key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("vision API key stored successfully")
}
