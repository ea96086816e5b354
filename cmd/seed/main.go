package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/dejobratic/catalog/internal/config"
	"github.com/dejobratic/catalog/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var categories = []string{"Vegetables", "Fruits", "Dairy", "Grains", "Meat", "Bakery"}

var productNames = []string{
	"Tomato", "Potato", "Onion", "Carrot", "Cabbage", "Spinach", "Broccoli", "Cauliflower",
	"Apple", "Banana", "Orange", "Mango", "Grapes", "Strawberry", "Watermelon", "Pineapple",
	"Milk", "Cheese", "Butter", "Yogurt", "Paneer", "Cream",
	"Rice", "Wheat", "Oats", "Quinoa", "Barley",
	"Chicken", "Mutton", "Fish", "Eggs",
	"Bread", "Biscuits", "Cake", "Cookies",
}

const batchSize = 1000

func main() {
	count := flag.Int("count", 100000, "number of products to seed")
	truncate := flag.Bool("truncate", true, "clear existing products first")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *truncate {
		if _, err := pool.Exec(ctx, "TRUNCATE products"); err != nil {
			logger.Error("failed to clear products", "error", err)
			os.Exit(1)
		}
		logger.Info("cleared existing products")
	}

	logger.Info("seeding products", "count", *count)
	start := time.Now()

	seeded := 0
	for seeded < *count {
		size := min(batchSize, *count-seeded)
		if err := seedBatch(ctx, pool, seeded, size); err != nil {
			logger.Error("failed to seed batch", "error", err, "offset", seeded)
			os.Exit(1)
		}
		seeded += size
		logger.Info("batch completed", "seeded", seeded, "total", *count)
	}

	logger.Info("seeding finished", "count", seeded, "elapsed", time.Since(start))
}

type poolExecutor interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

func seedBatch(ctx context.Context, pool poolExecutor, offset, size int) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, size)

	for i := 0; i < size; i++ {
		name := productNames[rand.IntN(len(productNames))]
		category := categories[rand.IntN(len(categories))]
		price := float64(int((rand.Float64()*500+10)*100)) / 100

		// Spread creation times so keyset pages over created_at are not
		// one giant tie.
		createdAt := now.Add(-time.Duration(offset+i) * time.Second)

		rows = append(rows, []any{
			uuid.NewString(),
			fmt.Sprintf("%s %d", name, offset+i+1),
			fmt.Sprintf("Fresh %s from local farms", strings.ToLower(name)),
			price,
			category,
			createdAt,
			createdAt,
		})
	}

	_, err := pool.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "description", "price", "category", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy batch: %w", err)
	}
	return nil
}
