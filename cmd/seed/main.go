package main

import (
	"context"
	"encoding/json"
	"flag"
	"math"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orbidefence/fraud-detector/configs"
	"github.com/orbidefence/fraud-detector/internal/repositories"
	"github.com/orbidefence/fraud-detector/internal/stats"
)

// seed generates synthetic customer spending statistics for local development
// and demos. Output goes to a JSON model artifact, a Postgres
// customer_statistics table, or both.
func main() {
	var (
		customers = flag.Int("customers", 1000, "number of customers to generate")
		seed      = flag.Uint64("seed", 42, "random seed, for reproducible data")
		threshold = flag.Float64("threshold", stats.DefaultThreshold, "decision threshold stored in the artifact")
		out       = flag.String("out", "model_artifact.json", "artifact output path, empty to skip")
		toDB      = flag.Bool("postgres", false, "also upsert the records into Postgres (DATABASE_URL)")
	)
	flag.Parse()

	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	faker := gofakeit.New(*seed)
	records := generateRecords(faker, *customers)

	log.Info().
		Int("customers", len(records)).
		Uint64("seed", *seed).
		Msg("Generated synthetic customer statistics")

	if *out != "" {
		if err := writeArtifact(*out, *threshold, records); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("Failed to write model artifact")
		}
		log.Info().Str("path", *out).Msg("Model artifact written")
	}

	if *toDB {
		cfg := configs.Load()
		db, err := repositories.NewDatabase(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := repositories.NewStatsRepository(db).UpsertBatch(ctx, records); err != nil {
			log.Fatal().Err(err).Msg("Failed to upsert customer statistics")
		}
		log.Info().Int("customers", len(records)).Msg("Customer statistics upserted")
	}
}

// generateRecords produces internally consistent statistics: min <= avg <= max
// and total = avg * count. Customer ids are sequential starting at 1.
func generateRecords(faker *gofakeit.Faker, n int) []stats.CustomerRecord {
	records := make([]stats.CustomerRecord, 0, n)

	for i := 1; i <= n; i++ {
		count := faker.Number(1, 200)
		avg := faker.Float64Range(10, 800)
		max := avg * faker.Float64Range(1.0, 6.0)
		min := avg * faker.Float64Range(0.05, 1.0)

		records = append(records, stats.CustomerRecord{
			CustomerID:       int64(i),
			TransactionCount: count,
			AvgAmount:        round2(avg),
			MaxAmount:        round2(max),
			MinAmount:        round2(min),
			TotalAmount:      round2(avg * float64(count)),
		})
	}

	return records
}

func writeArtifact(path string, threshold float64, records []stats.CustomerRecord) error {
	artifact := stats.Artifact{
		Threshold:     &threshold,
		CustomerStats: records,
	}

	data, err := json.MarshalIndent(&artifact, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
