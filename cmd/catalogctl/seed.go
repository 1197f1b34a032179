package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spiceapp/spice-server/internal/config"
	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/logger"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/service"
	"github.com/spiceapp/spice-server/internal/store"
)

var (
	seedCourses   = []string{"CS101", "CS162", "MATH54", "PHYS7A", "CHEM1A", "BIO1A"}
	seedLecturers = []string{"Dr. Hopper", "Dr. Noether", "Dr. Feynman", "Dr. Franklin", "Dr. Turing"}
	seedTopics    = []string{"Recursion", "Linear Maps", "Entropy", "Eigenvalues", "Graph Search",
		"Thermodynamics", "Kinematics", "Protein Folding", "Hash Tables", "Fourier Series"}
	seedTags = []string{"intro", "exam-prep", "proofs", "lab", "review", "advanced"}
)

// runSeed catalogs random lectures and rating samples through the same
// services the API uses, so validation and aggregation match production.
func runSeed(ctx context.Context, cfg *config.Config, s store.Store, args []string, lg *logger.Logger, w io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	lectures := fs.Int("lectures", 25, "Lectures to create")
	ratings := fs.Int("ratings", 100, "Rating samples to submit")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	pager := service.NewPager(s, cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize, lg.Logger)
	engine := score.NewEngine(score.Fixed(cfg.Catalog.QualitySignal), lg.Logger)
	catalogSvc := service.NewCatalogService(s, pager, engine, nil, service.CatalogOptions{}, lg.Logger)
	ratingSvc := service.NewRatingService(s, nil, nil, lg.Logger)

	now := time.Now().UTC()
	ids := make([]string, 0, *lectures)
	for n := range *lectures {
		uploaded := now.Add(-time.Duration(rng.IntN(90*24)) * time.Hour)
		l, err := catalogSvc.CreateLecture(ctx, service.CreateLectureRequest{
			Title:           fmt.Sprintf("%s, part %d", pick(rng, seedTopics), n+1),
			Description:     "Seeded lecture",
			Lecturer:        pick(rng, seedLecturers),
			Course:          pick(rng, seedCourses),
			Tags:            []string{pick(rng, seedTags), pick(rng, seedTags)},
			DurationSeconds: int64(1800 + rng.IntN(3600)),
			UploadedAt:      &uploaded,
		})
		if err != nil {
			return fmt.Errorf("create lecture %d: %w", n, err)
		}
		ids = append(ids, l.ID)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "no lectures created")
		return nil
	}

	for range *ratings {
		_, err := ratingSvc.SubmitRating(ctx, service.SubmitRatingRequest{
			LectureID: pick(rng, ids),
			Scores: domain.Scores{
				Difficulty: 1 + rng.IntN(5),
				Importance: 1 + rng.IntN(5),
				Clarity:    1 + rng.IntN(5),
				Usefulness: 1 + rng.IntN(5),
			},
		})
		if err != nil {
			return fmt.Errorf("submit rating: %w", err)
		}
	}

	fmt.Fprintf(w, "seeded %d lectures and %d ratings (seed %d)\n", len(ids), *ratings, *seed)
	return nil
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}
