package service

import (
	"context"
	"log/slog"

	"github.com/Siddarth2230/shortcode/internal/repository"
	"github.com/Siddarth2230/shortcode/pkg/idgen"
	"github.com/Siddarth2230/shortcode/pkg/metrics"
)

// SeedCounter returns the first sequence number a fresh counter may issue
// against repo: count+1, raised above the stored high-water mark when the
// store reports one. Any store error is a startup failure.
func SeedCounter(ctx context.Context, repo repository.Store) (uint64, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, startupFailure("count", err)
	}
	seed := uint64(n) + 1

	if sr, ok := repo.(repository.SequenceReporter); ok {
		max, found, err := sr.MaxSequence(ctx)
		if err != nil {
			return 0, startupFailure("max sequence", err)
		}
		if found && max >= seed {
			seed = max + 1
		}
	}
	return seed, nil
}

// Bootstrap seeds a counter from repo and returns a service ready to accept
// generation requests. It fails rather than start with an unseeded counter.
func Bootstrap(ctx context.Context, repo repository.Store, opts Options) (*CodeService, error) {
	seed, err := SeedCounter(ctx, repo)
	if err != nil {
		return nil, err
	}

	svc := NewCodeService(repo, idgen.NewSequencer(seed), opts)
	metrics.NextSequence.Set(float64(seed))
	svc.logger.Info("counter seeded", slog.Uint64("seed", seed), slog.String("first_code", idgen.Encode(seed)))
	return svc, nil
}
