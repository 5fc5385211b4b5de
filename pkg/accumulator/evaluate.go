package accumulator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Evaluation is the VDF output of one element and its individual proof.
type Evaluation struct {
	Y     []byte
	Proof []byte
}

// EvaluateAll evaluates every input independently on up to workers
// goroutines. The results are in input order. Cancelling ctx stops the
// evaluations that have not started yet.
func (a *Accumulator) EvaluateAll(ctx context.Context, xs [][]byte, iterations uint64, workers int) ([]Evaluation, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]Evaluation, len(xs))
	disc := a.disc.Bytes()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range xs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			y, proof, err := a.engine.Evaluate(disc, xs[i], iterations)
			if err != nil {
				return fmt.Errorf("evaluate x[%d]: %w", i, err)
			}
			out[i] = Evaluation{Y: y, Proof: proof}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.logger.Info("evaluated elements", zap.Int("count", len(xs)), zap.Uint64("iterations", iterations), zap.Int("workers", workers))
	return out, nil
}

// Accumulate evaluates, folds and proves xs in one call.
func (a *Accumulator) Accumulate(ctx context.Context, xs [][]byte, iterations uint64, workers int) (*State, []byte, error) {
	evals, err := a.EvaluateAll(ctx, xs, iterations, workers)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.NewSession(xs, iterations)
	if err != nil {
		return nil, nil, err
	}
	for i, ev := range evals {
		if _, err := s.Fold(uint64(i), ev.Y); err != nil {
			return nil, nil, err
		}
	}
	proof, err := s.Prove()
	if err != nil {
		return nil, nil, err
	}
	return s.State(), proof, nil
}
