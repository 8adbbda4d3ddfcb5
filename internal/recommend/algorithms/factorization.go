// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package algorithms

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
)

// cancelCheckStride is the number of SGD steps between context checks.
const cancelCheckStride = 1024

// triple is one training rating.
type triple struct {
	user  string
	item  string
	value float64
}

// sortTriples orders triples by user then item so that training input does
// not depend on map iteration order.
func sortTriples(triples []triple) {
	sort.Slice(triples, func(i, j int) bool {
		if triples[i].user != triples[j].user {
			return triples[i].user < triples[j].user
		}
		return triples[i].item < triples[j].item
	})
}

// trainingFingerprint identifies a training input. A checkpoint is only
// resumed by a run with the same fingerprint.
func trainingFingerprint(triples []triple, params recommend.TrainParams) string {
	h := sha256.New()
	var buf [8]byte
	for _, t := range triples {
		h.Write([]byte(t.user))
		h.Write([]byte{0})
		h.Write([]byte(t.item))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(t.value))
		h.Write(buf[:])
	}
	fmt.Fprintf(h, "|%d|%g|%g|%d|%g", params.Factors, params.LearningRate,
		params.Regularization, params.Iterations, params.MinImprovement)
	return hex.EncodeToString(h.Sum(nil))
}

// sgdTrainer fits a biased matrix factorization model with stochastic
// gradient descent:
//
//	r̂(u, i) = μ + b_u + b_i + p_u · q_i
//
// After every completed epoch the full training state is checkpointed, so an
// interrupted run resumes from the last completed epoch.
type sgdTrainer struct {
	params        recommend.TrainParams
	checkInterval int
	checkpoints   recommend.CheckpointStore
	logger        zerolog.Logger
	now           func() time.Time
}

// initModel seeds biases from entity means and latent vectors from a normal
// distribution scaled by 0.1.
func initModel(triples []triple, factors int, seed int64) *recommend.FactorModel {
	m := &recommend.FactorModel{
		Factors:     factors,
		UserFactors: make(map[string][]float64),
		ItemFactors: make(map[string][]float64),
		UserBias:    make(map[string]float64),
		ItemBias:    make(map[string]float64),
	}
	if len(triples) == 0 {
		return m
	}

	userSum := make(map[string]float64)
	userN := make(map[string]int)
	itemSum := make(map[string]float64)
	itemN := make(map[string]int)
	var total float64
	for _, t := range triples {
		total += t.value
		userSum[t.user] += t.value
		userN[t.user]++
		itemSum[t.item] += t.value
		itemN[t.item]++
	}
	m.GlobalMean = total / float64(len(triples))

	users := sortedKeys(userN)
	items := sortedKeys(itemN)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic init, not security sensitive
	for _, u := range users {
		m.UserBias[u] = userSum[u]/float64(userN[u]) - m.GlobalMean
		m.UserFactors[u] = randomVector(rng, factors)
	}
	for _, i := range items {
		m.ItemBias[i] = itemSum[i]/float64(itemN[i]) - m.GlobalMean
		m.ItemFactors[i] = randomVector(rng, factors)
	}
	return m
}

func randomVector(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for f := range v {
		v[f] = rng.NormFloat64() * 0.1
	}
	return v
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// trainingRMSE is the root mean squared error of clamped predictions.
func trainingRMSE(m *recommend.FactorModel, triples []triple) float64 {
	if len(triples) == 0 {
		return 0
	}
	var sum float64
	for _, t := range triples {
		err := t.value - recommend.ClampRating(m.RawPredict(t.user, t.item))
		sum += err * err
	}
	return math.Sqrt(sum / float64(len(triples)))
}

// sgdStep applies one gradient update for a single rating.
func sgdStep(m *recommend.FactorModel, t triple, lr, reg float64) {
	pu := m.UserFactors[t.user]
	qi := m.ItemFactors[t.item]

	err := t.value - m.RawPredict(t.user, t.item)

	bu := m.UserBias[t.user]
	bi := m.ItemBias[t.item]
	m.UserBias[t.user] = bu + lr*(err-reg*bu)
	m.ItemBias[t.item] = bi + lr*(err-reg*bi)

	for f := range pu {
		p, q := pu[f], qi[f]
		pu[f] = p + lr*(err*q-reg*p)
		qi[f] = q + lr*(err*p-reg*q)
	}
}

// run trains to completion or early stop and returns the lowest-RMSE model
// seen. newSeed is only consulted when no matching checkpoint exists.
//
//nolint:gocyclo // training loop with resume, periodic checks and checkpoints
func (s *sgdTrainer) run(ctx context.Context, triples []triple, newSeed func() int64) (*recommend.FactorModel, error) {
	fingerprint := trainingFingerprint(triples, s.params)

	var (
		seed      int64
		epoch     int
		model     *recommend.FactorModel
		best      *recommend.FactorModel
		bestRMSE  float64
		lastCheck float64
	)

	cp := s.loadCheckpoint(ctx, fingerprint)
	if cp != nil {
		seed = cp.Seed
		epoch = cp.Epoch
		model = cp.Model.Clone()
		best = cp.Best.Clone()
		bestRMSE = cp.BestRMSE
		lastCheck = cp.LastCheckRMSE
		s.logger.Info().
			Int("epoch", epoch).
			Float64("best_rmse", bestRMSE).
			Msg("Resuming training from checkpoint")
	} else {
		seed = newSeed()
		model = initModel(triples, s.params.Factors, seed)
		bestRMSE = trainingRMSE(model, triples)
		best = model.Clone()
		lastCheck = bestRMSE
	}

	if len(triples) == 0 {
		return best, nil
	}

	order := make([]int, len(triples))
	for epoch < s.params.Iterations {
		if ContextCancelled(ctx) {
			return nil, fmt.Errorf("%w after %d epochs: %w", recommend.ErrTrainingInterrupted, epoch, ctx.Err())
		}

		rng := rand.New(rand.NewSource(seed + int64(epoch))) //nolint:gosec // reproducible shuffle
		for i := range order {
			order[i] = i
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for k, idx := range order {
			// The partially updated model is dropped on cancellation; the
			// checkpoint still holds the last completed epoch.
			if k%cancelCheckStride == 0 && ContextCancelled(ctx) {
				return nil, fmt.Errorf("%w during epoch %d: %w", recommend.ErrTrainingInterrupted, epoch+1, ctx.Err())
			}
			sgdStep(model, triples[idx], s.params.LearningRate, s.params.Regularization)
		}
		epoch++

		stop := false
		if epoch%s.checkInterval == 0 || epoch == s.params.Iterations {
			rmse := trainingRMSE(model, triples)
			if rmse < bestRMSE {
				best = model.Clone()
				bestRMSE = rmse
			}
			if lastCheck-rmse < s.params.MinImprovement {
				stop = true
			}
			lastCheck = rmse
			s.logger.Debug().Int("epoch", epoch).Float64("rmse", rmse).Msg("Training progress")
		}

		s.saveCheckpoint(ctx, &recommend.TrainingCheckpoint{
			Fingerprint:   fingerprint,
			Seed:          seed,
			Epoch:         epoch,
			Model:         *model,
			Best:          *best,
			BestRMSE:      bestRMSE,
			LastCheckRMSE: lastCheck,
			SavedAt:       s.now(),
		})

		if stop {
			break
		}
	}

	best.RMSE = bestRMSE
	best.Epochs = epoch
	return best, nil
}

func (s *sgdTrainer) loadCheckpoint(ctx context.Context, fingerprint string) *recommend.TrainingCheckpoint {
	if s.checkpoints == nil {
		return nil
	}
	cp, err := s.checkpoints.LoadCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, recommend.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to load training checkpoint, starting fresh")
		}
		return nil
	}
	if cp == nil || cp.Fingerprint != fingerprint {
		return nil
	}
	return cp
}

func (s *sgdTrainer) saveCheckpoint(ctx context.Context, cp *recommend.TrainingCheckpoint) {
	if s.checkpoints == nil {
		return
	}
	// Saving uses a detached context so the last completed epoch is kept
	// even when ctx is canceled right after it.
	if err := s.checkpoints.SaveCheckpoint(context.WithoutCancel(ctx), cp); err != nil {
		s.logger.Warn().Err(err).Int("epoch", cp.Epoch).Msg("Failed to save training checkpoint")
	}
}

// MemoryCheckpoints is an in-process CheckpointStore. It is the default
// when no durable store is configured.
type MemoryCheckpoints struct {
	mu sync.Mutex
	cp *recommend.TrainingCheckpoint
}

// NewMemoryCheckpoints creates an empty in-process checkpoint store.
func NewMemoryCheckpoints() *MemoryCheckpoints {
	return &MemoryCheckpoints{}
}

// SaveCheckpoint stores a deep copy of cp.
func (m *MemoryCheckpoints) SaveCheckpoint(_ context.Context, cp *recommend.TrainingCheckpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cp
	c.Model = *cp.Model.Clone()
	c.Best = *cp.Best.Clone()
	m.cp = &c
	return nil
}

// LoadCheckpoint returns a copy of the stored checkpoint or ErrNotFound.
func (m *MemoryCheckpoints) LoadCheckpoint(_ context.Context) (*recommend.TrainingCheckpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cp == nil {
		return nil, recommend.ErrNotFound
	}
	c := *m.cp
	c.Model = *m.cp.Model.Clone()
	c.Best = *m.cp.Best.Clone()
	return &c, nil
}

// ClearCheckpoint removes the stored checkpoint.
func (m *MemoryCheckpoints) ClearCheckpoint(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cp = nil
	return nil
}

var _ recommend.CheckpointStore = (*MemoryCheckpoints)(nil)
