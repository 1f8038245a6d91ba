// Package sampling is the stateless façade external layers call: it
// validates the per-call config, resolves the prior, and dispatches to
// the requested sampler. It holds no process-wide mutable state; the
// injected registry's read path is the only shared resource.
package sampling

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/veridyne/twinsampler/internal/diffusion"
	"github.com/veridyne/twinsampler/internal/gradient"
	"github.com/veridyne/twinsampler/internal/langevin"
	"github.com/veridyne/twinsampler/internal/numeric"
	"github.com/veridyne/twinsampler/internal/prior"
	"github.com/veridyne/twinsampler/internal/state"
	"github.com/veridyne/twinsampler/internal/trajectory"
)

// #region service

// Service dispatches sampling calls. Safe for concurrent use: every call
// allocates its own state, rng, and trajectory.
type Service struct {
	registry *prior.Registry
	tracer   trace.Tracer
}

// NewService creates a façade over the given registry.
func NewService(reg *prior.Registry) *Service {
	return &Service{
		registry: reg,
		tracer:   otel.Tracer("twinsampler/sampling"),
	}
}

// #endregion service

// #region sample

// Sample runs one sampling call: validate config, resolve prior, validate
// state, dispatch. Validation errors surface before any numeric work;
// numeric errors come back together with the partial trajectory.
func (s *Service) Sample(ctx context.Context, priorKey string, initial state.State, cfg Config) (*trajectory.Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := numeric.ForName(cfg.Backend)
	if err != nil {
		return nil, err
	}
	p, err := s.registry.Get(priorKey)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(initial); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "sampling.Sample",
		trace.WithAttributes(
			attribute.String("sampler.prior", priorKey),
			attribute.String("sampler.type", string(cfg.Type)),
			attribute.Int("sampler.steps", cfg.Steps),
		))
	defer span.End()

	rng := newRNG(cfg.Seed)
	grads := gradient.Resolver{}

	var traj *trajectory.Trajectory
	switch cfg.Type {
	case TypeLangevin:
		sampler := langevin.Sampler{LR: cfg.LR, Noise: cfg.Noise, Backend: backend, Grads: grads}
		traj, err = sampler.Sample(ctx, p, initial, cfg.Steps, rng)
	case TypeDDPM:
		sched, _ := diffusion.NewSchedule(cfg.Schedule)
		sampler := diffusion.DDPM{
			Schedule: sched, Backend: backend,
			Strategy: diffusion.GradientScore{Grads: grads}, NoiseScale: cfg.Noise,
		}
		traj, err = sampler.Sample(ctx, p, initial, cfg.Steps, rng)
	case TypeDDIM:
		sched, _ := diffusion.NewSchedule(cfg.Schedule)
		sampler := diffusion.DDIM{
			Schedule: sched, Backend: backend,
			Strategy: diffusion.GradientScore{Grads: grads},
		}
		traj, err = sampler.Sample(ctx, p, initial, cfg.Steps, rng)
	case TypeEnergyGuided:
		sched, _ := diffusion.NewSchedule(cfg.Schedule)
		sampler := diffusion.EnergyGuided{
			Schedule: sched, Backend: backend,
			Strategy: diffusion.GradientScore{Grads: grads},
			Guidance: cfg.Guidance, Grads: grads,
		}
		traj, err = sampler.Sample(ctx, p, initial, cfg.Steps, rng)
	}

	if traj != nil {
		stamp(traj, backend, cfg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("[SAMPLE] prior=%s type=%s steps=%d error=%v (recorded %d points)",
			priorKey, cfg.Type, cfg.Steps, err, trajLen(traj))
		return traj, err
	}

	span.SetAttributes(attribute.Int("sampler.points", traj.Len()))
	log.Printf("[SAMPLE] prior=%s type=%s steps=%d points=%d", priorKey, cfg.Type, cfg.Steps, traj.Len())
	return traj, nil
}

// #endregion sample

// #region helpers

// stamp records run-level metadata on a trajectory after the sampler
// finishes.
func stamp(t *trajectory.Trajectory, backend numeric.Backend, cfg Config) {
	t.SetMeta("backend", backend.Name())
	if cfg.Seed != nil {
		t.SetMeta("seed", strconv.FormatInt(*cfg.Seed, 10))
	}
}

func newRNG(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func trajLen(t *trajectory.Trajectory) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

// #endregion helpers
