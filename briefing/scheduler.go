package briefing

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sallytsm/sally/storage"
)

// Default generator configuration values
const (
	DefaultCheckInterval = 15 * time.Minute
	DefaultMorningHour   = 7
	DefaultEveningHour   = 19
)

// GeneratorConfig holds configuration for the brief generator.
type GeneratorConfig struct {
	// CheckInterval is how often to check whether a brief is due.
	// Default: 15 minutes
	CheckInterval time.Duration

	// MorningHour is the local hour (0-23) at or after which the
	// morning brief is generated. Default: 7
	MorningHour int

	// EveningHour is the local hour (0-23) at or after which the
	// evening summary is generated. Default: 19
	EveningHour int

	// IsLeader gates generation in multi-instance deployments. When nil
	// every instance generates.
	IsLeader func() bool

	// OnBriefGenerated is called after a brief is generated and persisted.
	OnBriefGenerated func(brief *Brief)

	// OnError is called when a generation attempt fails.
	OnError func(err error)
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		CheckInterval: DefaultCheckInterval,
		MorningHour:   DefaultMorningHour,
		EveningHour:   DefaultEveningHour,
	}
}

// Generator periodically generates and persists due briefs. Briefs
// already stored for the day are not regenerated.
type Generator struct {
	service *Service
	config  *GeneratorConfig

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc

	// now is swappable for tests
	now func() time.Time
}

// NewGenerator creates a brief generator around a briefing service.
func NewGenerator(service *Service, config *GeneratorConfig) *Generator {
	if config == nil {
		config = DefaultGeneratorConfig()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCheckInterval
	}

	return &Generator{
		service: service,
		config:  config,
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start begins the generation loop. It returns immediately and checks
// for due briefs in a goroutine.
func (g *Generator) Start(ctx context.Context) error {
	if !g.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, g.cancel = context.WithCancel(ctx)
	go g.run(ctx)

	return nil
}

// Stop stops the generation loop.
func (g *Generator) Stop(ctx context.Context) error {
	if !g.started.Load() {
		return ErrNotStarted
	}

	g.cancel()
	<-g.done

	g.started.Store(false)
	return nil
}

// IsRunning returns true if the generator is running.
func (g *Generator) IsRunning() bool {
	return g.started.Load()
}

// run is the main generation loop.
func (g *Generator) run(ctx context.Context) {
	defer close(g.done)

	// Check immediately on start
	g.check(ctx)

	ticker := time.NewTicker(g.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.check(ctx)
		}
	}
}

// check generates every brief that is due and not yet stored.
func (g *Generator) check(ctx context.Context) {
	if g.config.IsLeader != nil && !g.config.IsLeader() {
		return
	}

	for _, brief := range g.RunOnce(ctx) {
		if g.config.OnBriefGenerated != nil {
			g.config.OnBriefGenerated(brief)
		}
	}
}

// RunOnce generates all currently due briefs and returns them. It can be
// called manually for testing or one-off generation.
func (g *Generator) RunOnce(ctx context.Context) []*Brief {
	now := g.now()
	var generated []*Brief

	if now.Hour() >= g.config.MorningHour {
		if brief := g.generateIfMissing(ctx, TypeMorning, now); brief != nil {
			generated = append(generated, brief)
		}
	}
	if now.Hour() >= g.config.EveningHour {
		if brief := g.generateIfMissing(ctx, TypeEvening, now); brief != nil {
			generated = append(generated, brief)
		}
	}
	return generated
}

func (g *Generator) generateIfMissing(ctx context.Context, briefType string, day time.Time) *Brief {
	_, err := g.service.Latest(ctx, briefType, day)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		g.reportError(err)
		return nil
	}

	brief, err := g.service.Generate(ctx, briefType, day)
	if err != nil {
		g.reportError(err)
		return nil
	}
	return brief
}

func (g *Generator) reportError(err error) {
	if g.config.OnError != nil {
		g.config.OnError(err)
	}
}
