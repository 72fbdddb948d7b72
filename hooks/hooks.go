// Package hooks provides lifecycle callbacks around brief generation and
// assistant question answering. Hooks run synchronously in registration
// order; an error from any hook aborts the chain and is returned to the
// caller.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/qa"
)

// BeforeBriefHook is called before a brief is generated.
type BeforeBriefHook func(ctx context.Context, briefType string, day time.Time) error

// AfterBriefHook is called after a brief generation attempt.
// Parameters: ctx, briefType, brief (nil on failure), error
type AfterBriefHook func(ctx context.Context, briefType string, brief *briefing.Brief, err error) error

// BeforeQueryHook is called before the assistant answers a question.
type BeforeQueryHook func(ctx context.Context, question string) error

// AfterQueryHook is called after an answering attempt.
// Parameters: ctx, question, answer (nil on failure), error
type AfterQueryHook func(ctx context.Context, question string, answer *qa.Answer, err error) error

// Registry holds all registered hooks
type Registry struct {
	mu          sync.RWMutex
	beforeBrief []BeforeBriefHook
	afterBrief  []AfterBriefHook
	beforeQuery []BeforeQueryHook
	afterQuery  []AfterQueryHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeBrief: []BeforeBriefHook{},
		afterBrief:  []AfterBriefHook{},
		beforeQuery: []BeforeQueryHook{},
		afterQuery:  []AfterQueryHook{},
	}
}

// OnBeforeBrief registers a hook to be called before brief generation
func (r *Registry) OnBeforeBrief(hook BeforeBriefHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeBrief = append(r.beforeBrief, hook)
}

// OnAfterBrief registers a hook to be called after brief generation
func (r *Registry) OnAfterBrief(hook AfterBriefHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterBrief = append(r.afterBrief, hook)
}

// OnBeforeQuery registers a hook to be called before a question is answered
func (r *Registry) OnBeforeQuery(hook BeforeQueryHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeQuery = append(r.beforeQuery, hook)
}

// OnAfterQuery registers a hook to be called after a question is answered
func (r *Registry) OnAfterQuery(hook AfterQueryHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterQuery = append(r.afterQuery, hook)
}

// TriggerBeforeBrief calls all registered before-brief hooks
func (r *Registry) TriggerBeforeBrief(ctx context.Context, briefType string, day time.Time) error {
	r.mu.RLock()
	hooks := make([]BeforeBriefHook, len(r.beforeBrief))
	copy(hooks, r.beforeBrief)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, briefType, day); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterBrief calls all registered after-brief hooks
func (r *Registry) TriggerAfterBrief(ctx context.Context, briefType string, brief *briefing.Brief, err error) error {
	r.mu.RLock()
	hooks := make([]AfterBriefHook, len(r.afterBrief))
	copy(hooks, r.afterBrief)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, briefType, brief, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

// TriggerBeforeQuery calls all registered before-query hooks
func (r *Registry) TriggerBeforeQuery(ctx context.Context, question string) error {
	r.mu.RLock()
	hooks := make([]BeforeQueryHook, len(r.beforeQuery))
	copy(hooks, r.beforeQuery)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, question); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterQuery calls all registered after-query hooks
func (r *Registry) TriggerAfterQuery(ctx context.Context, question string, answer *qa.Answer, err error) error {
	r.mu.RLock()
	hooks := make([]AfterQueryHook, len(r.afterQuery))
	copy(hooks, r.afterQuery)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, question, answer, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}
