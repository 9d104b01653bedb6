package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PromptKind distinguishes the two transient UI prompts.
type PromptKind string

const (
	PromptCloseConfirm PromptKind = "close_confirm"
	PromptRating       PromptKind = "rating"
)

// PromptStatus is the registry's answer for a token lookup.
type PromptStatus int

const (
	// PromptUnknown: never issued, expired, or cancelled. The press is inert.
	PromptUnknown PromptStatus = iota
	// PromptActive: live and not yet used.
	PromptActive
	// PromptSpent: already used once; repeat presses are rejected.
	PromptSpent
)

// Prompt is a short-lived, single-use interaction bound to a ticket. It is not
// part of ticket state; expiry discards it without side effects.
type Prompt struct {
	Token     string
	Kind      PromptKind
	TicketID  string
	ActorID   string
	ExpiresAt time.Time
}

type promptState struct {
	prompt Prompt
	spent  bool
	timer  *time.Timer
}

// PromptRegistry tracks live prompts keyed by token. Expired prompts vanish;
// spent prompts are remembered so a repeat press can be told apart from an
// expired one.
type PromptRegistry struct {
	mu      sync.Mutex
	prompts map[string]*promptState
}

// NewPromptRegistry creates an empty registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{prompts: make(map[string]*promptState)}
}

// Open issues a new prompt that expires after ttl. Expiry removes the prompt;
// it never retries or resurrects the transition it guarded.
func (r *PromptRegistry) Open(kind PromptKind, ticketID, actorID string, ttl time.Duration) Prompt {
	prompt := Prompt{
		Token:     uuid.NewString(),
		Kind:      kind,
		TicketID:  ticketID,
		ActorID:   actorID,
		ExpiresAt: time.Now().Add(ttl),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state := &promptState{prompt: prompt}
	state.timer = time.AfterFunc(ttl, func() { r.expire(prompt.Token) })
	r.prompts[prompt.Token] = state
	return prompt
}

// Status looks up a token without consuming it.
func (r *PromptRegistry) Status(token string) (Prompt, PromptStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.prompts[token]
	if !ok {
		return Prompt{}, PromptUnknown
	}
	if state.spent {
		return state.prompt, PromptSpent
	}
	return state.prompt, PromptActive
}

// Spend consumes an active prompt. It succeeds exactly once per token.
func (r *PromptRegistry) Spend(token string) (Prompt, PromptStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.prompts[token]
	if !ok {
		return Prompt{}, PromptUnknown
	}
	if state.spent {
		return state.prompt, PromptSpent
	}
	state.spent = true
	if state.timer != nil {
		state.timer.Stop()
	}
	return state.prompt, PromptActive
}

// CancelTicket discards any active prompts of the given kind for a ticket.
func (r *PromptRegistry) CancelTicket(ticketID string, kind PromptKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, state := range r.prompts {
		if state.prompt.TicketID == ticketID && state.prompt.Kind == kind && !state.spent {
			if state.timer != nil {
				state.timer.Stop()
			}
			delete(r.prompts, token)
		}
	}
}

func (r *PromptRegistry) expire(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.prompts[token]
	if ok && !state.spent {
		delete(r.prompts, token)
	}
}
