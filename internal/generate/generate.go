// Package generate wraps the external text-generation service that writes
// the assistant's replies. The rest of the module only sees Generator; the
// providers here adapt OpenAI-compatible endpoints (Groq by default),
// Anthropic and Gemini to it.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnavailable means no provider produced a reply. Callers answer with a
// fallback text and keep session state.
var ErrUnavailable = errors.New("generator unavailable")

// ErrNotConfigured is returned when no API key was configured.
var ErrNotConfigured = fmt.Errorf("%w: no api keys configured", ErrUnavailable)

// Message is one chat message sent to a provider.
type Message struct {
	Role    string
	Content string
}

// Generator produces the next assistant reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Options are shared provider settings.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// splitSystem separates system messages from the dialogue.
func splitSystem(messages []Message) (system string, dialogue []Message) {
	var parts []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			parts = append(parts, m.Content)
			continue
		}
		dialogue = append(dialogue, m)
	}
	return strings.Join(parts, "\n\n"), dialogue
}

// Unconfigured always fails with ErrNotConfigured.
type Unconfigured struct{}

// Generate implements Generator.
func (Unconfigured) Generate(context.Context, []Message) (string, error) {
	return "", ErrNotConfigured
}

// Rotating tries each generator in turn, starting from the one that last
// succeeded, until one returns a non-empty reply. It is how several API
// keys share the load and cover for each other's rate limits.
type Rotating struct {
	Names      []string
	Generators []Generator
	// OnResult, if set, is called after every attempt.
	OnResult func(name string, err error)

	mu   sync.Mutex
	next int
}

// NewRotating builds a Rotating over gens. names label attempts in logs and
// metrics and may be shorter than gens.
func NewRotating(names []string, gens ...Generator) *Rotating {
	return &Rotating{Names: names, Generators: gens}
}

func (r *Rotating) name(i int) string {
	if i < len(r.Names) {
		return r.Names[i]
	}
	return fmt.Sprintf("generator-%d", i)
}

// Generate implements Generator.
func (r *Rotating) Generate(ctx context.Context, messages []Message) (string, error) {
	if len(r.Generators) == 0 {
		return "", ErrNotConfigured
	}
	r.mu.Lock()
	start := r.next
	r.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < len(r.Generators); attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		i := (start + attempt) % len(r.Generators)
		out, err := r.Generators[i].Generate(ctx, messages)
		if err == nil && strings.TrimSpace(out) == "" {
			err = errors.New("empty reply")
		}
		if r.OnResult != nil {
			r.OnResult(r.name(i), err)
		}
		if err == nil {
			r.mu.Lock()
			r.next = i
			r.mu.Unlock()
			return out, nil
		}
		lastErr = err
		log.Warn().Err(err).Str("generator", r.name(i)).Int("attempt", attempt+1).Msg("generation failed, rotating")
		r.mu.Lock()
		r.next = (i + 1) % len(r.Generators)
		r.mu.Unlock()
	}
	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
