// Package coach generates short motivational commentary with Gemini and
// publishes it on a message stream the coach-message loader consumes. Every
// call is best-effort: with no API key, or when generation fails, the coach
// falls back to a built-in line so the stream keeps flowing.
package coach

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"habitloop/internal/logging"
)

// Config for the coach.
type Config struct {
	Enabled bool
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Coach is the AI commentary collaborator.
type Coach struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger

	mu   sync.Mutex
	subs []chan string
}

var cannedLines = []string{
	"Nice one. Small steps, big arcs.",
	"Logged. Tomorrow-you says thanks.",
	"That's the rhythm. Keep it light.",
	"Momentum looks good on you.",
	"Done is done. See you tomorrow.",
}

// New builds the coach. With Enabled false or an empty API key it runs in
// offline mode and only serves canned lines; that is not an error.
func New(ctx context.Context, cfg Config) (*Coach, error) {
	c := &Coach{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     logging.Named(logging.CategoryCoach),
	}
	if c.model == "" {
		c.model = "gemini-2.0-flash"
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}

	if !cfg.Enabled || cfg.APIKey == "" {
		c.log.Info("coach running offline", zap.Bool("enabled", cfg.Enabled))
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	return c, nil
}

// Online reports whether generation goes through the API.
func (c *Coach) Online() bool {
	return c.client != nil
}

// AnnounceCompletion publishes a message for a single habit completion.
func (c *Coach) AnnounceCompletion(ctx context.Context, habitName string, streak int) string {
	prompt := fmt.Sprintf(
		"In one short sentence (max 12 words), congratulate the user for completing the habit %q. Current streak: %d days. No emoji.",
		habitName, streak)
	return c.announce(ctx, prompt)
}

// AnnouncePerfectDay publishes a message for completing every habit today.
func (c *Coach) AnnouncePerfectDay(ctx context.Context) string {
	return c.announce(ctx,
		"In one short sentence (max 12 words), celebrate the user finishing all habits today. No emoji.")
}

// AnnounceMilestone publishes a message for crossing a streak milestone.
func (c *Coach) AnnounceMilestone(ctx context.Context, days int) string {
	prompt := fmt.Sprintf(
		"In one short sentence (max 12 words), celebrate a %d-day habit streak milestone. No emoji.", days)
	return c.announce(ctx, prompt)
}

// announce generates a line (or falls back), publishes it, and returns it.
func (c *Coach) announce(ctx context.Context, prompt string) string {
	msg, err := c.generate(ctx, prompt)
	if err != nil {
		c.log.Warn("generation failed, using canned line", zap.Error(err))
		msg = ""
	}
	if msg == "" {
		msg = cannedLines[rand.Intn(len(cannedLines))]
	}
	c.publish(msg)
	return msg
}

func (c *Coach) generate(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// SubscribeMessages returns a latest-value stream of coach lines.
func (c *Coach) SubscribeMessages(ctx context.Context) <-chan string {
	ch := make(chan string, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		for i, sub := range c.subs {
			if sub == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()

	return ch
}

func (c *Coach) publish(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}
