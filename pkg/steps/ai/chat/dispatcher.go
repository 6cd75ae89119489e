package chat

import (
	"context"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/rs/zerolog/log"
)

// Dispatcher routes the prompts of a sender to the client of their mode and remembers
// where each sender is in their thread.
type Dispatcher struct {
	registry    *Registry
	repo        *conversation.Repository
	defaultMode types.Mode
	senders     *helpers.KeyedMutex
}

func NewDispatcher(registry *Registry, repo *conversation.Repository, defaultMode types.Mode) *Dispatcher {
	if defaultMode == "" {
		defaultMode = types.DefaultMode
	}
	return &Dispatcher{
		registry:    registry,
		repo:        repo,
		defaultMode: defaultMode,
		senders:     helpers.NewKeyedMutex(),
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

func (d *Dispatcher) Repository() *conversation.Repository {
	return d.repo
}

// ResolveMode picks the mode of a sender: their own choice, then the namespace "use"
// key, then the configured default.
func (d *Dispatcher) ResolveMode(ctx context.Context, progress *conversation.UserProgress) (types.Mode, error) {
	if progress != nil && progress.Mode != "" {
		return types.ParseMode(string(progress.Mode)), nil
	}

	mode, ok, err := d.repo.GetDefaultMode(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return mode, nil
	}

	return d.defaultMode, nil
}

// Dispatch runs one turn for senderID and records the new thread position.
func (d *Dispatcher) Dispatch(ctx context.Context, senderID string, prompt string) (*conversation.ChatResponse, error) {
	unlock := d.senders.Lock(senderID)
	defer unlock()

	progress, err := d.repo.GetProgress(ctx, senderID)
	if err != nil {
		return nil, err
	}

	mode, err := d.ResolveMode(ctx, progress)
	if err != nil {
		return nil, err
	}

	client, err := d.registry.Lookup(mode)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("sender_id", senderID).
		Str("mode", mode.String()).
		Str("conversation_id", progress.ConversationID).
		Str("parent_id", progress.ParentID).
		Msg("dispatching prompt")

	resp, err := client.Chat(ctx, prompt, progress.ConversationID, progress.ParentID)
	if err != nil {
		log.Debug().Err(err).Str("sender_id", senderID).Str("mode", mode.String()).Msg("chat failed")
		return nil, err
	}
	if resp.Mode == "" {
		resp.Mode = mode
	}

	next := &conversation.UserProgress{
		ConversationID: resp.ConversationID,
		ParentID:       resp.MessageID,
		Mode:           progress.Mode,
	}
	if err := d.repo.SetProgress(ctx, senderID, next); err != nil {
		return nil, err
	}

	return resp, nil
}

// Reply is the entry point for hosts that only need the text of the answer.
func (d *Dispatcher) Reply(ctx context.Context, senderID string, prompt string) (string, error) {
	resp, err := d.Dispatch(ctx, senderID, prompt)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SetMode pins senderID to mode. An empty mode returns the sender to the namespace
// default.
func (d *Dispatcher) SetMode(ctx context.Context, senderID string, mode types.Mode) error {
	if mode != "" {
		if _, err := d.registry.Lookup(mode); err != nil {
			return err
		}
	}

	unlock := d.senders.Lock(senderID)
	defer unlock()

	progress, err := d.repo.GetProgress(ctx, senderID)
	if err != nil {
		return err
	}
	progress.Mode = mode
	return d.repo.SetProgress(ctx, senderID, progress)
}

// SetDefaultMode changes the namespace wide mode used by senders without their own.
func (d *Dispatcher) SetDefaultMode(ctx context.Context, mode types.Mode) error {
	if _, err := d.registry.Lookup(mode); err != nil {
		return err
	}
	return d.repo.SetDefaultMode(ctx, mode)
}

// Reset makes the next prompt of senderID start a new thread. The mode is kept.
func (d *Dispatcher) Reset(ctx context.Context, senderID string) error {
	unlock := d.senders.Lock(senderID)
	defer unlock()

	progress, err := d.repo.GetProgress(ctx, senderID)
	if err != nil {
		return err
	}
	return d.repo.SetProgress(ctx, senderID, &conversation.UserProgress{Mode: progress.Mode})
}

// Progress returns the stored thread position of senderID.
func (d *Dispatcher) Progress(ctx context.Context, senderID string) (*conversation.UserProgress, error) {
	return d.repo.GetProgress(ctx, senderID)
}
