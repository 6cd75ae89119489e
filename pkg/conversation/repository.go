package conversation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/go-go-golems/grillo/pkg/store"
	"github.com/rs/zerolog/log"
)

const DefaultMaxDepth = 1000

const defaultModeKey = "use"

func messageKey(messageID string) string {
	return "message:" + messageID
}

func threadKey(conversationID string) string {
	return "conversation:" + conversationID + ":messages"
}

func progressKey(senderID string) string {
	return "user_progress:" + senderID
}

// Repository owns the key layout of a namespace: message records, per-thread id lists,
// per-sender progress and the namespace default mode.
type Repository struct {
	store *store.Namespaced
	locks *helpers.KeyedMutex
	// MaxDepth bounds the parent walk of GetHistory.
	MaxDepth int
}

func NewRepository(s *store.Namespaced, maxDepth int) *Repository {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Repository{
		store:    s,
		locks:    helpers.NewKeyedMutex(),
		MaxDepth: maxDepth,
	}
}

func (r *Repository) Namespace() string {
	return r.store.Namespace
}

// LockConversation serializes turns on one thread. The returned function releases the
// lock.
func (r *Repository) LockConversation(conversationID string) func() {
	return r.locks.Lock(conversationID)
}

// MessageIDs returns the ids appended to the thread index, oldest first.
func (r *Repository) MessageIDs(ctx context.Context, conversationID string) ([]string, error) {
	key := threadKey(conversationID)
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, nil
	}
	return splitIDs(v), nil
}

func splitIDs(v string) []string {
	var ret []string
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ret = append(ret, id)
		}
	}
	return ret
}

// GetMessage loads one message record.
func (r *Repository) GetMessage(ctx context.Context, messageID string) (*ChatMessage, error) {
	key := messageKey(messageID)
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, &NotFoundError{MessageID: messageID}
	}

	msg := &ChatMessage{}
	if err := json.Unmarshal([]byte(v), msg); err != nil {
		return nil, &SchemaError{Reason: "decode message " + messageID, Err: err}
	}
	if msg.MessageID == "" {
		msg.MessageID = messageID
	}
	return msg, nil
}

// SetMessage persists msg and appends its id to the thread index of conversationID.
// Callers hold the conversation lock.
//
// The record is written before the index. A failed append leaves an unreferenced
// record behind, never an index entry pointing to a missing record.
func (r *Repository) SetMessage(ctx context.Context, conversationID string, msg *ChatMessage) error {
	if msg == nil || msg.MessageID == "" {
		return &SchemaError{Reason: "message without id"}
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return &SchemaError{Reason: "encode message " + msg.MessageID, Err: err}
	}
	key := messageKey(msg.MessageID)
	if err := r.store.Set(ctx, key, string(b)); err != nil {
		return &StoreError{Op: "set", Key: key, Err: err}
	}

	key = threadKey(conversationID)
	v, _, err := r.store.Get(ctx, key)
	if err != nil {
		return &StoreError{Op: "get", Key: key, Err: err}
	}
	ids := append(splitIDs(v), msg.MessageID)
	if err := r.store.Set(ctx, key, strings.Join(ids, ",")); err != nil {
		return &StoreError{Op: "set", Key: key, Err: err}
	}

	log.Debug().
		Str("conversation_id", conversationID).
		Str("message_id", msg.MessageID).
		Str("parent_id", msg.ParentID).
		Int("thread_length", len(ids)).
		Msg("persisted message")
	return nil
}

// GetHistory reconstructs the thread ending at parentID, oldest message first. With an
// empty parentID the newest message of the thread index is used; a thread without
// messages yields an empty conversation.
func (r *Repository) GetHistory(ctx context.Context, conversationID string, parentID string) (*Conversation, error) {
	if parentID == "" {
		ids, err := r.MessageIDs(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return NewConversation(conversationID), nil
		}
		parentID = ids[len(ids)-1]
	}

	tree := NewConversationTree()
	for id := parentID; id != ""; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if tree.Len() >= r.MaxDepth {
			return nil, &SchemaError{Reason: "history of " + conversationID, Err: ErrHistoryTooDeep}
		}

		msg, err := r.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		if !tree.InsertMessage(msg) {
			return nil, &SchemaError{Reason: "message " + id + " revisited", Err: ErrHistoryCycle}
		}
		id = msg.ParentID
	}

	return NewConversation(conversationID, tree.GetConversationThread(parentID)...), nil
}

// GetTree loads every message listed in the thread index of conversationID. Messages
// continued from an older parent show up as siblings.
func (r *Repository) GetTree(ctx context.Context, conversationID string) (*ConversationTree, error) {
	ids, err := r.MessageIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	tree := NewConversationTree()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := r.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		if !tree.InsertMessage(msg) {
			log.Warn().Str("conversation_id", conversationID).Str("message_id", id).Msg("duplicate id in thread index")
		}
	}
	return tree, nil
}

// GetProgress returns the progress record of a sender. A record that does not decode
// is reported in the log and treated as absent.
func (r *Repository) GetProgress(ctx context.Context, senderID string) (*UserProgress, error) {
	key := progressKey(senderID)
	v, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	progress := &UserProgress{}
	if !ok || v == "" {
		return progress, nil
	}
	if err := json.Unmarshal([]byte(v), progress); err != nil {
		log.Warn().Err(err).Str("sender_id", senderID).Msg("ignoring undecodable user progress")
		return &UserProgress{}, nil
	}
	return progress, nil
}

func (r *Repository) SetProgress(ctx context.Context, senderID string, progress *UserProgress) error {
	key := progressKey(senderID)
	b, err := json.Marshal(progress)
	if err != nil {
		return &StoreError{Op: "encode", Key: key, Err: err}
	}
	if err := r.store.Set(ctx, key, string(b)); err != nil {
		return &StoreError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// GetDefaultMode returns the namespace wide mode set with "use", if any.
func (r *Repository) GetDefaultMode(ctx context.Context) (types.Mode, bool, error) {
	v, ok, err := r.store.Get(ctx, defaultModeKey)
	if err != nil {
		return "", false, &StoreError{Op: "get", Key: defaultModeKey, Err: err}
	}
	if !ok || strings.TrimSpace(v) == "" {
		return "", false, nil
	}
	return types.ParseMode(v), true, nil
}

func (r *Repository) SetDefaultMode(ctx context.Context, mode types.Mode) error {
	if err := r.store.Set(ctx, defaultModeKey, string(mode)); err != nil {
		return &StoreError{Op: "set", Key: defaultModeKey, Err: err}
	}
	return nil
}
