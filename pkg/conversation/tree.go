package conversation

// ConversationTree is an arena of fetched messages keyed by id. Messages point to their
// parent through ParentID; a message with an empty ParentID is a root.
//
// Several threads may share the arena: two messages with the same parent are siblings
// of a branched conversation.
type ConversationTree struct {
	Nodes    map[string]*ChatMessage
	children map[string][]string
	order    []string
}

func NewConversationTree() *ConversationTree {
	return &ConversationTree{
		Nodes:    make(map[string]*ChatMessage),
		children: make(map[string][]string),
	}
}

// InsertMessage adds a message to the arena. It returns false if the id was already
// present, which during a parent walk means the chain loops back on itself.
func (ct *ConversationTree) InsertMessage(msg *ChatMessage) bool {
	if _, exists := ct.Nodes[msg.MessageID]; exists {
		return false
	}
	ct.Nodes[msg.MessageID] = msg
	ct.order = append(ct.order, msg.MessageID)
	ct.children[msg.ParentID] = append(ct.children[msg.ParentID], msg.MessageID)
	return true
}

func (ct *ConversationTree) GetMessageByID(id string) (*ChatMessage, bool) {
	ret, exists := ct.Nodes[id]
	return ret, exists
}

func (ct *ConversationTree) Len() int {
	return len(ct.Nodes)
}

// FindChildren returns the ids of the messages answering the given message, in
// insertion order.
func (ct *ConversationTree) FindChildren(id string) []string {
	return append([]string(nil), ct.children[id]...)
}

// FindSiblings returns the ids of the other messages sharing the parent of id.
func (ct *ConversationTree) FindSiblings(id string) []string {
	node, exists := ct.Nodes[id]
	if !exists {
		return nil
	}

	var siblings []string
	for _, sibling := range ct.children[node.ParentID] {
		if sibling != id {
			siblings = append(siblings, sibling)
		}
	}
	return siblings
}

// GetConversationThread returns the chain ending at id, root first. The walk stops at
// a root or at the first message missing from the arena.
func (ct *ConversationTree) GetConversationThread(id string) []*ChatMessage {
	var reversed []*ChatMessage
	seen := map[string]struct{}{}
	for id != "" {
		if _, ok := seen[id]; ok {
			break
		}
		node, exists := ct.Nodes[id]
		if !exists {
			break
		}
		seen[id] = struct{}{}
		reversed = append(reversed, node)
		id = node.ParentID
	}
	return reverseMessages(reversed)
}

// GetLeftMostThread follows the first child from id down to a leaf.
func (ct *ConversationTree) GetLeftMostThread(id string) []*ChatMessage {
	var thread []*ChatMessage
	seen := map[string]struct{}{}
	for id != "" {
		if _, ok := seen[id]; ok {
			break
		}
		node, exists := ct.Nodes[id]
		if !exists {
			break
		}
		seen[id] = struct{}{}
		thread = append(thread, node)
		if children := ct.children[id]; len(children) > 0 {
			id = children[0]
		} else {
			id = ""
		}
	}
	return thread
}

func reverseMessages(msgs []*ChatMessage) []*ChatMessage {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}
