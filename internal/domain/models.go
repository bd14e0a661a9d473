package domain

// SelfSender is the sentinel sender value for messages authored on this device.
const SelfSender = "self"

// MessageKind discriminates message content.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindMedia MessageKind = "media"
)

// ConversationType distinguishes direct chats from group chats.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// MediaContent describes the payload of a media message.
type MediaContent struct {
	MimeType    string  `json:"mime_type"`
	Payload     string  `json:"payload"` // base64, or a reference into the media store
	Alt         string  `json:"alt,omitempty"`
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
}

// Message is a single chat message. IDs are assigned by the messaging
// collaborator for delivered messages and generated locally for optimistic
// sends, and are stable across retransmission: re-delivery of an id already
// stored must be a no-op.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Sender         string        `json:"sender"`    // SelfSender for local messages
	Timestamp      int64         `json:"timestamp"` // ms since epoch, drives ordering
	Status         MessageStatus `json:"status"`
	Kind           MessageKind   `json:"kind"`
	Body           string        `json:"body,omitempty"`
	Media          *MediaContent `json:"media,omitempty"`
}

// FromSelf reports whether the message was authored on this device.
func (m *Message) FromSelf() bool {
	return m.Sender == SelfSender
}

// Conversation is a thread of messages with one peer (direct) or a group.
// For direct chats the conversation id equals the peer id.
type Conversation struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Participants []string         `json:"participants"`
	Type         ConversationType `json:"type"`
	LastMessage  *Message         `json:"last_message,omitempty"`
	UnreadCount  int              `json:"unread_count"`
	UpdatedAt    int64            `json:"updated_at"` // ms since epoch, drives list ordering
}

// Profile is per-peer display metadata, last-write-wins.
type Profile struct {
	PeerID      string `json:"peer_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// DisplayTitle merges a peer profile over the conversation title. The profile
// is the source of truth for display names; the conversation title is only
// the fallback when no profile is known. The stored conversation record is
// never rewritten from profiles.
func DisplayTitle(c *Conversation, p *Profile) string {
	if p != nil && p.Title != "" {
		return p.Title
	}
	return c.Title
}

// DefaultTitle derives a conversation title from a peer id until a profile
// title is known.
func DefaultTitle(peerID string) string {
	const prefixLen = 12
	if len(peerID) > prefixLen {
		return peerID[:prefixLen] + "…"
	}
	return peerID
}

// EndpointConfig is the relay rendezvous the messaging collaborator uses.
type EndpointConfig struct {
	URL       string `json:"url"`
	PublicKey string `json:"public_key"`
}

// Identity is the device session: the collaborator's serialized cryptographic
// identity (encrypted at rest), the local profile, and the relay endpoint.
// One per device; created on first run, destroyed only on logout.
type Identity struct {
	Serialized []byte         `json:"-"`
	Profile    Profile        `json:"profile"`
	Endpoint   EndpointConfig `json:"endpoint"`
	CreatedAt  int64          `json:"created_at"`
}

// MediaType classifies captured media blobs.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// MediaItem is a captured blob held in the media store. IsPending marks
// captured-but-unsent media so an interrupted capture-to-send flow can be
// resumed after a restart.
type MediaItem struct {
	ID        int64     `json:"id"`
	Type      MediaType `json:"type"`
	Blob      []byte    `json:"blob"`
	MimeType  string    `json:"mime_type"`
	Timestamp int64     `json:"timestamp"`
	IsPending bool      `json:"is_pending"`
}
