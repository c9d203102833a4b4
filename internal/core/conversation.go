package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krishimitra/assistant/internal/metrics"
	"github.com/krishimitra/assistant/internal/store"
	"github.com/krishimitra/assistant/pkg/log"
)

// HistoryStore is the persistence contract for chat sessions. Every operation
// is keyed by username; no call can reach another user's sessions.
type HistoryStore interface {
	List(username string) ([]store.ChatSession, error)
	Save(username string, session store.ChatSession) error
	DeleteOne(username, sessionID string) error
	DeleteAll(username string) error
	ListAll() ([]store.ChatSession, error)
}

// ViewSink receives live state for the view layer: transcript snapshots while
// a turn streams, plus the two banner severities. Implementations must
// tolerate calls after their view has gone away by dropping them.
type ViewSink interface {
	PublishTranscript(messages []store.ChatMessage)
	PublishError(message string)
	PublishWarning(message string)
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSending
)

// ChatService owns the dependencies shared by all conversations.
type ChatService struct {
	gateway    Gateway
	history    HistoryStore
	recorder   metrics.Recorder
	chatModel  string
	titleModel string
}

func NewChatService(gw Gateway, history HistoryStore, recorder metrics.Recorder, chatModel, titleModel string) *ChatService {
	return &ChatService{
		gateway:    gw,
		history:    history,
		recorder:   recorder,
		chatModel:  chatModel,
		titleModel: titleModel,
	}
}

// Sessions lists the user's saved sessions, most recently touched first.
func (s *ChatService) Sessions(username string) ([]store.ChatSession, error) {
	return s.history.List(username)
}

func (s *ChatService) DeleteSession(username, sessionID string) error {
	return s.history.DeleteOne(username, sessionID)
}

func (s *ChatService) DeleteAllSessions(username string) error {
	return s.history.DeleteAll(username)
}

// NewConversation creates a lifecycle manager for one conversation view,
// owned by the given user. Call Load before the first Send.
func (s *ChatService) NewConversation(username string) *Conversation {
	c := &Conversation{
		username: username,
		svc:      s,
	}
	c.titleWorker = c.deriveTitle
	c.resetLocked()
	return c
}

// Conversation drives chat turns for a single mounted view: it keeps the
// in-memory transcript (the user's visible source of truth), streams
// assistant output into it, and reconciles each completed turn into the
// history store.
type Conversation struct {
	username string
	svc      *ChatService

	// titleWorker runs detached after a new session is created; swapped out
	// in tests to control when the derived title lands.
	titleWorker func(created store.ChatSession, basis string)

	mu       sync.Mutex
	state    State
	messages []store.ChatMessage
	session  *store.ChatSession // bound session; nil while the conversation is fresh
}

func (c *Conversation) resetLocked() {
	c.session = nil
	c.messages = []store.ChatMessage{{
		ID:   uuid.NewString(),
		Role: store.RoleAssistant,
		Text: greetingMessage,
	}}
}

// Load binds the conversation to an existing session, or initializes a fresh
// transcript when sessionID is empty. A stale sessionID is tolerated: the
// conversation falls back to the fresh state and the miss is only logged.
func (c *Conversation) Load(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateLoading
	defer func() { c.state = StateIdle }()

	if sessionID == "" {
		c.resetLocked()
		return
	}

	sessions, err := c.svc.history.List(c.username)
	if err != nil {
		log.Errorw("failed to load chat history", "username", c.username, "error", err)
		c.resetLocked()
		return
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			sess := sessions[i]
			c.session = &sess
			c.messages = append([]store.ChatMessage(nil), sess.Messages...)
			return
		}
	}

	log.Warnw("session not found, starting fresh", "username", c.username, "session_id", sessionID)
	c.resetLocked()
}

// State reports the manager's current lifecycle state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a snapshot of the visible messages.
func (c *Conversation) Transcript() []store.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Session returns a copy of the bound session, or nil when unbound.
func (c *Conversation) Session() *store.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	sess := *c.session
	return &sess
}

func (c *Conversation) snapshotLocked() []store.ChatMessage {
	return append([]store.ChatMessage(nil), c.messages...)
}

// Send drives one chat turn. An empty send (blank text and no image) and a
// send while another turn is in flight are both silently ignored. All gateway
// and persistence failures are absorbed here and surfaced through the sink;
// Send never returns an error to the view layer.
func (c *Conversation) Send(ctx context.Context, text, imageDataURL string, sink ViewSink) {
	c.mu.Lock()
	if (strings.TrimSpace(text) == "" && imageDataURL == "") || c.state == StateSending {
		c.mu.Unlock()
		return
	}
	c.state = StateSending

	userMsg := store.ChatMessage{
		ID:    uuid.NewString(),
		Role:  store.RoleUser,
		Text:  text,
		Image: imageDataURL,
	}
	placeholder := store.ChatMessage{
		ID:   uuid.NewString(),
		Role: store.RoleAssistant,
	}
	// Optimistic update: user input and pending indicator become visible
	// before any network activity.
	c.messages = append(c.messages, userMsg, placeholder)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.svc.recorder.TurnStarted()
	started := time.Now()
	sink.PublishTranscript(snapshot)

	var full strings.Builder
	img, genErr := ParseInlineImage(imageDataURL)
	if genErr == nil {
		req := GenerateRequest{
			Prompt:            text,
			Image:             img,
			SystemInstruction: chatSystemInstruction,
			Options:           GenerationOptions{Model: c.svc.chatModel},
		}
		genErr = c.svc.gateway.Stream(ctx, req, func(fragment string) {
			full.WriteString(fragment)
			c.applyFragment(placeholder.ID, full.String(), sink)
		})
	}

	finalText := full.String()
	if genErr != nil {
		c.svc.recorder.GenerationFailure()
		log.Errorw("generation failed", "username", c.username, "error", genErr)
		sink.PublishError(generationErrorBanner)
		finalText = "Sorry, I encountered an error. " + generationErrorBanner
	}

	c.mu.Lock()
	c.setMessageTextLocked(placeholder.ID, finalText)
	final := c.snapshotLocked()
	bound := c.session
	c.state = StateIdle
	c.mu.Unlock()
	sink.PublishTranscript(final)

	now := time.Now().UnixMilli()
	if bound != nil {
		updated := *bound
		updated.Timestamp = now
		updated.Messages = final
		if err := c.svc.history.Save(c.username, updated); err != nil {
			c.svc.recorder.SaveFailure()
			log.Errorw("failed to save chat session", "username", c.username, "session_id", updated.ID, "error", err)
			sink.PublishWarning(saveFailureWarning)
		} else {
			c.mu.Lock()
			c.session = &updated
			c.mu.Unlock()
		}
	} else {
		created := store.ChatSession{
			ID:        uuid.NewString(),
			Title:     initialTitle(text),
			Timestamp: now,
			Messages:  final,
		}
		if err := c.svc.history.Save(c.username, created); err != nil {
			c.svc.recorder.SaveFailure()
			log.Errorw("failed to save new chat session", "username", c.username, "error", err)
			sink.PublishWarning(saveFailureWarning)
		} else {
			c.mu.Lock()
			c.session = &created
			c.mu.Unlock()
			if strings.TrimSpace(text) != "" {
				go c.titleWorker(created, text)
			}
		}
	}

	c.svc.recorder.TurnCompleted(time.Since(started))
}

// applyFragment folds accumulated streamed text into the placeholder message
// in place. If the placeholder is gone (the view reloaded mid-stream) the
// update is dropped rather than misapplied.
func (c *Conversation) applyFragment(placeholderID, accumulated string, sink ViewSink) {
	c.mu.Lock()
	if !c.setMessageTextLocked(placeholderID, accumulated) {
		c.mu.Unlock()
		return
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	sink.PublishTranscript(snapshot)
}

func (c *Conversation) setMessageTextLocked(id, text string) bool {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages[i].Text = text
			return true
		}
	}
	return false
}

// deriveTitle asks the gateway for a better title for a just-created session.
// It runs detached from the turn that created the session, so by the time a
// title arrives the session may have been deleted or the view rebound; both
// are checked before anything is overwritten.
func (c *Conversation) deriveTitle(created store.ChatSession, basis string) {
	ctx := context.Background()
	maxTokens := int32(20)
	temp := float32(0.3)
	title, err := c.svc.gateway.CompleteOnce(ctx, GenerateRequest{
		Prompt:            titlePrompt(basis),
		SystemInstruction: titleSystemInstruction,
		Options: GenerationOptions{
			Model:           c.svc.titleModel,
			Temperature:     &temp,
			MaxOutputTokens: &maxTokens,
		},
	})
	if err != nil {
		log.Warnw("failed to derive session title", "username", c.username, "session_id", created.ID, "error", err)
		return
	}
	title = strings.Trim(title, "\"'\n\r\t .")
	if title == "" {
		return
	}

	// Re-read before writing: a deleted session must not be resurrected, and
	// messages appended by later turns must not be rolled back.
	sessions, err := c.svc.history.List(c.username)
	if err != nil {
		log.Warnw("failed to re-read sessions for title update", "username", c.username, "error", err)
		return
	}
	var existing *store.ChatSession
	for i := range sessions {
		if sessions[i].ID == created.ID {
			existing = &sessions[i]
			break
		}
	}
	if existing == nil {
		log.Debugw("session gone before derived title arrived", "username", c.username, "session_id", created.ID)
		return
	}

	existing.Title = title
	if err := c.svc.history.Save(c.username, *existing); err != nil {
		log.Warnw("failed to save derived title", "username", c.username, "session_id", created.ID, "error", err)
		return
	}
	c.svc.recorder.TitleDerived()

	// Apply in memory only while this session is still the bound one.
	c.mu.Lock()
	if c.session != nil && c.session.ID == created.ID {
		c.session.Title = title
	}
	c.mu.Unlock()
}

// initialTitle is the synchronous placeholder title: a 30-character prefix of
// the first user message, or a fixed fallback for image-only sends.
func initialTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallbackSessionTitle
	}
	runes := []rune(text)
	if len(runes) <= 30 {
		return text
	}
	return string(runes[:30]) + "..."
}
