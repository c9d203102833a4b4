package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishimitra/assistant/internal/metrics"
	"github.com/krishimitra/assistant/internal/store"
)

type fakeGateway struct {
	mu         sync.Mutex
	streamFn   func(ctx context.Context, req GenerateRequest, onFragment func(string)) error
	completeFn func(ctx context.Context, req GenerateRequest) (string, error)
	streamReqs []GenerateRequest
}

func (g *fakeGateway) Stream(ctx context.Context, req GenerateRequest, onFragment func(string)) error {
	g.mu.Lock()
	g.streamReqs = append(g.streamReqs, req)
	fn := g.streamFn
	g.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, req, onFragment)
}

func (g *fakeGateway) CompleteOnce(ctx context.Context, req GenerateRequest) (string, error) {
	if g.completeFn == nil {
		return "", fmt.Errorf("no completion scripted")
	}
	return g.completeFn(ctx, req)
}

func (g *fakeGateway) GenerateImage(ctx context.Context, prompt string) (*InlineImage, error) {
	return nil, fmt.Errorf("not implemented")
}

func (g *fakeGateway) streamCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.streamReqs)
}

// fakeHistory is an in-memory HistoryStore.
type fakeHistory struct {
	mu       sync.Mutex
	sessions map[string][]store.ChatSession
	failSave bool
	saves    int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{sessions: make(map[string][]store.ChatSession)}
}

func (h *fakeHistory) List(username string) ([]store.ChatSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]store.ChatSession(nil), h.sessions[username]...), nil
}

func (h *fakeHistory) Save(username string, session store.ChatSession) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failSave {
		return fmt.Errorf("disk full")
	}
	h.saves++
	list := h.sessions[username]
	for i := range list {
		if list[i].ID == session.ID {
			list[i] = session
			return nil
		}
	}
	h.sessions[username] = append(list, session)
	return nil
}

func (h *fakeHistory) DeleteOne(username, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.sessions[username]
	for i := range list {
		if list[i].ID == sessionID {
			h.sessions[username] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (h *fakeHistory) DeleteAll(username string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, username)
	return nil
}

func (h *fakeHistory) ListAll() ([]store.ChatSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var all []store.ChatSession
	for _, list := range h.sessions {
		all = append(all, list...)
	}
	return all, nil
}

func (h *fakeHistory) get(username, id string) *store.ChatSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions[username] {
		if s.ID == id {
			sess := s
			return &sess
		}
	}
	return nil
}

// recordingSink captures everything published to the view.
type recordingSink struct {
	mu          sync.Mutex
	transcripts [][]store.ChatMessage
	errors      []string
	warnings    []string
}

func (s *recordingSink) PublishTranscript(messages []store.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, messages)
}

func (s *recordingSink) PublishError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, message)
}

func (s *recordingSink) PublishWarning(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, message)
}

func scriptedStream(fragments ...string) func(context.Context, GenerateRequest, func(string)) error {
	return func(ctx context.Context, req GenerateRequest, onFragment func(string)) error {
		for _, f := range fragments {
			onFragment(f)
		}
		return nil
	}
}

func newTestConversation(t *testing.T, gw *fakeGateway, history *fakeHistory) *Conversation {
	t.Helper()
	svc := NewChatService(gw, history, metrics.Nop{}, "chat-model", "title-model")
	conv := svc.NewConversation("farmer1")
	conv.titleWorker = func(store.ChatSession, string) {} // derived titles driven explicitly in tests
	return conv
}

func testImageURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
}

func TestSendAppendsUserAndAssistantPair(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("Wat", "er ", "the", " plant daily.")}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	prior := conv.Transcript()
	require.Len(t, prior, 1)
	require.Equal(t, store.RoleAssistant, prior[0].Role)

	sink := &recordingSink{}
	conv.Send(context.Background(), "How often should I water?", "", sink)

	final := conv.Transcript()
	require.Len(t, final, 3)
	assert.Equal(t, prior[0].ID, final[0].ID)
	assert.Equal(t, store.RoleUser, final[1].Role)
	assert.Equal(t, "How often should I water?", final[1].Text)
	assert.Equal(t, store.RoleAssistant, final[2].Role)
	assert.Equal(t, "Water the plant daily.", final[2].Text)
	assert.Equal(t, StateIdle, conv.State())

	// Fragments accumulate in order with no loss or reordering.
	var progress []string
	for _, snap := range sink.transcripts {
		last := snap[len(snap)-1]
		if last.Role == store.RoleAssistant && last.ID == final[2].ID {
			progress = append(progress, last.Text)
		}
	}
	assert.Equal(t, []string{"", "Wat", "Water ", "Water the", "Water the plant daily.", "Water the plant daily."}, progress)
}

func TestSendOptimisticUpdatePrecedesStreaming(t *testing.T) {
	history := newFakeHistory()
	sink := &recordingSink{}
	gw := &fakeGateway{}
	gw.streamFn = func(ctx context.Context, req GenerateRequest, onFragment func(string)) error {
		// The user message and pending placeholder must already be visible.
		sink.mu.Lock()
		published := len(sink.transcripts)
		sink.mu.Unlock()
		require.GreaterOrEqual(t, published, 1)
		return nil
	}
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	conv.Send(context.Background(), "hello", "", sink)

	first := sink.transcripts[0]
	require.Len(t, first, 3)
	assert.Equal(t, store.RoleUser, first[1].Role)
	assert.Equal(t, store.RoleAssistant, first[2].Role)
	assert.Empty(t, first[2].Text)
}

func TestSendEmptyInputSilentlyIgnored(t *testing.T) {
	gw := &fakeGateway{}
	conv := newTestConversation(t, gw, newFakeHistory())
	conv.Load("")

	sink := &recordingSink{}
	conv.Send(context.Background(), "   ", "", sink)

	assert.Zero(t, gw.streamCalls())
	assert.Empty(t, sink.transcripts)
	assert.Len(t, conv.Transcript(), 1)
}

func TestSendWhileSendingIgnored(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{}
	gw.streamFn = func(ctx context.Context, req GenerateRequest, onFragment func(string)) error {
		close(started)
		<-release
		return nil
	}
	conv := newTestConversation(t, gw, newFakeHistory())
	conv.Load("")

	done := make(chan struct{})
	go func() {
		conv.Send(context.Background(), "first", "", &recordingSink{})
		close(done)
	}()
	<-started

	conv.Send(context.Background(), "second", "", &recordingSink{})
	assert.Equal(t, 1, gw.streamCalls())

	close(release)
	<-done
	// Only the first turn's pair made it into the transcript.
	require.Len(t, conv.Transcript(), 3)
}

func TestFirstTurnCreatesSessionOnceAcrossTurns(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("ok")}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	const turns = 3
	titleBasis := make(chan string, turns)
	conv.titleWorker = func(created store.ChatSession, basis string) {
		titleBasis <- basis
	}

	for i := 0; i < turns; i++ {
		conv.Send(context.Background(), fmt.Sprintf("question %d", i), "", &recordingSink{})
	}

	sessions, err := history.List("farmer1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	// Greeting plus one user/assistant pair per turn.
	assert.Len(t, sessions[0].Messages, 1+2*turns)

	// Title derivation fires once, for the turn that created the session.
	assert.Equal(t, "question 0", <-titleBasis)
	select {
	case basis := <-titleBasis:
		t.Fatalf("unexpected extra title derivation for %q", basis)
	default:
	}
}

func TestBoundSessionUpdatedInPlace(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("answer")}
	history := newFakeHistory()
	existing := store.ChatSession{
		ID:        "sess-1",
		Title:     "Soil questions",
		Timestamp: 1000,
		Messages: []store.ChatMessage{
			{ID: "m1", Role: store.RoleUser, Text: "What is loam?"},
			{ID: "m2", Role: store.RoleAssistant, Text: "A soil mix."},
		},
	}
	require.NoError(t, history.Save("farmer1", existing))

	conv := newTestConversation(t, gw, history)
	conv.Load("sess-1")
	conv.Send(context.Background(), "And clay?", "", &recordingSink{})

	saved := history.get("farmer1", "sess-1")
	require.NotNil(t, saved)
	assert.Equal(t, "Soil questions", saved.Title)
	assert.Greater(t, saved.Timestamp, int64(1000))
	require.Len(t, saved.Messages, 4)
	assert.Equal(t, "m1", saved.Messages[0].ID)
	assert.Equal(t, "And clay?", saved.Messages[2].Text)

	sessions, _ := history.List("farmer1")
	assert.Len(t, sessions, 1)
}

func TestInitialTitle(t *testing.T) {
	assert.Equal(t, "My tomato leaves are yellow", initialTitle("My tomato leaves are yellow"))
	long := strings.Repeat("a", 45)
	assert.Equal(t, strings.Repeat("a", 30)+"...", initialTitle(long))
	assert.Equal(t, fallbackSessionTitle, initialTitle("  "))
}

func TestImageOnlySendUsesFallbackTitleAndSkipsDerivation(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("Looks like leaf blight.")}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	titleCalled := false
	conv.titleWorker = func(store.ChatSession, string) { titleCalled = true }

	conv.Send(context.Background(), "", testImageURL(), &recordingSink{})

	sessions, _ := history.List("farmer1")
	require.Len(t, sessions, 1)
	assert.Equal(t, fallbackSessionTitle, sessions[0].Title)
	assert.False(t, titleCalled)
	// The attached image rides on the user message.
	assert.NotEmpty(t, sessions[0].Messages[1].Image)
}

func TestStreamFailureFinalizesWithApologyAndPersists(t *testing.T) {
	gw := &fakeGateway{}
	gw.streamFn = func(ctx context.Context, req GenerateRequest, onFragment func(string)) error {
		onFragment("Sorry, I ")
		return fmt.Errorf("upstream quota exceeded")
	}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	sink := &recordingSink{}
	conv.Send(context.Background(), "help me", "", sink)

	final := conv.Transcript()
	require.Len(t, final, 3)
	assert.NotEmpty(t, final[2].Text)
	assert.Contains(t, final[2].Text, "Sorry, I encountered an error")
	require.Len(t, sink.errors, 1)

	// The failed turn is still part of the persisted record.
	sessions, _ := history.List("farmer1")
	require.Len(t, sessions, 1)
	assert.Equal(t, final[2].Text, sessions[0].Messages[2].Text)
}

func TestSaveFailureSurfacesWarningAndKeepsTranscript(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("answer")}
	history := newFakeHistory()
	history.failSave = true
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	sink := &recordingSink{}
	conv.Send(context.Background(), "will this be lost?", "", sink)

	require.Len(t, sink.warnings, 1)
	assert.Contains(t, sink.warnings[0], "lost")
	assert.Empty(t, sink.errors)
	// In-memory transcript remains the source of truth.
	assert.Len(t, conv.Transcript(), 3)
	assert.Nil(t, conv.Session())
}

func TestLoadMissingSessionFallsBackToGreeting(t *testing.T) {
	conv := newTestConversation(t, &fakeGateway{}, newFakeHistory())
	conv.Load("no-such-session")

	transcript := conv.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, store.RoleAssistant, transcript[0].Role)
	assert.Nil(t, conv.Session())
	assert.Equal(t, StateIdle, conv.State())
}

func TestDerivedTitleAppliedToStoreAndBoundSession(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("Try neem oil.")}
	gw.completeFn = func(ctx context.Context, req GenerateRequest) (string, error) {
		return "\"Yellowing Tomato Leaves\"\n", nil
	}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)
	conv.Load("")

	conv.Send(context.Background(), "My tomato leaves are yellow", "", &recordingSink{})
	created := conv.Session()
	require.NotNil(t, created)
	assert.Equal(t, "My tomato leaves are yellow", created.Title)

	conv.deriveTitle(*created, "My tomato leaves are yellow")

	saved := history.get("farmer1", created.ID)
	require.NotNil(t, saved)
	assert.Equal(t, "Yellowing Tomato Leaves", saved.Title)
	require.NotNil(t, conv.Session())
	assert.Equal(t, "Yellowing Tomato Leaves", conv.Session().Title)
}

func TestLateTitleNeverClobbersNewerSession(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("ok")}
	gw.completeFn = func(ctx context.Context, req GenerateRequest) (string, error) {
		return "Wheat Rust Diagnosis", nil
	}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)

	conv.Load("")
	conv.Send(context.Background(), "rust spots on wheat", "", &recordingSink{})
	sessionA := conv.Session()
	require.NotNil(t, sessionA)

	// User starts a fresh conversation; a second session gets created.
	conv.Load("")
	conv.Send(context.Background(), "paddy transplanting time", "", &recordingSink{})
	sessionB := conv.Session()
	require.NotNil(t, sessionB)
	require.NotEqual(t, sessionA.ID, sessionB.ID)

	// Session A's pending title derivation resolves late.
	conv.deriveTitle(*sessionA, "rust spots on wheat")

	savedA := history.get("farmer1", sessionA.ID)
	savedB := history.get("farmer1", sessionB.ID)
	require.NotNil(t, savedA)
	require.NotNil(t, savedB)
	assert.Equal(t, "Wheat Rust Diagnosis", savedA.Title)
	assert.Equal(t, "paddy transplanting time", savedB.Title)
	// The bound (newer) session's in-memory title is untouched.
	assert.Equal(t, "paddy transplanting time", conv.Session().Title)
}

func TestLateTitleSkippedWhenSessionDeleted(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("ok")}
	gw.completeFn = func(ctx context.Context, req GenerateRequest) (string, error) {
		return "Ghost Title", nil
	}
	history := newFakeHistory()
	conv := newTestConversation(t, gw, history)
	conv.Load("")
	conv.Send(context.Background(), "short lived chat", "", &recordingSink{})
	created := conv.Session()
	require.NotNil(t, created)

	require.NoError(t, history.DeleteOne("farmer1", created.ID))
	conv.deriveTitle(*created, "short lived chat")

	// The deleted session is not resurrected by the late title.
	sessions, _ := history.List("farmer1")
	assert.Empty(t, sessions)
}

func TestMessageIDsNeverReused(t *testing.T) {
	gw := &fakeGateway{streamFn: scriptedStream("ok")}
	conv := newTestConversation(t, gw, newFakeHistory())
	conv.Load("")

	for i := 0; i < 3; i++ {
		conv.Send(context.Background(), fmt.Sprintf("q%d", i), "", &recordingSink{})
	}

	seen := make(map[string]bool)
	for _, msg := range conv.Transcript() {
		require.False(t, seen[msg.ID], "duplicate message id %s", msg.ID)
		seen[msg.ID] = true
	}
}
