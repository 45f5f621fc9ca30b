// pkg/client/session.go
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Transcript texts shown by the chat client.
const (
	PendingText      = "ちょっと待ってな..."
	NoResponseText   = "応答がありません。"
	DefaultReplyText = "その質問はちょっとわからんけど、他に何か答えるで！"

	OpenFailedText = "レストランの推薦取得に失敗しました。もう一度お試しください。"
	AskFailedText  = "AI応答の生成に失敗しました。もう一度お試しください。"

	unspecified = "指定なし"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type Message struct {
	ID      int
	Content string
	Sender  Sender
}

// Session is one chat session and its transcript.
type Session struct {
	ID          string
	Preferences Preferences

	client *Client
	mu     sync.Mutex
	msgs   []Message
	err    string
}

// NewSession starts a session with a fresh client-side id.
func NewSession(c *Client, prefs Preferences) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Preferences: prefs,
		client:      c,
	}
}

// InitialMessage renders the user message that opens a session.
func InitialMessage(p Preferences) string {
	return fmt.Sprintf("以下の条件でおすすめのお店を教えて\n予算: %s\n場所: %s\nジャンル: %s\nシチュエーション: %s",
		orUnspecified(p.Budget), orUnspecified(p.Location), orUnspecified(p.Cuisine), orUnspecified(p.Situation))
}

// Open sends the structured opening turn and fills in the first AI message.
func (s *Session) Open(ctx context.Context) error {
	aiID := s.appendPair(InitialMessage(s.Preferences))

	reply, err := s.client.Recommend(ctx, s.ID, s.Preferences)
	if err != nil {
		s.fail(aiID, OpenFailedText)
		return err
	}
	text := reply.Recommendation
	if text == "" {
		text = NoResponseText
	}
	s.resolve(aiID, text)
	return nil
}

// Ask sends a follow-up message and fills in the AI reply.
func (s *Session) Ask(ctx context.Context, text string) error {
	aiID := s.appendPair(text)

	reply, err := s.client.Ask(ctx, s.ID, text, s.Preferences.Location, s.Preferences.Situation)
	if err != nil {
		s.fail(aiID, AskFailedText)
		return err
	}
	s.resolve(aiID, DisplayText(reply))
	return nil
}

// DisplayText picks the text shown for a follow-up reply.
func DisplayText(r *Reply) string {
	switch {
	case r == nil:
		return DefaultReplyText
	case r.Recommendation != "":
		return r.Recommendation
	case r.Response != "":
		return r.Response
	default:
		return DefaultReplyText
	}
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// LastError is the apology shown under the transcript, if any.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) appendPair(userText string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
	n := len(s.msgs)
	s.msgs = append(s.msgs,
		Message{ID: n + 1, Content: userText, Sender: SenderUser},
		Message{ID: n + 2, Content: PendingText, Sender: SenderAI},
	)
	return n + 2
}

func (s *Session) resolve(id int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs[i].Content = text
		}
	}
}

// fail shows the apology in place of the pending AI message.
func (s *Session) fail(id int, apology string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs[i].Content = apology
		}
	}
	s.err = apology
}

func orUnspecified(v string) string {
	if v == "" {
		return unspecified
	}
	return v
}
