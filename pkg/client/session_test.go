// pkg/client/session_test.go
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialMessage(t *testing.T) {
	assert.Equal(t,
		"以下の条件でおすすめのお店を教えて\n予算: 3000円\n場所: 指定なし\nジャンル: 居酒屋\nシチュエーション: 指定なし",
		InitialMessage(Preferences{Budget: "3000円", Cuisine: "居酒屋"}),
	)
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name  string
		reply *Reply
		want  string
	}{
		{"recommendation wins", &Reply{Recommendation: "r", Response: "x"}, "r"},
		{"response", &Reply{Response: "x"}, "x"},
		{"empty falls back", &Reply{}, DefaultReplyText},
		{"nil falls back", nil, DefaultReplyText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayText(tt.reply))
		})
	}
}

func TestSession_Transcript(t *testing.T) {
	var bodies []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)

		switch len(bodies) {
		case 1:
			_, _ = w.Write([]byte(`{"recommendation":"やきとり祐天がおすすめやで"}`))
		case 2:
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"AI推薦エラー","code":"PROVIDER_FAILED"}`))
		}
	}))
	defer server.Close()

	s := NewSession(New(Config{BaseURL: server.URL}), Preferences{Location: "祐天寺", Situation: "デート"})
	require.Len(t, s.ID, 36)

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Ask(context.Background(), "他のお店は？"))
	require.Error(t, s.Ask(context.Background(), "もう一軒"))

	msgs := s.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, InitialMessage(s.Preferences), msgs[0].Content)
	assert.Equal(t, "やきとり祐天がおすすめやで", msgs[1].Content)
	assert.Equal(t, "他のお店は？", msgs[2].Content)
	assert.Equal(t, DefaultReplyText, msgs[3].Content)
	assert.Equal(t, SenderAI, msgs[5].Sender)
	assert.Equal(t, AskFailedText, msgs[5].Content)
	assert.Equal(t, AskFailedText, s.LastError())

	assert.Equal(t, s.ID, bodies[0]["sessionId"])
	assert.Equal(t, "祐天寺", bodies[0]["location"])
	assert.NotContains(t, bodies[0], "text")
	assert.Equal(t, "他のお店は？", bodies[1]["text"])
	assert.Equal(t, "祐天寺", bodies[1]["location"])
	assert.Equal(t, "デート", bodies[1]["situation"])
}

func TestSession_OpenWithoutRecommendation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"hmm"}`))
	}))
	defer server.Close()

	s := NewSession(New(Config{BaseURL: server.URL}), Preferences{})
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, NoResponseText, s.Messages()[1].Content)
	assert.Empty(t, s.LastError())
}
