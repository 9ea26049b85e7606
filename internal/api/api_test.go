package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companionlabs/companion/internal/auth"
	"github.com/companionlabs/companion/internal/chat"
	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/memory"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/profile"
	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/store/sqlite"
	"github.com/companionlabs/companion/internal/summary"
)

type scriptedCompleter struct{ reply string }

func (s *scriptedCompleter) Complete(context.Context, llm.Request) (string, error) {
	return s.reply, nil
}

type scriptedDescriber struct {
	description string
	err         error
}

func (s *scriptedDescriber) Describe(context.Context, []byte, string, string) (string, error) {
	return s.description, s.err
}

type testEnv struct {
	server *httptest.Server
	store  store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := sqlite.NewWithDB(db)

	log := zerolog.Nop()
	profiles := profile.NewAssembler(s, log)
	orch := chat.NewOrchestrator(
		s,
		&scriptedCompleter{reply: "Good to hear from you, friend!"},
		memory.NewExtractor(&scriptedCompleter{reply: `{"memories":[]}`}, s.Facts(), "extract-model", log),
		profiles,
		summary.NewSummarizer(&scriptedCompleter{reply: `{"summary":"s","key_topics":["t"],"emotional_tone":"calm"}`}, s, "summary-model", log),
		summary.PolicyFunc(func() bool { return false }),
		chat.NewSegmenter(rand.New(rand.NewSource(1))),
		"chat-model",
		log,
	)

	router := NewRouter(Deps{
		Store:      s,
		Orch:       orch,
		Profiles:   profiles,
		Describer:  &scriptedDescriber{description: "a dog on a beach"},
		Authorizer: auth.NewLocalDevAuthorizer(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// the dev principal needs a user row for chat flows
	_, err = s.Users().Create(context.Background(), &model.User{
		UserID:   auth.LocalDevUserID,
		Username: "dev",
		Email:    "dev@example.com",
	})
	require.NoError(t, err)

	return &testEnv{server: server, store: s}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, authorized bool) *http.Response {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, payload)
	require.NoError(t, err)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+auth.LocalDevAPIKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v0/health", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingKeyIsRejected(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "GET", "/v0/memories", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUserLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/v0/users", map[string]string{
		"userId": "alex", "username": "Alex", "email": "alex@example.com",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/users/alex", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u model.User
	decode(t, resp, &u)
	assert.Equal(t, "Alex", u.Username)

	resp = env.do(t, "DELETE", "/v0/users/alex", nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/users/alex", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserValidation(t *testing.T) {
	env := newTestEnv(t)
	for name, body := range map[string]map[string]string{
		"bad_user_id": {"userId": "Not Valid!", "username": "x", "email": "x@example.com"},
		"bad_email":   {"userId": "ok_id", "username": "x", "email": "not-an-email"},
		"no_username": {"userId": "ok_id", "email": "x@example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := env.do(t, "POST", "/v0/users", body, true)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestChatRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/v0/chat", map[string]string{
		"message": "Feeling really happy about the new job!",
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		Response      string   `json:"response"`
		Segments      []string `json:"segments"`
		Mood          string   `json:"mood"`
		SafeSpaceMode bool     `json:"safe_space_mode"`
		MemoryUsed    bool     `json:"memory_used"`
	}
	decode(t, resp, &res)
	assert.Equal(t, "Good to hear from you, friend!", res.Response)
	assert.Equal(t, "happy", res.Mood)
	assert.False(t, res.SafeSpaceMode)
	assert.NotEmpty(t, res.Segments)

	resp = env.do(t, "GET", "/v0/chat/history", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist struct {
		Turns []model.Turn `json:"turns"`
		Count int          `json:"count"`
	}
	decode(t, resp, &hist)
	require.Equal(t, 2, hist.Count)
	assert.Equal(t, model.RoleUser, hist.Turns[0].Role)
	assert.Equal(t, model.RoleAssistant, hist.Turns[1].Role)

	resp = env.do(t, "POST", "/v0/chat/history/clear", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/chat/history", nil, true)
	decode(t, resp, &hist)
	assert.Equal(t, 0, hist.Count)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, "POST", "/v0/chat", map[string]string{"message": "  "}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMemoriesListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fact, err := env.store.Facts().Create(ctx, &model.Fact{
		UserID:     auth.LocalDevUserID,
		Type:       model.FactPreference,
		Content:    "loves hiking on weekends",
		Importance: 6,
	})
	require.NoError(t, err)

	resp := env.do(t, "GET", "/v0/memories", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Memories []model.Fact `json:"memories"`
		Count    int          `json:"count"`
	}
	decode(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "loves hiking on weekends", list.Memories[0].Content)

	resp = env.do(t, "DELETE", "/v0/memories/"+fact.FactID, nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, "DELETE", "/v0/memories/"+fact.FactID, nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/v0/profile", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	decode(t, resp, &out)
	assert.NotEmpty(t, out["profile"])
}

func TestJournalLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/v0/journal", map[string]string{
		"title": "today", "content": "a nice long walk", "mood": "happy",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry model.JournalEntry
	decode(t, resp, &entry)
	require.NotEmpty(t, entry.EntryID)

	resp = env.do(t, "POST", "/v0/journal", map[string]string{"title": "no content"}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "POST", "/v0/journal", map[string]string{
		"title": "odd", "content": "mood outside the known set", "mood": "ecstatic",
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/journal", nil, true)
	var list struct {
		Entries []model.JournalEntry `json:"entries"`
		Count   int                  `json:"count"`
	}
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Count)

	resp = env.do(t, "DELETE", "/v0/journal/"+entry.EntryID, nil, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestReminderValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/v0/reminders", map[string]string{
		"title": "dentist", "date": "2026-09-15", "time": "09:30",
	}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", "/v0/reminders", map[string]string{
		"title": "bad", "date": "next tuesday", "time": "09:30",
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, "GET", "/v0/reminders", nil, true)
	var list struct {
		Reminders []model.Reminder `json:"reminders"`
		Count     int              `json:"count"`
	}
	decode(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.True(t, list.Reminders[0].Active)
}

func TestMediaDescribe(t *testing.T) {
	env := newTestEnv(t)

	payload := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))
	resp := env.do(t, "POST", "/v0/media/describe", map[string]string{
		"data": payload, "mime_type": "image/jpeg", "kind": "image",
	}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	decode(t, resp, &out)
	assert.Equal(t, "a dog on a beach", out["description"])

	resp = env.do(t, "POST", "/v0/media/describe", map[string]string{
		"data": "not-base64!!", "mime_type": "image/jpeg",
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMediaDescribeFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)

	// rebuild router with a failing describer
	router := NewRouter(Deps{
		Store:      env.store,
		Describer:  &scriptedDescriber{err: errors.New("no description")},
		Authorizer: auth.NewLocalDevAuthorizer(),
	})
	server := httptest.NewServer(router)
	defer server.Close()

	payload := base64.StdEncoding.EncodeToString([]byte("fake"))
	raw, _ := json.Marshal(map[string]string{"data": payload, "mime_type": "image/jpeg"})
	req, err := http.NewRequest("POST", server.URL+"/v0/media/describe", bytes.NewBuffer(raw))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+auth.LocalDevAPIKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPanicRecovery(t *testing.T) {
	env := newTestEnv(t)
	_ = env // the recovery middleware is registered globally

	router := NewRouter(Deps{
		Store:      env.store,
		Authorizer: auth.NewLocalDevAuthorizer(),
	})
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(fmt.Sprintf("%s/boom", server.URL))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
