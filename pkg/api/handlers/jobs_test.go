package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldspark/outreach/pkg/ai/llm"
	"github.com/coldspark/outreach/pkg/dispatch"
	"github.com/coldspark/outreach/pkg/mailer"
	"github.com/coldspark/outreach/pkg/models"
	"github.com/coldspark/outreach/pkg/personalize"
	"github.com/coldspark/outreach/pkg/qualitygate"
	"github.com/coldspark/outreach/pkg/secrets"
	"github.com/coldspark/outreach/pkg/store/memory"
	"github.com/coldspark/outreach/pkg/warmup"
)

type fakeLLM struct{ reply string }

func (f *fakeLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Message: f.reply}, nil
}

func (f *fakeLLM) ChatJSON(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return f.Chat(ctx, req)
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	return f.reply, nil
}

type fakeTransport struct {
	sent []mailer.Message
}

func (f *fakeTransport) Send(ctx context.Context, server mailer.Server, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newJobsHandler(t *testing.T) (*JobsHandler, *memory.Store, *fakeTransport) {
	t.Helper()
	t.Setenv("TEST_CREDENTIAL_KEY", "unit-test-key")

	cipher, err := secrets.NewCipher(context.Background(), secrets.NewEnvManager(secrets.DefaultConfig()), "TEST_CREDENTIAL_KEY")
	require.NoError(t, err)

	store := memory.New()
	transport := &fakeTransport{}
	client := &fakeLLM{reply: `{"valid": true, "reason": ""}`}

	now := func() time.Time { return testNow }
	rng := rand.New(rand.NewSource(1))

	dispatcher := dispatch.New(dispatch.Stores{
		Schedules: store,
		Leads:     store,
		Progress:  store,
		SentMail:  store,
	},
		personalize.NewEngine(client, store, nil),
		qualitygate.NewGate(client, nil),
		transport, cipher,
		dispatch.Options{Now: now, Rand: rng})

	controller := warmup.New(store, store, transport, cipher, warmup.Options{
		Recipients: []string{"peer1@example.com", "peer2@example.com"},
		Now:        now,
		Rand:       rng,
	})

	// one dispatchable campaign and one warm-up candidate
	encrypted, err := cipher.Encrypt("smtp-pass")
	require.NoError(t, err)

	store.PutCampaign(models.Campaign{ID: 1, Name: "Spring Launch", Status: models.CampaignInProgress})
	store.PutTemplate(models.Template{ID: 1, CampaignID: 1, Subject: "Hello", Content: "Hi {{first_name}}.\n\nBest,\nNicolas"})
	store.PutSchedule(models.Schedule{
		ID: 1, CampaignID: 1, TemplateID: 1,
		Status:    models.ScheduleScheduled,
		StartDate: testNow.Add(-time.Hour),
		EndDate:   testNow.Add(time.Hour),
	})
	store.PutAccount(models.EmailAccount{
		ID: 1, Email: "sender1@example.com", Name: "Nicolas",
		SMTPHost: "smtp.example.com", SMTPPort: 587,
		EncryptedPassword: encrypted,
		WarmupEnabled:     true, WarmupStatus: models.WarmupEnabled,
		WarmupDailyLimit: 10, WarmupIncrease: 2,
	})
	store.AssignScheduleAccount(models.ScheduleAccount{ScheduleID: 1, AccountID: 1})
	for i := 1; i <= 3; i++ {
		store.PutLead(models.Lead{ID: i, CampaignID: 1, Name: "Maria Gonzalez", Email: "lead@example.com"})
	}

	return NewJobsHandler(dispatcher, controller), store, transport
}

func doRequest(handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)
	return rec
}

func TestTriggerDispatchHandler(t *testing.T) {
	h, _, transport := newJobsHandler(t)

	rec := doRequest(h.TriggerDispatchHandler, http.MethodPost, "/api/v1/jobs/dispatch", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary dispatch.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Sent)
	assert.Len(t, transport.sent, 3)
}

func TestTriggerDispatchHandlerWithLimit(t *testing.T) {
	h, _, transport := newJobsHandler(t)

	rec := doRequest(h.TriggerDispatchHandler, http.MethodPost, "/api/v1/jobs/dispatch", `{"limit": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary dispatch.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Sent)
	assert.Len(t, transport.sent, 2)
}

func TestTriggerDispatchHandlerRejectsBadLimit(t *testing.T) {
	h, _, transport := newJobsHandler(t)

	for _, body := range []string{`{"limit": -1}`, `{"limit": 100}`, `{"limit": "five"}`} {
		rec := doRequest(h.TriggerDispatchHandler, http.MethodPost, "/api/v1/jobs/dispatch", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Empty(t, transport.sent)
}

func TestTriggerWarmupHandler(t *testing.T) {
	h, store, transport := newJobsHandler(t)

	rec := doRequest(h.TriggerWarmupHandler, http.MethodPost, "/api/v1/jobs/warmup", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary warmup.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "Warmup email 1", transport.sent[0].Subject)

	assert.Equal(t, 1, store.Warmup(1, models.WarmupDate(testNow)).EmailsSent)
}
