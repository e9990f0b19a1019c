package personalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldspark/outreach/pkg/ai/llm"
	"github.com/coldspark/outreach/pkg/models"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Message: f.reply}, nil
}

func (f *fakeLLM) ChatJSON(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return f.Chat(ctx, req)
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	resp, err := f.Chat(ctx, llm.ChatRequest{})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

type fakeLeadStore struct {
	saved   map[int]string
	cleared []int
	saveErr error
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{saved: make(map[int]string)}
}

func (f *fakeLeadStore) PendingLeads(ctx context.Context, campaignID, limit int, includeFailed bool) ([]models.Lead, error) {
	return nil, nil
}

func (f *fakeLeadStore) AssignAccount(ctx context.Context, campaignID, leadID, accountID int) error {
	return nil
}

func (f *fakeLeadStore) SavePersonalization(ctx context.Context, leadID int, body string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[leadID] = body
	return nil
}

func (f *fakeLeadStore) ClearPersonalization(ctx context.Context, leadID int) error {
	f.cleared = append(f.cleared, leadID)
	return nil
}

var testTemplate = models.Template{
	ID:      1,
	Subject: "Quick question",
	Content: "Hi {{first_name}}, checking in about {{company}}.",
}

func TestComposeUsesCachedBody(t *testing.T) {
	client := &fakeLLM{reply: "should not be called"}
	store := newFakeLeadStore()
	engine := NewEngine(client, store, nil)

	lead := models.Lead{ID: 7, PersonalizedEmail: "cached body", Summary: "has notes too"}

	body, personalized := engine.Compose(context.Background(), lead, testTemplate)

	assert.True(t, personalized)
	assert.True(t, strings.HasPrefix(body, "cached body"))
	assert.Contains(t, body, "{{sender_name}}", "signature block appended to personalized bodies")
	assert.Equal(t, 0, client.calls, "cached body must not trigger generation")
}

func TestComposeGeneratesFromSummary(t *testing.T) {
	client := &fakeLLM{reply: "  generated body  "}
	store := newFakeLeadStore()
	engine := NewEngine(client, store, nil)

	lead := models.Lead{ID: 7, Summary: "loves espresso machines"}

	body, personalized := engine.Compose(context.Background(), lead, testTemplate)

	require.True(t, personalized)
	assert.True(t, strings.HasPrefix(body, "generated body"), "generated text is trimmed")
	assert.Contains(t, body, "{{sender_email}}")
	assert.Equal(t, "generated body", store.saved[7], "generated body is cached on the lead")
}

func TestComposeFallsBackOnGenerationFailure(t *testing.T) {
	client := &fakeLLM{err: errors.New("upstream down")}
	store := newFakeLeadStore()
	engine := NewEngine(client, store, nil)

	lead := models.Lead{ID: 7, Summary: "loves espresso machines"}

	body, personalized := engine.Compose(context.Background(), lead, testTemplate)

	assert.False(t, personalized)
	assert.Equal(t, testTemplate.Content, body)
	assert.NotContains(t, body, "{{sender_name}}", "template fallback keeps its own sign-off")
	assert.Empty(t, store.saved)
}

func TestComposePlainTemplateWithoutSummary(t *testing.T) {
	client := &fakeLLM{reply: "should not be called"}
	store := newFakeLeadStore()
	engine := NewEngine(client, store, nil)

	body, personalized := engine.Compose(context.Background(), models.Lead{ID: 7}, testTemplate)

	assert.False(t, personalized)
	assert.Equal(t, testTemplate.Content, body)
	assert.Equal(t, 0, client.calls)
}

func TestComposeSurvivesCacheWriteFailure(t *testing.T) {
	client := &fakeLLM{reply: "generated body"}
	store := newFakeLeadStore()
	store.saveErr = errors.New("store down")
	engine := NewEngine(client, store, nil)

	lead := models.Lead{ID: 7, Summary: "notes"}

	body, personalized := engine.Compose(context.Background(), lead, testTemplate)

	assert.True(t, personalized)
	assert.Contains(t, body, "generated body")
}
