package qualitygate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldspark/outreach/pkg/ai/llm"
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

func TestScanPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"clean", "Hi Maria, great to meet you.", false},
		{"curly token", "Hi {{first_name}},", true},
		{"bracket token", "I loved [Company] so much", true},
		{"angle token", "reach me at <primaryemail>", true},
		{"br is benign", "line one<br/>line two<br>", false},
		{"bold is benign", "this is <b>important</b>", false},
		{"paragraph is benign", "<p>hello</p>", false},
		{"div is benign", "<div>hello</div>", false},
		{"uppercase benign", "line<BR/>break", false},
		{"span is not benign", "<span>hello</span>", true},
		{"mixed benign and token", "hello<br/>{{name}}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanPlaceholders(tt.text))
		})
	}
}

func TestValidatePlaceholderShortCircuit(t *testing.T) {
	client := &fakeLLM{reply: `{"valid": true, "reason": ""}`}
	gate := NewGate(client, nil)

	err := gate.Validate(context.Background(), Email{
		Subject: "Hello",
		Body:    "Your company [Company] caught my eye",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contains unreplaced placeholders", verr.Reason)
	assert.Equal(t, 0, client.calls, "audit must not run after a placeholder hit")
}

func TestValidateSubjectPlaceholders(t *testing.T) {
	client := &fakeLLM{reply: `{"valid": true, "reason": ""}`}
	gate := NewGate(client, nil)

	err := gate.Validate(context.Background(), Email{
		Subject: "About {{company}}",
		Body:    "All good here.",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contains unreplaced placeholders", verr.Reason)
}

func TestValidateAuditPass(t *testing.T) {
	client := &fakeLLM{reply: `{"valid": true, "reason": ""}`}
	gate := NewGate(client, nil)

	err := gate.Validate(context.Background(), Email{Subject: "Hello", Body: "Clean body.\n\nBest,\nNicolas"})
	assert.NoError(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestValidateAuditReject(t *testing.T) {
	client := &fakeLLM{reply: `{"valid": false, "reason": "abrupt ending"}`}
	gate := NewGate(client, nil)

	err := gate.Validate(context.Background(), Email{Subject: "Hello", Body: "Cheers,"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "AI QA failed: abrupt ending", verr.Reason)
}

func TestValidateAuditFencedJSON(t *testing.T) {
	client := &fakeLLM{reply: "```json\n{\"valid\": false, \"reason\": \"robotic tone\"}\n```"}
	gate := NewGate(client, nil)

	err := gate.Validate(context.Background(), Email{Subject: "Hello", Body: "Clean."})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "AI QA failed: robotic tone", verr.Reason)
}

func TestValidateAuditFailureIsRejection(t *testing.T) {
	t.Run("call failure", func(t *testing.T) {
		gate := NewGate(&fakeLLM{err: errors.New("timeout")}, nil)

		err := gate.Validate(context.Background(), Email{Subject: "Hello", Body: "Clean."})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "QA system error", verr.Reason)
	})

	t.Run("parse failure", func(t *testing.T) {
		gate := NewGate(&fakeLLM{reply: "not json at all"}, nil)

		err := gate.Validate(context.Background(), Email{Subject: "Hello", Body: "Clean."})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "QA system error", verr.Reason)
	})
}
