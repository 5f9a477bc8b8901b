package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type fakeConverseAPI struct {
	lastInput *bedrockruntime.ConverseInput
	text      string
	err       error
}

func (f *fakeConverseAPI) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: f.text},
				},
			},
		},
	}, nil
}

func TestBedrockClassifierSuccess(t *testing.T) {
	api := &fakeConverseAPI{text: `{"intent": "cancel", "confidence": 0.88, "summary": "patient cancels", "needs_human": true}`}
	c, err := NewBedrockClassifier(api, "anthropic.claude-3-haiku-20240307-v1:0")
	if err != nil {
		t.Fatalf("NewBedrockClassifier: %v", err)
	}

	res, err := c.Classify(context.Background(), "please cancel my appointment", AppointmentContext{Date: "2026-02-18"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Intent != IntentCancel || res.Confidence != 0.88 || !res.NeedsHuman {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Source != "bedrock" {
		t.Errorf("source = %q", res.Source)
	}

	if api.lastInput == nil || api.lastInput.ModelId == nil {
		t.Fatal("expected model id on request")
	}
	block, ok := api.lastInput.Messages[0].Content[0].(*brtypes.ContentBlockMemberText)
	if !ok {
		t.Fatal("expected text content block")
	}
	if !strings.Contains(block.Value, "please cancel my appointment") || !strings.Contains(block.Value, "2026-02-18") {
		t.Errorf("prompt missing message or context: %s", block.Value)
	}
}

func TestBedrockClassifierStripsSurroundingProse(t *testing.T) {
	api := &fakeConverseAPI{text: "Here is my answer:\n{\"intent\": \"confirm\", \"confidence\": 0.95}\nHope that helps."}
	c, _ := NewBedrockClassifier(api, "model-id")

	res, err := c.Classify(context.Background(), "yes", AppointmentContext{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Intent != IntentConfirm {
		t.Errorf("intent = %q", res.Intent)
	}
}

func TestBedrockClassifierAPIError(t *testing.T) {
	api := &fakeConverseAPI{err: errors.New("throttled")}
	c, _ := NewBedrockClassifier(api, "model-id")

	if _, err := c.Classify(context.Background(), "yes", AppointmentContext{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBedrockClassifierRejectsUnknownLabel(t *testing.T) {
	api := &fakeConverseAPI{text: `{"intent": "party", "confidence": 1}`}
	c, _ := NewBedrockClassifier(api, "model-id")

	if _, err := c.Classify(context.Background(), "yes", AppointmentContext{}); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestNewBedrockClassifierValidation(t *testing.T) {
	if _, err := NewBedrockClassifier(nil, "model-id"); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewBedrockClassifier(&fakeConverseAPI{}, " "); err == nil {
		t.Fatal("expected error for empty model id")
	}
}
