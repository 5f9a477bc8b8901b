package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const bedrockPrompt = `You triage WhatsApp replies about clinic appointments. Classify the patient message into ONE intent. Respond with JSON only.

Intents:
- confirm: the patient confirms they will attend
- reschedule: the patient wants a different date or time
- cancel: the patient wants to cancel
- inquiry: a question about the appointment or the clinic
- unclear: anything else

Appointment context: %s
Patient message: %s

Respond with: {"intent": "<label>", "confidence": <0..1>, "summary": "<one line>", "needs_human": <bool>}`

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClassifier classifies intents with a Bedrock-hosted model. It is an
// alternative to the HTTP capability, selected by configuration.
type BedrockClassifier struct {
	api     bedrockConverseAPI
	modelID string
}

// NewBedrockClassifier creates a Bedrock-backed classifier.
func NewBedrockClassifier(api bedrockConverseAPI, modelID string) (*BedrockClassifier, error) {
	if api == nil {
		return nil, errors.New("intent: bedrock client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("intent: bedrock model id is required")
	}
	return &BedrockClassifier{api: api, modelID: modelID}, nil
}

// Classify prompts the model and parses its JSON answer.
func (c *BedrockClassifier) Classify(ctx context.Context, message string, appt AppointmentContext) (Result, error) {
	contextJSON, err := json.Marshal(appt)
	if err != nil {
		return Result{}, fmt.Errorf("intent: encode context: %w", err)
	}
	prompt := fmt.Sprintf(bedrockPrompt, string(contextJSON), message)

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []brtypes.Message{{
			Role: brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: prompt},
			},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(200),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent: bedrock converse: %w", err)
	}

	text := converseText(out)
	result, err := parseModelJSON(text)
	if err != nil {
		return Result{}, err
	}
	result.Source = "bedrock"
	return result, nil
}

func converseText(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	return b.String()
}

// parseModelJSON extracts the JSON object from model output that may carry
// extra prose around it.
func parseModelJSON(content string) (Result, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("intent: no JSON in model output")
	}
	var result Result
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return Result{}, fmt.Errorf("intent: decode model output: %w", err)
	}
	result.Intent = strings.ToLower(strings.TrimSpace(result.Intent))
	if !validIntent(result.Intent) {
		return Result{}, fmt.Errorf("intent: model returned unknown label %q", result.Intent)
	}
	return result, nil
}
