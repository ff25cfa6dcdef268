package codex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// SDKClient is the production Client backed by the OpenAI responses API. A
// thread is the chain of response ids: each turn carries the previous
// response id, and the thread id reported to callers is the latest id in
// the chain.
type SDKClient struct {
	api openai.Client
}

// NewSDKClient constructs the production client. Construction fails when no
// credential is available; the failure carries the AUTH_ERROR code so it
// classifies cleanly.
func NewSDKClient() (*SDKClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, review.E(review.CodeAuthError,
			"OPENAI_API_KEY is not set")
	}

	return &SDKClient{
		api: openai.NewClient(option.WithAPIKey(key)),
	}, nil
}

// StartThread implements Client.
func (c *SDKClient) StartThread(opts ThreadOptions) (Thread, error) {
	return &sdkThread{client: c, opts: opts}, nil
}

// ResumeThread implements Client. The responses API validates the previous
// response id lazily, so a stale id surfaces on the first Run; sdkThread
// maps that failure to SESSION_NOT_FOUND.
func (c *SDKClient) ResumeThread(id string, opts ThreadOptions) (Thread,
	error) {

	if id == "" {
		return nil, review.E(review.CodeSessionNotFound,
			"empty session id")
	}

	return &sdkThread{client: c, opts: opts, id: id, resumed: true}, nil
}

// sdkThread is one reviewer conversation over the responses API.
type sdkThread struct {
	client *SDKClient
	opts   ThreadOptions

	// id is the latest response id in the chain; it doubles as the
	// previous_response_id for the next turn.
	id string

	// resumed marks threads attached to a caller-supplied id, so a
	// missing-id failure on the first turn maps to SESSION_NOT_FOUND
	// rather than a generic upstream error.
	resumed bool
}

// ID implements Thread.
func (t *sdkThread) ID() string {
	return t.id
}

// Run implements Thread.
func (t *sdkThread) Run(ctx context.Context, prompt string,
	outputSchema *jsonschema.Schema) (string, error) {

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(t.opts.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
		Metadata: shared.Metadata{
			"sandbox_mode":        t.opts.SandboxMode,
			"skip_git_repo_check": fmt.Sprint(t.opts.SkipGitRepoCheck),
		},
	}

	if t.opts.ReasoningEffort != "" {
		params.Reasoning = shared.ReasoningParam{
			Effort: shared.ReasoningEffort(t.opts.ReasoningEffort),
		}
	}

	if outputSchema != nil {
		schemaMap, err := schemaToMap(outputSchema)
		if err != nil {
			return "", fmt.Errorf("encode output schema: %w", err)
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   "review_result",
					Schema: schemaMap,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	if t.id != "" {
		params.PreviousResponseID = openai.String(t.id)
	}

	resp, err := t.client.api.Responses.New(ctx, params)
	if err != nil {
		return "", t.mapRunError(err)
	}

	t.id = resp.ID
	t.resumed = false

	return resp.OutputText(), nil
}

// mapRunError gives resume failures their distinct code; everything else
// passes through for the caller to classify.
func (t *sdkThread) mapRunError(err error) error {
	var apierr *openai.Error
	if t.resumed && errors.As(err, &apierr) &&
		apierr.StatusCode == 404 {

		return review.E(review.CodeSessionNotFound,
			"no reviewer thread with session id %q", t.id)
	}
	return err
}

// schemaToMap flattens a jsonschema into the loose map shape the responses
// API accepts.
func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
