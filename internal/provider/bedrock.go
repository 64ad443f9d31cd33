package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/mindrender/mindrender/internal/model"
)

// Bedrock calls a model hosted on AWS Bedrock via the Converse API.
type Bedrock struct {
	Model  string
	client *bedrockruntime.Client
}

// BedrockConfig holds construction parameters. Static credentials are
// optional; when empty the default AWS credential chain is used.
type BedrockConfig struct {
	Region    string
	Model     string
	AccessKey string
	SecretKey string
}

// NewBedrock creates a Bedrock provider.
func NewBedrock(ctx context.Context, cfg BedrockConfig) (*Bedrock, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Bedrock{
		Model:  cfg.Model,
		client: bedrockruntime.NewFromConfig(awsCfg),
	}, nil
}

// Complete sends one Converse request.
func (b *Bedrock) Complete(ctx context.Context, req Request) (*Reply, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.Model),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(req.MaxTokens)),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}

	out, err := b.client.Converse(ctx, input)
	if err != nil {
		var throttled *types.ThrottlingException
		if errors.As(err, &throttled) {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, &model.TransportError{Err: err}
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return nil, &model.ExtractionError{Missing: []string{"reply text"}}
	}

	var text string
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			text += t.Value
		}
	}

	usage := model.Usage{}
	if out.Usage != nil {
		usage.InputTokens = int(aws.ToInt32(out.Usage.InputTokens))
		usage.OutputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
	}

	return &Reply{Text: text, Usage: usage}, nil
}
