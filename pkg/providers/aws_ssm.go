package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// API keys stored as AWS Systems Manager parameters, so sweeps running on AWS
// never keep them in the configuration file. SecureString parameters are read
// with decryption; a parameter referenced by both keys is fetched once.
type SSMProvider struct {
	Client SSMClient
}

type SSMClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

func NewSSMProvider() *SSMProvider {
	return &SSMProvider{}
}

// GetParameters accepts at most 10 names per call
const ssmBatchSize = 10

func (p *SSMProvider) Read(ctx context.Context, secrets map[string]string) (map[string]string, error) {
	err := p.configure(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	params := []string{}
	paramNames := map[string][]string{}
	for name, param := range secrets {
		if _, seen := paramNames[param]; !seen {
			params = append(params, param)
		}
		paramNames[param] = append(paramNames[param], name)
	}

	result := map[string]string{}
	for i := 0; i < len(params); i += ssmBatchSize {
		end := min(i+ssmBatchSize, len(params))
		log.Debug().Int("parameters", end-i).Msg("reading api keys from ssm")
		resp, err := p.Client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          params[i:end],
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("get ssm parameters: %w", err)
		}
		if len(resp.InvalidParameters) > 0 {
			log.Warn().Strs("parameters", resp.InvalidParameters).Msg("ssm parameters not found, their keys stay empty")
		}
		for _, param := range resp.Parameters {
			if param.Name != nil && param.Value != nil {
				for _, name := range paramNames[*param.Name] {
					result[name] = *param.Value
				}
			}
		}
	}

	return result, nil
}

func (p *SSMProvider) configure(ctx context.Context) error {
	if p.Client != nil {
		return nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	p.Client = ssm.NewFromConfig(cfg)
	return nil
}
