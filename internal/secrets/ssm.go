package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// DefaultParameter is the Parameter Store entry holding the key bundle
const DefaultParameter = "/cm-backend/dev/keys"

// SSMAPI is the subset of the SSM client the provider uses
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMProvider reads a JSON SecureString parameter
type SSMProvider struct {
	client SSMAPI
	name   string
}

// NewSSMProvider creates a provider for the named parameter
func NewSSMProvider(client SSMAPI, name string) *SSMProvider {
	if name == "" {
		name = DefaultParameter
	}
	return &SSMProvider{client: client, name: name}
}

// Credentials implements Provider
func (p *SSMProvider) Credentials(ctx context.Context) (Credentials, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("get parameter %s: %w", p.name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return Credentials{}, fmt.Errorf("%w: parameter %s has no value", ErrMissingCredentials, p.name)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(aws.ToString(out.Parameter.Value)), &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode parameter %s: %w", p.name, err)
	}
	return creds, nil
}
