package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
)

// secretGetter is the subset of the Secrets Manager client used here.
type secretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerResolver resolves awssm://[region/]name[#key] from AWS
// Secrets Manager. With #key the secret string is decoded as a JSON object
// and that field is returned.
type AWSSecretsManagerResolver struct {
	// newClient builds a client for region ("" means the default chain's
	// region); replaced in tests.
	newClient func(ctx context.Context, region string) (secretGetter, error)
}

// Scheme returns "awssm".
func (r *AWSSecretsManagerResolver) Scheme() string {
	return "awssm"
}

// awsRegion matches region names such as us-east-1 or us-gov-west-1.
var awsRegion = regexp.MustCompile(`^[a-z]{2}(-gov|-iso[a-z]?)?-[a-z]+-\d+$`)

type smReference struct {
	region string
	name   string
	key    string
}

func parseSMReference(ref string) (smReference, error) {
	rest, ok := strings.CutPrefix(ref, "awssm://")
	if !ok {
		return smReference{}, &InvalidReferenceError{Reference: ref, Reason: "expected awssm:// scheme"}
	}
	var out smReference
	rest, out.key, _ = strings.Cut(rest, "#")
	if first, remainder, found := strings.Cut(rest, "/"); found && awsRegion.MatchString(first) {
		out.region = first
		rest = remainder
	}
	out.name = rest
	if out.name == "" {
		return smReference{}, &InvalidReferenceError{Reference: ref, Reason: "secret name is empty"}
	}
	return out, nil
}

// Resolve fetches the current version of the secret.
func (r *AWSSecretsManagerResolver) Resolve(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref, err := parseSMReference(reference)
	if err != nil {
		return "", err
	}

	newClient := r.newClient
	if newClient == nil {
		newClient = defaultSMClient
	}
	client, err := newClient(ctx, ref.region)
	if err != nil {
		return "", &BackendError{
			Backend:   "AWS Secrets Manager",
			Reference: reference,
			Reason:    fmt.Sprintf("loading AWS config: %v", err),
			Fix:       "Configure credentials:\n  aws configure\n  Or set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY\n  Or run: aws sso login",
		}
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref.name),
	})
	if err != nil {
		return "", smError(err, reference, ref.name)
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case out.SecretBinary != nil:
		value = string(out.SecretBinary)
	}
	if ref.key == "" {
		return strings.TrimSpace(value), nil
	}
	return jsonField(value, ref.key, reference)
}

func defaultSMClient(ctx context.Context, region string) (secretGetter, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func jsonField(value, key, reference string) (string, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return "", &InvalidReferenceError{Reference: reference, Reason: "secret is not a JSON object, cannot select #" + key}
	}
	v, ok := fields[key]
	if !ok {
		return "", &NotFoundError{Reference: reference, Backend: "AWS Secrets Manager"}
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// smError maps SDK errors to typed errors with a suggested fix.
func smError(err error, reference, name string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &NotFoundError{Reference: reference, Backend: "AWS Secrets Manager"}
	}
	var decrypt *types.DecryptionFailure
	if errors.As(err, &decrypt) {
		return &BackendError{
			Backend:   "AWS Secrets Manager",
			Reference: reference,
			Reason:    "secret could not be decrypted",
			Fix:       "Check kms:Decrypt permissions on the secret's KMS key.",
		}
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException":
			return &BackendError{
				Backend:   "AWS Secrets Manager",
				Reference: reference,
				Reason:    "access denied",
				Fix:       "Check IAM permissions for secretsmanager:GetSecretValue on " + name,
			}
		case "ExpiredToken", "ExpiredTokenException":
			return &BackendError{
				Backend:   "AWS Secrets Manager",
				Reference: reference,
				Reason:    "AWS credentials expired",
				Fix:       "Run: aws sso login\nOr refresh your credentials.",
			}
		}
	}
	return &BackendError{
		Backend:   "AWS Secrets Manager",
		Reference: reference,
		Reason:    err.Error(),
	}
}

func init() {
	Register(&AWSSecretsManagerResolver{})
}
