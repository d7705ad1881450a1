/*
Package mapper – client configuration.

Loads connection settings from a YAML file with an optional .env overlay and
builds a real DynamoDB client. Intended for local endpoints and small tools;
production callers usually pass their own client to NewTable.
*/
package mapper

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ClientConfig holds connection settings for NewClient.
type ClientConfig struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Table     string `yaml:"table"`
}

// LoadClientConfig reads a YAML config file. A .env file in the working
// directory, when present, overlays AWS_REGION, AWS_ENDPOINT,
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY into fields the file leaves
// empty.
func LoadClientConfig(path string) (*ClientConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError("Cannot read config file",
			WithCode(ErrArgument), WithCause(err))
	}
	var cfg ClientConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, NewError("Cannot parse config file",
			WithCode(ErrArgument), WithCause(err))
	}
	_ = godotenv.Load()
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("AWS_ENDPOINT")
	}
	if cfg.AccessKey == "" {
		cfg.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	return &cfg, nil
}

// NewClient builds a DynamoDB client from cfg. Static credentials and a base
// endpoint are applied when configured, which is the shape local DynamoDB
// containers expect.
func NewClient(ctx context.Context, cfg *ClientConfig) (*ddb.Client, error) {
	if cfg == nil {
		return nil, NewArgError("Missing client config")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return ddb.NewFromConfig(awsCfg, func(o *ddb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
