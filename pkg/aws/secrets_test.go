package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
)

type fakeSecretsAPI struct {
	value string
	err   error
	calls int
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String(f.value)}, nil
}

func newTestSecretsClient(api secretsAPI, now func() time.Time) *SecretsClient {
	return &SecretsClient{
		client: api,
		ttl:    secretCacheTTL,
		now:    now,
		cache:  make(map[string]cachedSecret),
	}
}

func TestGetSecretCachesWithinTTL(t *testing.T) {
	api := &fakeSecretsAPI{value: `{"JWT_SECRET":"abc"}`}
	c := newTestSecretsClient(api, time.Now)

	for i := 0; i < 3; i++ {
		v, err := c.GetSecret(context.Background(), "checkout/APP_SECRETS")
		assert.NoError(t, err)
		assert.Equal(t, `{"JWT_SECRET":"abc"}`, v)
	}
	assert.Equal(t, 1, api.calls)
}

func TestGetSecretRefetchesAfterTTL(t *testing.T) {
	api := &fakeSecretsAPI{value: "v1"}
	now := time.Now()
	c := newTestSecretsClient(api, func() time.Time { return now })

	_, err := c.GetSecret(context.Background(), "checkout/APP_SECRETS")
	assert.NoError(t, err)

	api.value = "v2"
	now = now.Add(secretCacheTTL + time.Second)

	v, err := c.GetSecret(context.Background(), "checkout/APP_SECRETS")
	assert.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 2, api.calls)
}

func TestGetSecretPropagatesErrors(t *testing.T) {
	api := &fakeSecretsAPI{err: errors.New("access denied")}
	c := newTestSecretsClient(api, time.Now)

	_, err := c.GetSecret(context.Background(), "checkout/APP_SECRETS")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "checkout/APP_SECRETS")
}

func TestGetSecretRejectsBinaryOnlySecret(t *testing.T) {
	api := &binaryOnlyAPI{}
	c := newTestSecretsClient(api, time.Now)

	_, err := c.GetSecret(context.Background(), "checkout/APP_SECRETS")
	assert.Error(t, err)
}

type binaryOnlyAPI struct{}

func (binaryOnlyAPI) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return &secretsmanager.GetSecretValueOutput{}, nil
}
