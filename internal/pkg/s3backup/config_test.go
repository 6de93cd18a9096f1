package s3backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := env.Env
	env.Env = values
	t.Cleanup(func() { env.Env = prev })
}

func TestLoadConfigDisabled(t *testing.T) {
	withEnv(t, map[string]string{"S3_BACKUP_ENABLED": "false"})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled())
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadConfigRequiresCredentials(t *testing.T) {
	withEnv(t, map[string]string{"S3_BACKUP_ENABLED": "TRUE", "S3_BUCKET_NAME": "invoices"})

	_, err := LoadConfig()
	assert.EqualError(t, err, "invoice archive enabled but S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY not set")
}

func TestLoadConfigMinio(t *testing.T) {
	withEnv(t, map[string]string{
		"APP_ENV":              "prod",
		"S3_BACKUP_ENABLED":    "true",
		"S3_BUCKET_NAME":       "invoices",
		"S3_ACCESS_KEY_ID":     "minio",
		"S3_SECRET_ACCESS_KEY": "minio123",
		"S3_ENDPOINT_URL":      "http://minio:9000",
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
	assert.False(t, cfg.CreateBucket)
	assert.Equal(t, "http://minio:9000", cfg.EndpointURL)
}

func TestInvoiceObjectKey(t *testing.T) {
	at := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "invoices/package/2026/03/aB3x1700000000.html", InvoiceObjectKey("package", "aB3x1700000000.html", at))
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", getContentType(".html"))
	assert.Equal(t, "application/pdf", getContentType(".pdf"))
	assert.Equal(t, "application/octet-stream", getContentType(".bin"))
}
