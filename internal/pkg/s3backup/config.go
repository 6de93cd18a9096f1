package s3backup

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
)

// Config is the S3 compatible bucket paid invoices are archived to.
type Config struct {
	Enabled         bool
	BucketName      string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// EndpointURL selects MinIO or another S3 compatible service with path
	// style addressing. Empty means AWS.
	EndpointURL string
	// CreateBucket lets development setups create a missing bucket.
	CreateBucket bool
}

// LoadConfig reads the S3_* environment. Archiving is off unless
// S3_BACKUP_ENABLED is "true", and then bucket and credentials are required.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Enabled:         strings.EqualFold(env.GetEnv("S3_BACKUP_ENABLED", "false"), "true"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		CreateBucket:    env.GetEnv("APP_ENV", "dev") != "prod",
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	var missing []string
	for name, value := range map[string]string{
		"S3_ACCESS_KEY_ID":     cfg.AccessKeyID,
		"S3_SECRET_ACCESS_KEY": cfg.SecretAccessKey,
		"S3_BUCKET_NAME":       cfg.BucketName,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("invoice archive enabled but %s not set", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled
}

// InvoiceObjectKey returns invoices/<kind>/YYYY/MM/<file>.
func InvoiceObjectKey(kind, file string, at time.Time) string {
	return fmt.Sprintf("invoices/%s/%s/%s", kind, at.Format("2006/01"), file)
}
