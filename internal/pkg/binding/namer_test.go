package binding

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageNamerName(t *testing.T) {
	catalog := func(_ context.Context, bandwidth string) (string, bool, error) {
		if bandwidth == "40 Mbps" {
			return "Family Plus", true, nil
		}
		if bandwidth == "broken" {
			return "", false, errors.New("db down")
		}
		return "", false, nil
	}
	namer := NewPackageNamer(catalog, nil, DefaultBusinessThreshold)

	tests := []struct {
		name        string
		bandwidth   string
		cost        decimal.Decimal
		serviceType string
		want        string
	}{
		{"empty bandwidth", "", decimal.Zero, "", "Unknown Package"},
		{"catalog match", "40 Mbps", decimal.Zero, "", "Family Plus"},
		{"dedicated", "30 Mbps", decimal.Zero, "Dedicated", "Business 30 Mbps"},
		{"cost threshold", "30Mbps", decimal.NewFromInt(80000), "", "Business 30 Mbps"},
		{"below threshold", "30 mbps", decimal.NewFromInt(79999), "", "Standard Home"},
		{"table", "10", decimal.Zero, "", "Basic Home"},
		{"fallback", "75 Mbps", decimal.NewFromInt(100), "home", "75 Mbps Package"},
		{"catalog error", "broken", decimal.Zero, "", "broken Mbps Package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, namer.Name(context.Background(), tt.bandwidth, tt.cost, tt.serviceType))
		})
	}
}

func TestPackageNamerTableIsOverridable(t *testing.T) {
	table, err := ParseNameTable("10=Starter, 20 = Campus")
	require.NoError(t, err)

	namer := NewPackageNamer(nil, table, decimal.NewFromInt(500))

	assert.Equal(t, "Starter", namer.Name(context.Background(), "10 Mbps", decimal.Zero, ""))
	assert.Equal(t, "Campus", namer.Name(context.Background(), "20 Mbps", decimal.Zero, ""))
	assert.Equal(t, "30 Mbps Package", namer.Name(context.Background(), "30 Mbps", decimal.Zero, ""))
	assert.Equal(t, "Business 30 Mbps", namer.Name(context.Background(), "30 Mbps", decimal.NewFromInt(500), ""))
	assert.Equal(t, [][2]string{{"10", "Starter"}, {"20", "Campus"}}, namer.Table())
}

func TestParseNameTableRejectsBadInput(t *testing.T) {
	_, err := ParseNameTable("10")
	assert.Error(t, err)

	_, err = ParseNameTable(" , ")
	assert.Error(t, err)
}
