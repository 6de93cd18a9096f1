package binding

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/shopspring/decimal"
)

// DefaultNameTable is the speed to plan name mapping used when
// PACKAGE_NAME_TABLE is not set.
var DefaultNameTable = map[string]string{
	"10":  "Basic Home",
	"20":  "Student Special",
	"30":  "Standard Home",
	"50":  "Premium Home",
	"100": "Ultra Home",
	"200": "Enterprise",
}

var DefaultBusinessThreshold = decimal.NewFromInt(80000)

var mbpsSuffix = regexp.MustCompile(`(?i)\s*Mbps`)

// CatalogLookup returns the name of the package whose speed equals
// bandwidth. ok is false when there is no such package.
type CatalogLookup func(ctx context.Context, bandwidth string) (name string, ok bool, err error)

// PackageNamer derives a readable plan name for a subscriber account.
type PackageNamer struct {
	catalog           CatalogLookup
	table             map[string]string
	businessThreshold decimal.Decimal
}

func NewPackageNamer(catalog CatalogLookup, table map[string]string, businessThreshold decimal.Decimal) *PackageNamer {
	if table == nil {
		table = DefaultNameTable
	}
	return &PackageNamer{
		catalog:           catalog,
		table:             table,
		businessThreshold: businessThreshold,
	}
}

// NewPackageNamerFromEnv reads PACKAGE_NAME_TABLE and
// PACKAGE_BUSINESS_THRESHOLD, falling back to the defaults on bad input.
func NewPackageNamerFromEnv(catalog CatalogLookup) *PackageNamer {
	table := DefaultNameTable
	if raw := env.GetEnv("PACKAGE_NAME_TABLE", ""); raw != "" {
		if parsed, err := ParseNameTable(raw); err == nil {
			table = parsed
		}
	}
	threshold := DefaultBusinessThreshold
	if raw := env.GetEnv("PACKAGE_BUSINESS_THRESHOLD", ""); raw != "" {
		if d, err := decimal.NewFromString(raw); err == nil {
			threshold = d
		}
	}
	return NewPackageNamer(catalog, table, threshold)
}

// ParseNameTable parses "10=Basic Home,20=Student Special".
func ParseNameTable(raw string) (map[string]string, error) {
	table := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		speed, name, ok := strings.Cut(pair, "=")
		speed, name = strings.TrimSpace(speed), strings.TrimSpace(name)
		if !ok || speed == "" || name == "" {
			return nil, fmt.Errorf("invalid package name entry %q", pair)
		}
		table[speed] = name
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("package name table is empty")
	}
	return table, nil
}

// Name returns the plan name for the given account attributes. Catalog
// lookup errors fall through to the derived name.
func (n *PackageNamer) Name(ctx context.Context, bandwidth string, monthlyCost decimal.Decimal, serviceType string) string {
	if bandwidth == "" {
		return "Unknown Package"
	}

	if n.catalog != nil {
		if name, ok, err := n.catalog(ctx, bandwidth); err == nil && ok {
			return name
		}
	}

	speed := mbpsSuffix.ReplaceAllString(bandwidth, "")
	if strings.EqualFold(serviceType, "dedicated") {
		return fmt.Sprintf("Business %s Mbps", speed)
	}
	if monthlyCost.IsPositive() && monthlyCost.GreaterThanOrEqual(n.businessThreshold) {
		return fmt.Sprintf("Business %s Mbps", speed)
	}
	if name, ok := n.table[speed]; ok {
		return name
	}
	return fmt.Sprintf("%s Mbps Package", speed)
}

// Table returns the speeds and names sorted by numeric speed.
func (n *PackageNamer) Table() [][2]string {
	out := make([][2]string, 0, len(n.table))
	for speed, name := range n.table {
		out = append(out, [2]string{speed, name})
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i][0])
		b, errB := strconv.Atoi(out[j][0])
		if errA != nil || errB != nil {
			return out[i][0] < out[j][0]
		}
		return a < b
	})
	return out
}
