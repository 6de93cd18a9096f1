package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/cache"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CacheKeyUsers         = "statistics:users:total"
	CacheKeyBindings      = "statistics:bindings:total"
	CacheKeyPaymentsDaily = "statistics:payments:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyRevenueMonth  = "statistics:revenue:month:%s"  // Format with yearmonth MM-YYYY
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the numbers shown on the admin dashboard.
type StatisticsData struct {
	TotalUsers    int
	TotalBindings int
	TodayPayments int
	MonthRevenue  string
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached numbers are older than the
// update interval.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when it is stale.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Updating statistics cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

func todayRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.Add(24 * time.Hour)
}

func countUsers(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.User{}).Count(&n).Error
	return n, err
}

func countBindings(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.BindingLink{}).Count(&n).Error
	return n, err
}

func countPaymentsToday(db *gorm.DB) (int64, error) {
	var n int64
	start, end := todayRange(time.Now())
	err := db.Model(&models.BillPaid{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&n).Error
	return n, err
}

// MonthRevenue sums the bill amounts recorded for the given yearmonth
// ("01-2006" layout).
func MonthRevenue(db *gorm.DB, yearMonth string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := db.Model(&models.BillPaid{}).Where("yearmonth = ?", yearMonth).Pluck("package_cost", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()
	now := time.Now()

	users, err := countUsers(db)
	if err != nil {
		log.Printf("Error counting users: %v", err)
		return err
	}
	bindings, err := countBindings(db)
	if err != nil {
		log.Printf("Error counting bindings: %v", err)
		return err
	}
	payments, err := countPaymentsToday(db)
	if err != nil {
		log.Printf("Error counting today's payments: %v", err)
		return err
	}
	revenue, err := MonthRevenue(db, now.Format("01-2006"))
	if err != nil {
		log.Printf("Error summing revenue: %v", err)
		return err
	}

	values := map[string]string{
		CacheKeyUsers:    strconv.FormatInt(users, 10),
		CacheKeyBindings: strconv.FormatInt(bindings, 10),
		fmt.Sprintf(CacheKeyPaymentsDaily, now.Format("2006-01-02")): strconv.FormatInt(payments, 10),
		fmt.Sprintf(CacheKeyRevenueMonth, now.Format("01-2006")):     revenue.StringFixed(2),
	}
	for key, value := range values {
		if err := cache.Set(key, value, CacheExpiration); err != nil {
			log.Printf("Error caching %s: %v", key, err)
			return err
		}
	}

	log.Printf("Statistics updated in cache: Users: %d, Bindings: %d, Today's Payments: %d, Revenue: %s",
		users, bindings, payments, revenue.StringFixed(2))
	return nil
}

// cachedCount reads key from the cache and falls back to count, storing
// the fresh value.
func cachedCount(key string, count func(*gorm.DB) (int64, error)) int {
	if val, err := cache.Get(key); err == nil {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0
		}
		return int(n)
	}

	n, err := count(database.GetDB())
	if err != nil {
		log.Printf("Error counting %s: %v", key, err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(n, 10), CacheExpiration); err != nil {
		log.Printf("Error caching %s: %v", key, err)
	}
	return int(n)
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	return cachedCount(CacheKeyUsers, countUsers)
}

// GetTotalBindings returns the number of account bindings.
func GetTotalBindings() int {
	return cachedCount(CacheKeyBindings, countBindings)
}

// GetTodayPayments returns the number of bills recorded today.
func GetTodayPayments() int {
	key := fmt.Sprintf(CacheKeyPaymentsDaily, time.Now().Format("2006-01-02"))
	return cachedCount(key, countPaymentsToday)
}

// GetMonthRevenue returns this month's revenue formatted with two decimals.
func GetMonthRevenue() string {
	yearMonth := time.Now().Format("01-2006")
	key := fmt.Sprintf(CacheKeyRevenueMonth, yearMonth)
	if val, err := cache.Get(key); err == nil {
		return val
	}
	revenue, err := MonthRevenue(database.GetDB(), yearMonth)
	if err != nil {
		log.Printf("Error summing revenue: %v", err)
		return "0.00"
	}
	_ = cache.Set(key, revenue.StringFixed(2), CacheExpiration)
	return revenue.StringFixed(2)
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TotalUsers:    GetTotalUsers(),
		TotalBindings: GetTotalBindings(),
		TodayPayments: GetTodayPayments(),
		MonthRevenue:  GetMonthRevenue(),
	}
}

// DailyPayments returns per-day bill counts for the last days, oldest first.
func DailyPayments(db *gorm.DB, days int) ([]models.DailyStats, error) {
	now := time.Now()
	out := make([]models.DailyStats, 0, days)
	for i := days - 1; i >= 0; i-- {
		start, end := todayRange(now.AddDate(0, 0, -i))
		var n int64
		if err := db.Model(&models.BillPaid{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&n).Error; err != nil {
			return nil, err
		}
		out = append(out, models.DailyStats{Date: start.Format("2006-01-02"), Count: int(n)})
	}
	return out, nil
}
