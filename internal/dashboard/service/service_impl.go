package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/dashboard/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	salesChartDays   = 7
	recentOrderLimit = 10
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cfg   config.Config
	Clock clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	currency string
	location *time.Location
}

func NewService(p Params) domain.Service {
	log := p.Log.Named("dashboard.service")
	location := time.UTC
	if tz := strings.TrimSpace(p.Cfg.StoreTimezone); tz != "" {
		loaded, err := time.LoadLocation(tz)
		if err != nil {
			log.Warn("unknown store timezone, using UTC", zap.String("timezone", tz), zap.Error(err))
		} else {
			location = loaded
		}
	}
	return &Service{
		db:       p.DB,
		log:      log,
		clock:    p.Clock,
		currency: strings.ToUpper(strings.TrimSpace(p.Cfg.StoreCurrency)),
		location: location,
	}
}

type statusCountRow struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

type paidRow struct {
	Amount int64     `gorm:"column:amount"`
	PaidAt time.Time `gorm:"column:paid_at"`
}

func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	now := s.clock.Now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location)
	chartStart := today.AddDate(0, 0, -(salesChartDays - 1))

	summary := &domain.Summary{GeneratedAt: now.UTC()}

	orders, err := s.orderStats(ctx)
	if err != nil {
		return nil, err
	}
	summary.Orders = orders

	summary.Revenue.Currency = s.currency
	if summary.Revenue.Total, err = s.paidSince(ctx, nil); err != nil {
		return nil, err
	}
	todayUTC := today.UTC()
	if summary.Revenue.Today, err = s.paidSince(ctx, &todayUTC); err != nil {
		return nil, err
	}
	monthUTC := month.UTC()
	if summary.Revenue.Month, err = s.paidSince(ctx, &monthUTC); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS total,
		        COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0) AS active
		 FROM products`,
	).Scan(&summary.Products).Error; err != nil {
		return nil, err
	}

	chart, err := s.salesChart(ctx, chartStart)
	if err != nil {
		return nil, err
	}
	summary.SalesChart = chart

	recent := []domain.RecentOrder{}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT external_id, email, amount, currency, status, created_at
		 FROM orders
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		recentOrderLimit,
	).Scan(&recent).Error; err != nil {
		return nil, err
	}
	summary.RecentOrders = recent

	return summary, nil
}

func (s *Service) orderStats(ctx context.Context) (domain.OrderStats, error) {
	var rows []statusCountRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count FROM orders GROUP BY status`,
	).Scan(&rows).Error; err != nil {
		return domain.OrderStats{}, err
	}

	var stats domain.OrderStats
	for _, row := range rows {
		stats.Total += row.Count
		switch orderdomain.Status(row.Status) {
		case orderdomain.StatusPending:
			stats.Pending = row.Count
		case orderdomain.StatusPaid:
			stats.Paid = row.Count
		case orderdomain.StatusExpired:
			stats.Expired = row.Count
		case orderdomain.StatusFailed:
			stats.Failed = row.Count
		}
	}
	return stats, nil
}

func (s *Service) paidSince(ctx context.Context, since *time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = ?`
	args := []any{orderdomain.StatusPaid}
	if since != nil {
		query += ` AND paid_at >= ?`
		args = append(args, *since)
	}

	var total int64
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// salesChart buckets PAID payments by store-local day. Days without sales are zero-filled.
func (s *Service) salesChart(ctx context.Context, start time.Time) ([]domain.DailySales, error) {
	var rows []paidRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT amount, paid_at
		 FROM payments
		 WHERE status = ? AND paid_at >= ?`,
		orderdomain.StatusPaid,
		start.UTC(),
	).Scan(&rows).Error; err != nil {
		return nil, err
	}

	chart := make([]domain.DailySales, salesChartDays)
	index := make(map[string]int, salesChartDays)
	for i := range chart {
		key := start.AddDate(0, 0, i).Format(time.DateOnly)
		chart[i].Date = key
		index[key] = i
	}
	for _, row := range rows {
		key := row.PaidAt.In(s.location).Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			continue
		}
		chart[i].Total += row.Amount
		chart[i].Count++
	}
	return chart, nil
}
