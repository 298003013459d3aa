package metrics

import (
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// HistoryCollector reports the local upload and verification history on
// each scrape.
type HistoryCollector struct {
	db *sql.DB

	uploadsByStatus   *prometheus.Desc
	verificationCount *prometheus.Desc
	lastConfirmedTime *prometheus.Desc
}

// NewHistoryCollector creates a new collector over the history database.
func NewHistoryCollector(db *sql.DB) *HistoryCollector {
	return &HistoryCollector{
		db: db,
		uploadsByStatus: prometheus.NewDesc(
			"univerify_history_uploads",
			"Number of uploads in local history by status",
			[]string{"status"}, nil,
		),
		verificationCount: prometheus.NewDesc(
			"univerify_history_verifications",
			"Number of verifications in local history",
			nil, nil,
		),
		lastConfirmedTime: prometheus.NewDesc(
			"univerify_history_last_confirmed_timestamp_seconds",
			"Unix time of the most recent confirmed upload (0 = none)",
			nil, nil,
		),
	}
}

// Describe sends metric descriptors to Prometheus
func (c *HistoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.uploadsByStatus
	ch <- c.verificationCount
	ch <- c.lastConfirmedTime
}

// Collect queries the history tables. Query failures are logged and
// reported as zero to avoid failing the scrape.
func (c *HistoryCollector) Collect(ch chan<- prometheus.Metric) {
	counts := map[string]int64{"confirmed": 0, "unconfirmed": 0, "failed": 0}

	rows, err := c.db.Query(`SELECT status, COUNT(*) FROM uploads GROUP BY status`)
	if err != nil {
		slog.Error("failed to query upload history metrics", "error", err)
	} else {
		for rows.Next() {
			var status string
			var count int64
			if err := rows.Scan(&status, &count); err != nil {
				slog.Error("failed to scan upload history metrics", "error", err)
				break
			}
			counts[status] = count
		}
		rows.Close()
	}

	for status, count := range counts {
		ch <- prometheus.MustNewConstMetric(c.uploadsByStatus, prometheus.GaugeValue, float64(count), status)
	}

	var verifications int64
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM verifications`).Scan(&verifications); err != nil {
		slog.Error("failed to query verification history metrics", "error", err)
		verifications = 0
	}
	ch <- prometheus.MustNewConstMetric(c.verificationCount, prometheus.GaugeValue, float64(verifications))

	var lastConfirmed sql.NullInt64
	err = c.db.QueryRow(`
		SELECT CAST(strftime('%s', MAX(confirmed_at)) AS INTEGER)
		FROM uploads
		WHERE confirmed_at IS NOT NULL
	`).Scan(&lastConfirmed)
	if err != nil {
		slog.Error("failed to query last confirmation metric", "error", err)
	}
	ch <- prometheus.MustNewConstMetric(c.lastConfirmedTime, prometheus.GaugeValue, float64(lastConfirmed.Int64))
}
