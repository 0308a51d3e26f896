package models

import "time"

// DashboardSummary aggregates counts from every module for the admin view.
type DashboardSummary struct {
	TotalStudents       int     `json:"total_students"`
	ActiveStudents      int     `json:"active_students"`
	PendingAdmissions   int     `json:"pending_admissions"`
	TotalEmployees      int     `json:"total_employees"`
	BorrowedBooks       int     `json:"borrowed_books"`
	OverdueBorrowings   int     `json:"overdue_borrowings"`
	PendingCertificates int     `json:"pending_certificates"`
	PendingTransfers    int     `json:"pending_transfers"`
	PendingSalaryRuns   int     `json:"pending_salary_runs"`
	FeesCollectedMonth  float64 `json:"fees_collected_month"`
}

// SystemMetrics is a point-in-time snapshot of runtime health counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
