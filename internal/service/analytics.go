package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/repository"
)

type AnalyticsService struct {
	repo *repository.RequestLogRepository
}

func NewAnalyticsService(repo *repository.RequestLogRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Holds analytics summary data
type AnalyticsSummary struct {
	TotalRequests   int64                    `json:"total_requests"`
	AvgResponseTime float64                  `json:"avg_response_time_ms"`
	P50ResponseTime int                      `json:"p50_response_time_ms"`
	P95ResponseTime int                      `json:"p95_response_time_ms"`
	P99ResponseTime int                      `json:"p99_response_time_ms"`
	SuccessRate     float64                  `json:"success_rate"`
	ClientErrorRate float64                  `json:"client_error_rate"`
	ServerErrorRate float64                  `json:"server_error_rate"`
	TopEndpoints    []map[string]interface{} `json:"top_endpoints"`
}

// Per-key request statistics
type APIKeyStats struct {
	APIKeyID      uuid.UUID `json:"api_key_id"`
	TotalRequests int64     `json:"total_requests"`
	RateLimited   int64     `json:"rate_limited"`
}

// Retrieves analytics summary for a time range
func (s *AnalyticsService) GetSummary(ctx context.Context, from, to time.Time) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{}

	totalRequests, err := s.repo.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalRequests = totalRequests

	if totalRequests == 0 {
		return summary, nil
	}

	avgResponseTime, err := s.repo.GetAverageResponseTime(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.AvgResponseTime = avgResponseTime

	p50, _ := s.repo.GetPercentile(ctx, from, to, 0.50)
	summary.P50ResponseTime = p50

	p95, _ := s.repo.GetPercentile(ctx, from, to, 0.95)
	summary.P95ResponseTime = p95

	p99, _ := s.repo.GetPercentile(ctx, from, to, 0.99)
	summary.P99ResponseTime = p99

	successCount, _ := s.repo.CountByStatusCodeRange(ctx, 200, 399, from, to)
	clientErrors, _ := s.repo.CountByStatusCodeRange(ctx, 400, 499, from, to)
	serverErrors, _ := s.repo.CountByStatusCodeRange(ctx, 500, 599, from, to)

	summary.SuccessRate = float64(successCount) / float64(totalRequests) * 100
	summary.ClientErrorRate = float64(clientErrors) / float64(totalRequests) * 100
	summary.ServerErrorRate = float64(serverErrors) / float64(totalRequests) * 100

	topEndpoints, err := s.repo.GetTopEndpoints(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}
	summary.TopEndpoints = topEndpoints

	return summary, nil
}

// Retrieves hourly time-series data for a time range
func (s *AnalyticsService) GetTimeSeries(ctx context.Context, from, to time.Time) ([]repository.HourlyCount, error) {
	return s.repo.GetHourlyCounts(ctx, from, to)
}

// Retrieves request stats for a single API key
func (s *AnalyticsService) GetAPIKeyStats(ctx context.Context, apiKeyID uuid.UUID, from, to time.Time) (*APIKeyStats, error) {
	total, err := s.repo.CountByAPIKey(ctx, apiKeyID, from, to)
	if err != nil {
		return nil, err
	}

	rateLimited, err := s.repo.CountByAPIKeyAndStatus(ctx, apiKeyID, 429, from, to)
	if err != nil {
		return nil, err
	}

	return &APIKeyStats{
		APIKeyID:      apiKeyID,
		TotalRequests: total,
		RateLimited:   rateLimited,
	}, nil
}

// Retrieves raw request logs for a time range
func (s *AnalyticsService) GetLogs(ctx context.Context, from, to time.Time, limit, offset int) (interface{}, error) {
	return s.repo.FindByTimeRange(ctx, from, to, limit, offset)
}
