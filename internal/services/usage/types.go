package usage

import "github.com/newsroomlabs/usage-insight/internal/store"

// EngineTotals accumulates the four usage counters for one engine.
type EngineTotals struct {
	TotalTokens  int64 `json:"totalTokens"`
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	MessageCount int64 `json:"messageCount"`
}

func (t *EngineTotals) add(other EngineTotals) {
	t.TotalTokens += other.TotalTokens
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.MessageCount += other.MessageCount
}

// AggregationResult is the fold of a record set: overall totals, distinct
// active users, and a per-engine breakdown. totalTokens and
// inputTokens+outputTokens are summed independently from the source fields
// and may diverge; callers must not assume the identity holds.
type AggregationResult struct {
	TotalTokens  int64                   `json:"totalTokens"`
	InputTokens  int64                   `json:"inputTokens"`
	OutputTokens int64                   `json:"outputTokens"`
	MessageCount int64                   `json:"messageCount"`
	ActiveUsers  int                     `json:"activeUsers"`
	ByEngine     map[string]EngineTotals `json:"byEngine"`
}

// MonthlyPoint is one month of a trend series.
type MonthlyPoint struct {
	YearMonth string `json:"yearMonth"`
	AggregationResult
}

// DailyPoint is one day of a trend series.
type DailyPoint struct {
	Date string `json:"date"`
	AggregationResult
}

// ServiceFetch is the raw per-service result of a cross-service fan-out. A
// failed fetch carries the error message and an empty item set; it never
// aborts the batch.
type ServiceFetch struct {
	ServiceID   string         `json:"serviceId"`
	ServiceName string         `json:"serviceName"`
	Items       []store.Record `json:"items"`
	Count       int            `json:"count"`
	Error       string         `json:"error,omitempty"`
}

// ServiceUsage is the aggregate view of one service for a month, with the
// preceding month fetched and aggregated for comparison.
type ServiceUsage struct {
	ServiceID    string                  `json:"serviceId"`
	ServiceName  string                  `json:"serviceName"`
	CurrentMonth AggregationResult       `json:"currentMonth"`
	LastMonth    AggregationResult       `json:"lastMonth"`
	ByEngine     map[string]EngineTotals `json:"byEngine"`
}

// SummaryTotals sums every service's aggregates for one month.
type SummaryTotals struct {
	TotalTokens       int64 `json:"totalTokens"`
	TotalInputTokens  int64 `json:"totalInputTokens"`
	TotalOutputTokens int64 `json:"totalOutputTokens"`
	TotalMessages     int64 `json:"totalMessages"`
	TotalActiveUsers  int   `json:"totalActiveUsers"`
	// TotalServices counts services with at least one raw record this
	// month, not services flagged active in the registry.
	TotalServices int `json:"totalServices"`
}

// Summary is the global cross-service rollup.
type Summary struct {
	CurrentMonth SummaryTotals `json:"currentMonth"`
	LastMonth    SummaryTotals `json:"lastMonth"`
}

// RankedService is one entry of the top-services list.
type RankedService struct {
	ServiceID    string            `json:"serviceId"`
	ServiceName  string            `json:"serviceName"`
	CurrentMonth AggregationResult `json:"currentMonth"`
}

// RankedEngine is one entry of the top-engines list. Engine names are not
// service-qualified: identically named engines from different services
// merge, under the assumption that engine vocabularies do not overlap.
type RankedEngine struct {
	EngineType string `json:"engineType"`
	EngineTotals
}

// UserProfile is the identity half of an enriched user row.
type UserProfile struct {
	UserID    string  `json:"userId"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	CreatedAt *string `json:"createdAt"`
}

// EngineDetail is one per-engine row of a user's usage breakdown.
type EngineDetail struct {
	EngineType   string `json:"engineType"`
	TotalTokens  int64  `json:"totalTokens"`
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
	MessageCount int64  `json:"messageCount"`
}

// UserUsage is the usage half of an enriched user row.
type UserUsage struct {
	TotalTokens  int64          `json:"totalTokens"`
	InputTokens  int64          `json:"inputTokens"`
	OutputTokens int64          `json:"outputTokens"`
	MessageCount int64          `json:"messageCount"`
	Records      int            `json:"records"`
	Details      []EngineDetail `json:"details"`
}

// EnrichedUser joins a user's identity with their aggregated usage.
type EnrichedUser struct {
	User  UserProfile `json:"user"`
	Usage UserUsage   `json:"usage"`
}

// UserRecordDetail is one raw usage row of a single-user lookup, as stored.
type UserRecordDetail struct {
	EngineType   string `json:"engineType"`
	TotalTokens  int64  `json:"totalTokens"`
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
	MessageCount int64  `json:"messageCount"`
	LastUsedAt   string `json:"lastUsedAt,omitempty"`
	YearMonth    string `json:"yearMonth,omitempty"`
}

// UserLookupUsage is the usage payload of a lookup-by-email response.
type UserLookupUsage struct {
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName"`
	YearMonth   string `json:"yearMonth"`
	AggregationResult
	Records int                `json:"records"`
	Details []UserRecordDetail `json:"details"`
}

// UserLookup is the full lookup-by-email response.
type UserLookup struct {
	User  UserProfile     `json:"user"`
	Usage UserLookupUsage `json:"usage"`
}
