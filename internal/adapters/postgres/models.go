package postgres

import "time"

type featureFieldModel struct {
	UserID       string    `gorm:"column:user_id;primaryKey"`
	Field        string    `gorm:"column:field;primaryKey"`
	NumericValue float64   `gorm:"column:numeric_value"`
	TextValue    string    `gorm:"column:text_value"`
	IsNumeric    bool      `gorm:"column:is_numeric"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (featureFieldModel) TableName() string { return "feature_fields" }

type exposureValueModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id"`
	Value     string    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (exposureValueModel) TableName() string { return "user_exposure_values" }

type conversionModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Converted bool      `gorm:"column:converted"`
	Magnitude float64   `gorm:"column:magnitude"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (conversionModel) TableName() string { return "user_conversions" }

type driverResultModel struct {
	ID                     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Outcome                string    `gorm:"column:outcome"`
	VariableName           string    `gorm:"column:variable_name"`
	CorrelationCoefficient float64   `gorm:"column:correlation_coefficient"`
	TStat                  float64   `gorm:"column:t_stat"`
	TippingPoint           *string   `gorm:"column:tipping_point"`
	PredictiveStrength     string    `gorm:"column:predictive_strength"`
	RunID                  string    `gorm:"column:run_id"`
	ComputedAt             time.Time `gorm:"column:computed_at"`
}

func (driverResultModel) TableName() string { return "driver_results" }

type combinationResultModel struct {
	ID                    int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Outcome               string    `gorm:"column:outcome"`
	Exposure1             string    `gorm:"column:exposure_1"`
	Exposure2             string    `gorm:"column:exposure_2"`
	Exposure3             string    `gorm:"column:exposure_3"`
	Rank                  int       `gorm:"column:rank"`
	LogLikelihood         float64   `gorm:"column:log_likelihood"`
	AIC                   float64   `gorm:"column:aic"`
	Precision             float64   `gorm:"column:precision_score"`
	Recall                float64   `gorm:"column:recall_score"`
	OddsRatio             float64   `gorm:"column:odds_ratio"`
	Lift                  float64   `gorm:"column:lift"`
	UsersWithExposure     int       `gorm:"column:users_with_exposure"`
	ConversionRateInGroup float64   `gorm:"column:conversion_rate_in_group"`
	OverallConversionRate float64   `gorm:"column:overall_conversion_rate"`
	TotalConversions      float64   `gorm:"column:total_conversions"`
	RunID                 string    `gorm:"column:run_id"`
	ComputedAt            time.Time `gorm:"column:computed_at"`
}

func (combinationResultModel) TableName() string { return "combination_results" }

type syncRunModel struct {
	RunID        string     `gorm:"column:run_id;primaryKey"`
	AnalysisType string     `gorm:"column:analysis_type"`
	Outcome      string     `gorm:"column:outcome"`
	Status       string     `gorm:"column:status"`
	RowsRead     int        `gorm:"column:rows_read"`
	RowsWritten  int        `gorm:"column:rows_written"`
	Error        string     `gorm:"column:error"`
	StartedAt    time.Time  `gorm:"column:started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at"`
}

func (syncRunModel) TableName() string { return "sync_runs" }

type idempotencyModel struct {
	Key          string    `gorm:"column:key;primaryKey"`
	RequestHash  string    `gorm:"column:request_hash"`
	ResponseCode *int      `gorm:"column:response_code"`
	ResponseBody []byte    `gorm:"column:response_body"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string { return "idempotency_keys" }

type processedEventModel struct {
	EventID   string    `gorm:"column:event_id;primaryKey"`
	EventType string    `gorm:"column:event_type"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

func (processedEventModel) TableName() string { return "processed_events" }
