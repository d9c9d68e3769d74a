package eod

// reportRow is one ledger record as it appears in the CSV report. Empty
// cells mean the value is not known yet.
type reportRow struct {
	ID               int64  `csv:"id"`
	DecidedAt        string `csv:"decided_at"`
	Action           string `csv:"action"`
	PriceAtDecision  string `csv:"price_at_decision"`
	PredictedPrice   string `csv:"predicted_price"`
	ThresholdUsed    string `csv:"threshold_used"`
	Volatility       string `csv:"volatility"`
	Evaluated        bool   `csv:"evaluated"`
	EvaluatedAt      string `csv:"evaluated_at"`
	LearningRateUsed string `csv:"learning_rate_used"`
	RealReturnPct    string `csv:"real_return_pct"`
}

// Summary counts what went into a report.
type Summary struct {
	Path      string
	Records   int
	Evaluated int
	Pending   int
	Buys      int
	Sells     int
	Holds     int
}
