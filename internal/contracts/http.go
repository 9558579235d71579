package contracts

type RunDriverAnalysisRequest struct {
	Outcome   string   `json:"outcome"`
	Variables []string `json:"variables,omitempty"`
}

type RunPatternMiningRequest struct {
	Outcome             string `json:"outcome"`
	MinUsersPerExposure int    `json:"min_users_per_exposure,omitempty"`
	MaxCandidates       int    `json:"max_candidates,omitempty"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}
