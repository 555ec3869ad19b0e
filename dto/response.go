package dto

// ErrorResponseDTO is the common error body.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"not found"`
}

// MessageResponseDTO is a plain message body.
type MessageResponseDTO struct {
	Message string `json:"message" example:"started"`
}

// PipelineRunResponseDTO answers a pipeline run request.
type PipelineRunResponseDTO struct {
	Status    string `json:"status" example:"started"`
	RequestID string `json:"request_id" example:"3f0c6c1e9b0a4f4e8f7b5b8c6a0d2e11"`
	Cadence   string `json:"cadence" example:"daily"`
	// Mode is "kafka" or "local"
	Mode string `json:"mode" example:"local"`
}
