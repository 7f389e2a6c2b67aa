package dto

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type IntervalResponse struct {
	Minutes int `json:"minutes"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
