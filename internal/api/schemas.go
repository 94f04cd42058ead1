package api

type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeS       int64  `json:"uptime_s"`
	ActiveSources int    `json:"active_sources"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
