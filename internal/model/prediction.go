package model

// Prediction is the terminal artifact of one inference call.
type Prediction struct {
	Anomaly int `json:"anomaly_prediction"` // 0 = normal, 1 = anomaly
}
