package http

import "time"

// Envelope wraps every ops endpoint body.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Time    time.Time   `json:"time"`
}

func newEnvelope(status int, message string, data interface{}) Envelope {
	return Envelope{Status: status, Message: message, Data: data, Time: time.Now().UTC()}
}
