package domain

import "time"

// Status tracks where a case sits in the dispatcher workflow.
type Status string

const (
	// StatusNone marks a case that no dispatcher has acted on yet.
	StatusNone Status = "none"
	// StatusAccepted marks a case a dispatcher took ownership of.
	StatusAccepted Status = "accepted"
	// StatusRejected marks a case a dispatcher dismissed.
	StatusRejected Status = "rejected"
)

// GPS is a latitude/longitude pair reported by the tracker.
type GPS struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Vector3 holds one accelerometer or gyroscope sample.
type Vector3 struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
	Z float64 `bson:"z" json:"z"`
}

// Case is one telemetry snapshot from a rescue tracker plus its workflow
// state. It is stored as a single flat document keyed by ID.
type Case struct {
	ID            string    `bson:"_id" json:"id"`
	HeartRate     float64   `bson:"heartRate" json:"heartRate"`
	Temperature   float64   `bson:"temperature" json:"temperature"`
	SpO2          float64   `bson:"spo2" json:"spo2"`
	GPS           GPS       `bson:"gps" json:"gps"`
	Accelerometer Vector3   `bson:"accelerometer" json:"accelerometer"`
	Gyroscope     Vector3   `bson:"gyroscope" json:"gyroscope"`
	DeviceID      string    `bson:"deviceId" json:"deviceId"`
	Status        Status    `bson:"status" json:"status"`
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
}

// Pending reports whether the case still awaits dispatcher action.
func (c Case) Pending() bool {
	return c.Status == StatusNone
}

// CaseSummary is the reduced view used by the buzzer signal: enough to
// identify a pending case without shipping the full telemetry.
type CaseSummary struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Timestamp time.Time `json:"timestamp"`
}

// BuzzerStatus is the derived alert signal for the dispatcher console.
type BuzzerStatus struct {
	Active  bool
	Pending []CaseSummary
}
