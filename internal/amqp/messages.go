package amqp

import (
	"encoding/json"
	"time"
)

// FiscalYearChangedMessage announces that a CAN fiscal-year snapshot was
// written. It carries only identifiers; consumers read the record itself
// from the database.
type FiscalYearChangedMessage struct {
	ID         int64     `json:"id"`
	FiscalYear int       `json:"fiscal_year"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewFiscalYearChangedMessage(id int64, fiscalYear int) *FiscalYearChangedMessage {
	return &FiscalYearChangedMessage{
		ID:         id,
		FiscalYear: fiscalYear,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FiscalYearChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FiscalYearChangedMessageFromJSON decodes a message body.
func FiscalYearChangedMessageFromJSON(data []byte) (*FiscalYearChangedMessage, error) {
	var msg FiscalYearChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
