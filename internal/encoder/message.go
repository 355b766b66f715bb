package encoder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/pkg/enums"
)

// ResultMessage is the wire schema the external encoder publishes when a job
// reaches a terminal state.
type ResultMessage struct {
	ResourceID      uuid.UUID `json:"resourceId"`
	AggregateID     uuid.UUID `json:"aggregateId"`
	Slot            string    `json:"slot"`
	Status          string    `json:"status"`
	EncodedLocation string    `json:"encodedLocation,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

const (
	resultStatusCompleted = "COMPLETED"
	resultStatusError     = "ERROR"
)

// decodeResult parses and validates an encoder result payload.
func decodeResult(data []byte) (*ResultMessage, error) {
	var msg ResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decoding encoder result: %w", err)
	}
	if msg.ResourceID == uuid.Nil {
		return nil, fmt.Errorf("encoder result missing resourceId")
	}
	if msg.AggregateID == uuid.Nil {
		return nil, fmt.Errorf("encoder result missing aggregateId")
	}
	if _, err := enums.ParseMediaType(msg.Slot); err != nil {
		return nil, err
	}
	switch strings.ToUpper(msg.Status) {
	case resultStatusCompleted, resultStatusError:
	default:
		return nil, fmt.Errorf("encoder result has non-terminal status %q", msg.Status)
	}
	return &msg, nil
}

// mediaStatus maps the wire status onto the domain enum.
func (m *ResultMessage) mediaStatus() enums.MediaStatus {
	if strings.ToUpper(m.Status) == resultStatusCompleted {
		return enums.MediaStatusCompleted
	}
	return enums.MediaStatusError
}
