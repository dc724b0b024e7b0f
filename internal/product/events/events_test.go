package events

import (
	"strings"
	"testing"
	"time"

	"github.com/loja/cadastroprodutos/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		event       messaging.Event
		wantSubject string
		wantJSON    string
	}{
		{
			name:        "created",
			event:       ProductCreatedEvent{ProductID: 1, Name: "Caneta", Price: 10, Quantity: 5, CreatedAt: at},
			wantSubject: "product.created",
			wantJSON:    `{"product_id":1,"name":"Caneta","description":"","price":10,"quantity":5,"created_at":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:        "quantity updated",
			event:       ProductQuantityUpdatedEvent{ProductID: 1, Quantity: 0, UpdatedAt: at},
			wantSubject: "product.quantity.updated",
			wantJSON:    `{"product_id":1,"quantity":0,"updated_at":"2024-05-01T12:00:00Z"}`,
		},
		{
			name:        "deleted",
			event:       ProductDeletedEvent{ProductID: 1, DeletedAt: at},
			wantSubject: "product.deleted",
			wantJSON:    `{"product_id":1,"deleted_at":"2024-05-01T12:00:00Z"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := tt.event.Payload()

			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, tt.event.Subject())
			assert.True(t, strings.HasPrefix(tt.event.Subject(), SubjectPrefix))
			assert.JSONEq(t, tt.wantJSON, string(payload))
		})
	}
}
