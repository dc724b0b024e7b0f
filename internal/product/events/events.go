// Package events defines the domain events published after product mutations.
package events

import (
	"encoding/json"
	"time"
)

const (
	// SubjectPrefix matches every product subject. The JetStream stream captures SubjectPrefix + ">".
	SubjectPrefix = "product."

	ProductCreatedSubject         = SubjectPrefix + "created"
	ProductQuantityUpdatedSubject = SubjectPrefix + "quantity.updated"
	ProductDeletedSubject         = SubjectPrefix + "deleted"
)

type ProductCreatedEvent struct {
	ProductID   int64     `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int32     `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return ProductCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductQuantityUpdatedEvent struct {
	ProductID int64     `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e ProductQuantityUpdatedEvent) Subject() string {
	return ProductQuantityUpdatedSubject
}

func (e ProductQuantityUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	ProductID int64     `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return ProductDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
