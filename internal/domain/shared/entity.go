package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps every persisted entity has.
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// NewBaseEntity assigns a fresh id and timestamps.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// GetID returns the entity id.
func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

// GetCreatedAt returns the creation timestamp.
func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }

// GetUpdatedAt returns the last update timestamp.
func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }

// BaseAggregateRoot adds an optimistic-lock version and a buffer of domain
// events raised but not yet published. The version starts at 1 and increments
// on every successful state change; SaveWithLock compares against it.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot creates an aggregate root at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// GetVersion returns the optimistic-lock version.
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion bumps the optimistic-lock version.
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent buffers an event for publication after a successful save.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the buffered events.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

// ClearDomainEvents drops the buffered events, typically after publishing.
func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }
