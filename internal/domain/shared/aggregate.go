package shared

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`

	loadedVersion int `gorm:"-"`
}

// AfterFind records the version of the row as it was read. Domain mutators
// bump Version in memory, possibly more than once per unit of work, so
// optimistic locking must compare against the version that was actually
// loaded rather than Version minus one.
func (a *BaseAggregateRoot) AfterFind(_ *gorm.DB) error {
	a.loadedVersion = a.Version
	return nil
}

// AfterCreate records the version that was just inserted, so an aggregate
// created and then mutated in the same unit of work locks correctly.
func (a *BaseAggregateRoot) AfterCreate(_ *gorm.DB) error {
	a.loadedVersion = a.Version
	return nil
}

// LoadedVersion returns the version the aggregate carried when it was read
// from the store. For aggregates never loaded it falls back to the current
// version.
func (a *BaseAggregateRoot) LoadedVersion() int {
	if a.loadedVersion == 0 {
		return a.Version
	}
	return a.loadedVersion
}

// MarkVersionSaved records that the current in-memory version has been
// persisted, so a later save in the same unit of work locks correctly.
func (a *BaseAggregateRoot) MarkVersionSaved() {
	a.loadedVersion = a.Version
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// CreatorTracked is implemented by aggregates that record the user who
// created them, used for ownership guards (e.g. only the creator may
// withdraw an invoice from approval).
type CreatorTracked interface {
	GetCreatedBy() *uuid.UUID
}
