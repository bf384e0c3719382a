// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models hold the annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
//
// Structure:
// - base.go: BaseModel and VendorAggregateModel
// - settlement.go: transactions (charging_sessions, food_orders), settlements, vendors and holds
package models
