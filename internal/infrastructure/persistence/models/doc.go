// Package models contains the GORM persistence models. Domain aggregates carry
// no ORM tags; each model has FromDomain/ToDomain mappers used by the
// repositories.
package models
