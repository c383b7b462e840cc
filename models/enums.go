package models

import (
	"errors"
	"strconv"
)

// ProductKind is the catalog-level discriminator of a product.
type ProductKind string

const (
	ProductKindSimple   ProductKind = "simple"
	ProductKindVariable ProductKind = "variable"
	ProductKindEvent    ProductKind = "event"
)

func (t ProductKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *ProductKind) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("product kind must be string")
	}
	switch str {
	case "simple":
		*t = ProductKindSimple
	case "variable":
		*t = ProductKindVariable
	case "event":
		*t = ProductKindEvent
	default:
		return errors.New("invalid product kind")
	}
	return nil
}

// ProductType discriminates stock subjects: a simple product row or a variation row.
type ProductType string

const (
	ProductTypeSingle    ProductType = "S"
	ProductTypeVariation ProductType = "V"
)

func (t ProductType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *ProductType) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("product type must be string")
	}
	switch str {
	case "S":
		*t = ProductTypeSingle
	case "V":
		*t = ProductTypeVariation
	default:
		return errors.New("invalid product type")
	}
	return nil
}

type LocationType string

const (
	LocationTypeWarehouse LocationType = "warehouse"
	LocationTypeVenue     LocationType = "venue"
)

func (t LocationType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *LocationType) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("location type must be string")
	}
	switch str {
	case "warehouse":
		*t = LocationTypeWarehouse
	case "venue":
		*t = LocationTypeVenue
	default:
		return errors.New("invalid location type")
	}
	return nil
}

// StockMovementReason classifies how a quantity change was issued.
type StockMovementReason string

const (
	MovementReasonAdjust  StockMovementReason = "adjust"
	MovementReasonSet     StockMovementReason = "set"
	MovementReasonImport  StockMovementReason = "import"
	MovementReasonOpening StockMovementReason = "opening"
	MovementReasonRebuild StockMovementReason = "rebuild"
)

func (t StockMovementReason) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *StockMovementReason) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("movement reason must be string")
	}
	switch str {
	case "adjust":
		*t = MovementReasonAdjust
	case "set":
		*t = MovementReasonSet
	case "import":
		*t = MovementReasonImport
	case "opening":
		*t = MovementReasonOpening
	case "rebuild":
		*t = MovementReasonRebuild
	default:
		return errors.New("invalid movement reason")
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin UserRole = "A"
	UserRoleOwner UserRole = "O"
	UserRoleStaff UserRole = "C"
)

func (t UserRole) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *UserRole) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.New("user role must be string")
	}
	switch str {
	case "A":
		*t = UserRoleAdmin
	case "O":
		*t = UserRoleOwner
	case "C":
		*t = UserRoleStaff
	default:
		return errors.New("invalid user role")
	}
	return nil
}
