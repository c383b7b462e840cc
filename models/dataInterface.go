package models

type Identifier interface {
	GetId() int
}

func (obj Product) GetId() int {
	return obj.ID
}

func (obj ProductVariation) GetId() int {
	return obj.ID
}

func (obj InventoryLocation) GetId() int {
	return obj.ID
}

func (obj User) GetId() int {
	return obj.ID
}
