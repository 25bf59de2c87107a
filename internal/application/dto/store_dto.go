package dto

import "time"

// CreateStoreRequest entrada para crear una tienda.
type CreateStoreRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Code     string `json:"code" validate:"required,min=1,max=50"`
	Location string `json:"location"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// UpdateStoreRequest entrada para actualizar una tienda.
type UpdateStoreRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Location *string `json:"location"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

// StoreResponse salida de una tienda.
type StoreResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Location  string    `json:"location,omitempty"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreListResponse lista paginada de tiendas.
type StoreListResponse struct {
	Items []StoreResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// FlashMessage respuesta de los formularios web: nivel success|warning|danger y texto.
type FlashMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
