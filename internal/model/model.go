// Package model содержит доменные сущности сервиса приёма заказов кондитерской.
package model

import "time"

// Customer представляет клиента кондитерской, идентифицируемого по номеру телефона.
type Customer struct {
	ID        int64
	Name      string
	Phone     string
	Active    bool
	CreatedAt time.Time
}

// Address описывает адрес доставки, принадлежащий одному клиенту.
type Address struct {
	ID           int64
	CustomerID   int64
	PostalCode   string
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
	Complement   string
	Reference    string
	Active       bool
	CreatedAt    time.Time
}

// MenuSection представляет раздел меню с позициями каталога.
type MenuSection struct {
	ID    int64
	Name  string
	Items []MenuItem
}

// MenuItem описывает позицию каталога, доступную для заказа.
type MenuItem struct {
	ID          int64
	SectionID   int64
	Name        string
	Description string
	PriceCents  int64
	Available   bool
	ImageRef    string
}

// CartLine описывает позицию корзины с зафиксированной на момент добавления ценой.
type CartLine struct {
	ItemID         int64
	Name           string
	UnitPriceCents int64
	Quantity       int
	Note           string
}

// FulfillmentMode описывает способ получения заказа.
type FulfillmentMode string

const (
	FulfillmentPickup   FulfillmentMode = "pickup"
	FulfillmentDelivery FulfillmentMode = "delivery"
)

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

// PaymentStatusPending устанавливается при создании заказа: оплата вне зоны ответственности сервиса.
const PaymentStatusPending PaymentStatus = "pending"

// OrderItem описывает строку сохранённого заказа.
type OrderItem struct {
	ItemID         int64
	Name           string
	UnitPriceCents int64
	Quantity       int
	Note           string
}

// Order описывает оформленный заказ. После создания заказ не изменяется.
type Order struct {
	ID              int64
	Number          string
	CustomerID      int64
	Items           []OrderItem
	Description     string
	TotalCents      int64
	Fulfillment     FulfillmentMode
	DeliveryAddress *Address
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
}

// MenuConfig содержит настройки меню, влияющие на оформление заказа.
type MenuConfig struct {
	AllowDelivery    bool
	DeliveryFeeCents int64
}
