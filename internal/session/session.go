// Package session хранит состояние оформления заказа одного посетителя.
package session

import (
	"sync"
	"time"

	"github.com/mmeshcher/sweetshop-system/internal/cart"
	"github.com/mmeshcher/sweetshop-system/internal/model"
)

// CustomerState описывает состояние подбора клиента в рамках сессии.
type CustomerState string

const (
	// CustomerIdle — клиент ещё не искался.
	CustomerIdle CustomerState = "idle"
	// CustomerRegistering — поиск не дал результата, посетитель заполняет регистрацию.
	CustomerRegistering CustomerState = "registering"
	// CustomerFound — клиент найден или зарегистрирован.
	CustomerFound CustomerState = "found"
)

// Operation идентифицирует сетевую операцию, которая не должна выполняться повторно,
// пока предыдущий запрос той же сессии ещё не завершился.
type Operation string

const (
	OpCustomerSearch   Operation = "customer_search"
	OpCustomerRegister Operation = "customer_register"
	OpAddressWrite     Operation = "address_write"
	OpOrderSubmit      Operation = "order_submit"
)

// Session содержит всё состояние оформления заказа одного посетителя:
// корзину, результат подбора клиента, адресную книгу и способ получения.
type Session struct {
	sync.Mutex

	ID string

	Cart *cart.Cart

	CustomerState CustomerState
	Customer      *model.Customer
	// PendingPhone хранит нормализованный телефон для предзаполнения формы регистрации.
	PendingPhone string

	Addresses         []model.Address
	SelectedAddressID int64

	Fulfillment model.FulfillmentMode

	busy     map[Operation]bool
	lastSeen time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:            id,
		Cart:          cart.New(),
		CustomerState: CustomerIdle,
		Fulfillment:   model.FulfillmentPickup,
		busy:          make(map[Operation]bool),
		lastSeen:      time.Now(),
	}
}

// TryBegin помечает операцию как выполняющуюся. Возвращает false,
// если такая же операция этой сессии ещё не завершилась.
func (s *Session) TryBegin(op Operation) bool {
	s.Lock()
	defer s.Unlock()

	if s.busy[op] {
		return false
	}
	s.busy[op] = true
	return true
}

// End снимает отметку о выполняющейся операции.
func (s *Session) End(op Operation) {
	s.Lock()
	defer s.Unlock()
	delete(s.busy, op)
}

// ResetDownstream сбрасывает состояние, зависящее от выбранного клиента:
// адресную книгу, выбор адреса и способ получения. Вызывается атомарно
// при любой смене клиента, чтобы адрес не «утёк» между клиентами.
// Вызывающая сторона должна держать блокировку сессии.
func (s *Session) ResetDownstream() {
	s.Addresses = nil
	s.SelectedAddressID = 0
	s.Fulfillment = model.FulfillmentPickup
}

// ResetCustomer возвращает подбор клиента в исходное состояние.
// Вызывающая сторона должна держать блокировку сессии.
func (s *Session) ResetCustomer() {
	s.CustomerState = CustomerIdle
	s.Customer = nil
	s.PendingPhone = ""
	s.ResetDownstream()
}

// ResetAll очищает корзину и всё состояние оформления после успешного заказа.
// Вызывающая сторона должна держать блокировку сессии.
func (s *Session) ResetAll() {
	s.Cart.Clear()
	s.ResetCustomer()
}

// SelectedAddress возвращает выбранный адрес или nil, если адрес не выбран.
// Вызывающая сторона должна держать блокировку сессии.
func (s *Session) SelectedAddress() *model.Address {
	if s.SelectedAddressID == 0 {
		return nil
	}
	for i := range s.Addresses {
		if s.Addresses[i].ID == s.SelectedAddressID {
			return &s.Addresses[i]
		}
	}
	return nil
}

func (s *Session) touch() {
	s.Lock()
	s.lastSeen = time.Now()
	s.Unlock()
}
