// Package handler содержит HTTP-обработчики публичной страницы заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/sweetshop-system/internal/cart"
	"github.com/mmeshcher/sweetshop-system/internal/cep"
	"github.com/mmeshcher/sweetshop-system/internal/middleware"
	"github.com/mmeshcher/sweetshop-system/internal/model"
	"github.com/mmeshcher/sweetshop-system/internal/repository"
	"github.com/mmeshcher/sweetshop-system/internal/service"
	"github.com/mmeshcher/sweetshop-system/internal/session"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	MenuConfig() model.MenuConfig
	GetMenu(ctx context.Context) ([]model.MenuSection, error)
	AddCartItem(ctx context.Context, sess *session.Session, itemID int64, quantity int) error
	SetCartQuantity(sess *session.Session, itemID int64, quantity int) error
	SetCartNote(sess *session.Session, itemID int64, note string) error
	RemoveCartItem(sess *session.Session, itemID int64) error
	ClearCart(sess *session.Session)
	CartState(sess *session.Session) ([]model.CartLine, int64, int)
	SearchCustomer(ctx context.Context, sess *session.Session, phoneRaw string) (*model.Customer, bool, error)
	RegisterCustomer(ctx context.Context, sess *session.Session, name, phoneRaw string) (*model.Customer, error)
	ResetCustomer(sess *session.Session)
	Addresses(sess *session.Session) ([]model.Address, int64, error)
	CreateAddress(ctx context.Context, sess *session.Session, form service.AddressForm) (*model.Address, error)
	SelectAddress(sess *session.Session, addressID int64) error
	DeleteAddress(ctx context.Context, sess *session.Session, addressID int64) error
	ResolvePostalCode(ctx context.Context, code string) (*cep.AddressInfo, error)
	SetFulfillment(sess *session.Session, mode model.FulfillmentMode) error
	Quote(sess *session.Session) (subtotal, fee, total int64, mode model.FulfillmentMode)
	SubmitOrder(ctx context.Context, sess *session.Session) (*model.Order, error)
}

// Handler реализует HTTP-обработчики публичной страницы заказов.
type Handler struct {
	service           Service
	logger            *zap.Logger
	sessionMiddleware *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, sm *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:           s,
		logger:            logger,
		sessionMiddleware: sm,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func cents(v int64) float64 {
	return float64(v) / 100
}

func (h *Handler) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		h.logger.Error("session missing in request context")
		writeError(w, http.StatusInternalServerError, "session unavailable", "")
		return nil, false
	}
	return sess, true
}

type menuItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
	Image       string  `json:"image,omitempty"`
}

type menuSectionResponse struct {
	ID    int64              `json:"id"`
	Name  string             `json:"name"`
	Items []menuItemResponse `json:"items"`
}

type menuResponse struct {
	Sections        []menuSectionResponse `json:"sections"`
	DeliveryOffered bool                  `json:"delivery_offered"`
	DeliveryFee     float64               `json:"delivery_fee"`
}

// GetMenu возвращает каталог и настройки доставки для отрисовки страницы.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	sections, err := h.service.GetMenu(r.Context())
	if err != nil {
		h.logger.Error("get menu error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "menu unavailable", "")
		return
	}

	cfg := h.service.MenuConfig()

	resp := menuResponse{
		Sections:        make([]menuSectionResponse, 0, len(sections)),
		DeliveryOffered: cfg.AllowDelivery,
		DeliveryFee:     cents(cfg.DeliveryFeeCents),
	}
	for _, s := range sections {
		sec := menuSectionResponse{
			ID:    s.ID,
			Name:  s.Name,
			Items: make([]menuItemResponse, 0, len(s.Items)),
		}
		for _, it := range s.Items {
			sec.Items = append(sec.Items, menuItemResponse{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				Price:       cents(it.PriceCents),
				Available:   it.Available,
				Image:       it.ImageRef,
			})
		}
		resp.Sections = append(resp.Sections, sec)
	}

	writeJSON(w, http.StatusOK, resp)
}

type cartLineResponse struct {
	ItemID    int64   `json:"item_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
	LineTotal float64 `json:"line_total"`
}

type cartResponse struct {
	Items     []cartLineResponse `json:"items"`
	Subtotal  float64            `json:"subtotal"`
	ItemCount int                `json:"item_count"`
}

func (h *Handler) writeCart(w http.ResponseWriter, sess *session.Session) {
	lines, subtotal, count := h.service.CartState(sess)

	resp := cartResponse{
		Items:     make([]cartLineResponse, 0, len(lines)),
		Subtotal:  cents(subtotal),
		ItemCount: count,
	}
	for _, l := range lines {
		resp.Items = append(resp.Items, cartLineResponse{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: cents(l.UnitPriceCents),
			Quantity:  l.Quantity,
			Note:      l.Note,
			LineTotal: cents(l.UnitPriceCents * int64(l.Quantity)),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCart возвращает текущее содержимое корзины.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}
	h.writeCart(w, sess)
}

type addCartItemRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// AddCartItem добавляет позицию каталога в корзину.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	err := h.service.AddCartItem(r.Context(), sess, req.ItemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMenuItemNotFound):
			writeError(w, http.StatusNotFound, "menu item not found", "")
		case errors.Is(err, cart.ErrItemUnavailable):
			writeError(w, http.StatusConflict, "item is not available", "item_unavailable")
		default:
			h.logger.Error("add cart item error", zap.Error(err), zap.Int64("itemID", req.ItemID))
			writeError(w, http.StatusInternalServerError, "could not add item", "")
		}
		return
	}

	h.writeCart(w, sess)
}

type updateCartLineRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Note     *string `json:"note,omitempty"`
}

// UpdateCartLine меняет количество или комментарий позиции корзины.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	itemID, err := pathID(r, "itemID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id", "")
		return
	}

	var req updateCartLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if req.Quantity == nil && req.Note == nil {
		writeError(w, http.StatusBadRequest, "nothing to update", "")
		return
	}

	if req.Quantity != nil {
		if err := h.service.SetCartQuantity(sess, itemID, *req.Quantity); err != nil {
			h.writeCartLineError(w, err)
			return
		}
	}

	if req.Note != nil {
		if err := h.service.SetCartNote(sess, itemID, *req.Note); err != nil {
			h.writeCartLineError(w, err)
			return
		}
	}

	h.writeCart(w, sess)
}

func (h *Handler) writeCartLineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "cart line not found", "")
	case errors.Is(err, cart.ErrNoteTooLong):
		writeError(w, http.StatusUnprocessableEntity, "note is too long", "note_too_long")
	default:
		writeError(w, http.StatusInternalServerError, "could not update cart", "")
	}
}

// RemoveCartItem убирает позицию из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	itemID, err := pathID(r, "itemID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id", "")
		return
	}

	if err := h.service.RemoveCartItem(sess, itemID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "cart line not found", "")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not update cart", "")
		return
	}

	h.writeCart(w, sess)
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	h.service.ClearCart(sess)
	w.WriteHeader(http.StatusNoContent)
}

type customerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type searchCustomerRequest struct {
	Phone string `json:"phone"`
}

type searchCustomerResponse struct {
	Found                bool              `json:"found"`
	Customer             *customerResponse `json:"customer,omitempty"`
	RegistrationRequired bool              `json:"registration_required,omitempty"`
	Phone                string            `json:"phone,omitempty"`
}

// SearchCustomer ищет клиента по телефону. Отсутствие клиента — не ошибка:
// ответ предлагает регистрацию с предзаполненным телефоном.
func (h *Handler) SearchCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req searchCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	customer, found, err := h.service.SearchCustomer(r.Context(), sess, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			writeError(w, http.StatusUnprocessableEntity, "phone must have at least 10 digits", "invalid_phone")
		case errors.Is(err, service.ErrBusy):
			writeError(w, http.StatusConflict, "search already in progress", "busy")
		default:
			h.logger.Error("search customer error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "search failed", "")
		}
		return
	}

	if !found {
		writeJSON(w, http.StatusOK, searchCustomerResponse{
			RegistrationRequired: true,
			Phone:                req.Phone,
		})
		return
	}

	writeJSON(w, http.StatusOK, searchCustomerResponse{
		Found: true,
		Customer: &customerResponse{
			ID:    customer.ID,
			Name:  customer.Name,
			Phone: customer.Phone,
		},
	})
}

type registerCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RegisterCustomer создаёт нового клиента по данным формы регистрации.
func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req registerCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	customer, err := h.service.RegisterCustomer(r.Context(), sess, req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired):
			writeError(w, http.StatusUnprocessableEntity, "name is required", "name_required")
		case errors.Is(err, service.ErrInvalidPhone):
			writeError(w, http.StatusUnprocessableEntity, "phone must have at least 10 digits", "invalid_phone")
		case errors.Is(err, repository.ErrCustomerExists):
			writeError(w, http.StatusConflict, "customer with this phone already exists", "customer_exists")
		case errors.Is(err, service.ErrBusy):
			writeError(w, http.StatusConflict, "registration already in progress", "busy")
		default:
			h.logger.Error("register customer error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "registration failed", "")
		}
		return
	}

	writeJSON(w, http.StatusCreated, customerResponse{
		ID:    customer.ID,
		Name:  customer.Name,
		Phone: customer.Phone,
	})
}

// ResetCustomer сбрасывает выбранного клиента и всё зависящее от него состояние.
func (h *Handler) ResetCustomer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	h.service.ResetCustomer(sess)
	w.WriteHeader(http.StatusNoContent)
}

type addressResponse struct {
	ID           int64  `json:"id"`
	PostalCode   string `json:"postal_code,omitempty"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Complement   string `json:"complement,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

func toAddressResponse(a model.Address) addressResponse {
	return addressResponse{
		ID:           a.ID,
		PostalCode:   a.PostalCode,
		Street:       a.Street,
		Number:       a.Number,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		Complement:   a.Complement,
		Reference:    a.Reference,
	}
}

type addressListResponse struct {
	Addresses  []addressResponse `json:"addresses"`
	SelectedID int64             `json:"selected_id,omitempty"`
}

// GetAddresses возвращает адресную книгу текущего клиента.
func (h *Handler) GetAddresses(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	addresses, selectedID, err := h.service.Addresses(sess)
	if err != nil {
		if errors.Is(err, service.ErrNoCustomer) {
			writeError(w, http.StatusUnprocessableEntity, "resolve a customer first", "no_customer")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not list addresses", "")
		return
	}

	resp := addressListResponse{
		Addresses:  make([]addressResponse, 0, len(addresses)),
		SelectedID: selectedID,
	}
	for _, a := range addresses {
		resp.Addresses = append(resp.Addresses, toAddressResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

type createAddressRequest struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Complement   string `json:"complement"`
	Reference    string `json:"reference"`
}

// CreateAddress создаёт адрес клиента. Созданный адрес становится выбранным.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req createAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	created, err := h.service.CreateAddress(r.Context(), sess, service.AddressForm{
		PostalCode:   req.PostalCode,
		Street:       req.Street,
		Number:       req.Number,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		Complement:   req.Complement,
		Reference:    req.Reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAddressFieldsMissing):
			writeError(w, http.StatusUnprocessableEntity, err.Error(), "address_fields_missing")
		case errors.Is(err, service.ErrNoCustomer):
			writeError(w, http.StatusUnprocessableEntity, "resolve a customer first", "no_customer")
		case errors.Is(err, service.ErrBusy):
			writeError(w, http.StatusConflict, "address operation already in progress", "busy")
		default:
			h.logger.Error("create address error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not create address", "")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toAddressResponse(*created))
}

// SelectAddress делает адрес выбранным для доставки.
func (h *Handler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	addressID, err := pathID(r, "addressID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address id", "")
		return
	}

	if err := h.service.SelectAddress(sess, addressID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoCustomer):
			writeError(w, http.StatusUnprocessableEntity, "resolve a customer first", "no_customer")
		case errors.Is(err, repository.ErrAddressNotFound):
			writeError(w, http.StatusNotFound, "address not found", "")
		default:
			writeError(w, http.StatusInternalServerError, "could not select address", "")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAddress удаляет адрес клиента. Единственный адрес удалить нельзя.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	addressID, err := pathID(r, "addressID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address id", "")
		return
	}

	if err := h.service.DeleteAddress(r.Context(), sess, addressID); err != nil {
		switch {
		case errors.Is(err, service.ErrLastAddress):
			writeError(w, http.StatusConflict, "keep at least one address", "last_address")
		case errors.Is(err, service.ErrNoCustomer):
			writeError(w, http.StatusUnprocessableEntity, "resolve a customer first", "no_customer")
		case errors.Is(err, repository.ErrAddressNotFound):
			writeError(w, http.StatusNotFound, "address not found", "")
		case errors.Is(err, service.ErrBusy):
			writeError(w, http.StatusConflict, "address operation already in progress", "busy")
		default:
			h.logger.Error("delete address error", zap.Error(err), zap.Int64("addressID", addressID))
			writeError(w, http.StatusInternalServerError, "could not delete address", "")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type postalCodeResponse struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// ResolvePostalCode определяет часть адреса по индексу для подстановки в форму.
// Сбой сервиса индексов не блокирует ручной ввод: страница лишь показывает сообщение.
func (h *Handler) ResolvePostalCode(w http.ResponseWriter, r *http.Request) {
	code := pathValue(r, "code")

	info, err := h.service.ResolvePostalCode(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPostalCode):
			writeError(w, http.StatusUnprocessableEntity, "postal code must have 8 digits", "invalid_postal_code")
		case errors.Is(err, cep.ErrNotFound):
			writeError(w, http.StatusNotFound, "postal code not found", "")
		default:
			h.logger.Error("resolve postal code error", zap.Error(err), zap.String("code", code))
			writeError(w, http.StatusBadGateway, "postal code lookup failed", "")
		}
		return
	}

	writeJSON(w, http.StatusOK, postalCodeResponse{
		Street:       info.Street,
		Neighborhood: info.Neighborhood,
		City:         info.City,
		State:        info.State,
	})
}

type fulfillmentRequest struct {
	Mode string `json:"mode"`
}

// SetFulfillment задаёт способ получения заказа.
func (h *Handler) SetFulfillment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req fulfillmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if err := h.service.SetFulfillment(sess, model.FulfillmentMode(req.Mode)); err != nil {
		if errors.Is(err, service.ErrDeliveryDisabled) {
			writeError(w, http.StatusConflict, "delivery is not offered", "delivery_disabled")
			return
		}
		writeError(w, http.StatusBadRequest, "unknown fulfillment mode", "")
		return
	}

	h.GetQuote(w, r)
}

type quoteResponse struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Total       float64 `json:"total"`
	Fulfillment string  `json:"fulfillment"`
}

// GetQuote возвращает сумму корзины и итог с учётом способа получения.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	subtotal, fee, total, mode := h.service.Quote(sess)

	writeJSON(w, http.StatusOK, quoteResponse{
		Subtotal:    cents(subtotal),
		DeliveryFee: cents(fee),
		Total:       cents(total),
		Fulfillment: string(mode),
	})
}

type orderItemResponse struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
}

type orderResponse struct {
	Number          string              `json:"number"`
	Items           []orderItemResponse `json:"items"`
	Total           float64             `json:"total"`
	Fulfillment     string              `json:"fulfillment"`
	DeliveryAddress *addressResponse    `json:"delivery_address,omitempty"`
	PaymentStatus   string              `json:"payment_status"`
	CreatedAt       string              `json:"created_at"`
}

// SubmitOrder оформляет заказ из текущего состояния сессии.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	order, err := h.service.SubmitOrder(r.Context(), sess)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			writeError(w, http.StatusUnprocessableEntity, "add items to the cart first", "empty_cart")
		case errors.Is(err, service.ErrNoCustomer):
			writeError(w, http.StatusUnprocessableEntity, "resolve a customer first", "no_customer")
		case errors.Is(err, service.ErrNoAddresses):
			writeError(w, http.StatusUnprocessableEntity, "create a delivery address first", "no_addresses")
		case errors.Is(err, service.ErrNoAddressSelected):
			writeError(w, http.StatusUnprocessableEntity, "select a delivery address first", "no_address_selected")
		case errors.Is(err, service.ErrBusy):
			writeError(w, http.StatusConflict, "order submission already in progress", "busy")
		default:
			h.logger.Error("submit order error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not submit order", "")
		}
		return
	}

	resp := orderResponse{
		Number:        order.Number,
		Items:         make([]orderItemResponse, 0, len(order.Items)),
		Total:         cents(order.TotalCents),
		Fulfillment:   string(order.Fulfillment),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			Name:      it.Name,
			UnitPrice: cents(it.UnitPriceCents),
			Quantity:  it.Quantity,
			Note:      it.Note,
		})
	}
	if order.DeliveryAddress != nil {
		addr := toAddressResponse(*order.DeliveryAddress)
		resp.DeliveryAddress = &addr
	}

	writeJSON(w, http.StatusCreated, resp)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(pathValue(r, name), 10, 64)
}
