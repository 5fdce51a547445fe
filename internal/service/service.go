// Package service реализует бизнес-логику оформления заказа кондитерской.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"

	"github.com/mmeshcher/sweetshop-system/internal/cep"
	"github.com/mmeshcher/sweetshop-system/internal/model"
	"github.com/mmeshcher/sweetshop-system/internal/repository"
	"github.com/mmeshcher/sweetshop-system/internal/session"
	"github.com/mmeshcher/sweetshop-system/internal/validation"
)

// ErrInvalidPhone возвращается, если телефон содержит меньше десяти цифр.
var (
	ErrInvalidPhone = errors.New("invalid phone")
	// ErrInvalidPostalCode возвращается, если почтовый индекс не состоит из восьми цифр.
	ErrInvalidPostalCode = errors.New("invalid postal code")
	// ErrNameRequired возвращается при регистрации без имени.
	ErrNameRequired = errors.New("name is required")
	// ErrBusy возвращается, если такая же операция этой сессии ещё выполняется.
	ErrBusy = errors.New("operation already in progress")
	// ErrNoCustomer возвращается, если клиент ещё не найден и не зарегистрирован.
	ErrNoCustomer = errors.New("customer is not resolved")
	// ErrEmptyCart возвращается при попытке оформить заказ с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoAddressSelected возвращается, если для доставки не выбран адрес.
	ErrNoAddressSelected = errors.New("no address selected")
	// ErrNoAddresses возвращается, если для доставки нужен адрес, а адресная книга пуста.
	// Страница в этом случае сразу открывает форму создания адреса.
	ErrNoAddresses = errors.New("customer has no addresses")
	// ErrLastAddress возвращается при попытке удалить единственный адрес клиента.
	ErrLastAddress = errors.New("cannot delete the only address")
	// ErrDeliveryDisabled возвращается при выборе доставки, когда меню её не предлагает.
	ErrDeliveryDisabled = errors.New("delivery is not offered")
	// ErrAddressFieldsMissing возвращается, если не заполнено обязательное поле адреса.
	ErrAddressFieldsMissing = errors.New("required address field is missing")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	GetMenu(ctx context.Context) ([]model.MenuSection, error)
	GetMenuItem(ctx context.Context, itemID int64) (*model.MenuItem, error)
	CreateCustomer(ctx context.Context, name, phone string) (*model.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)
	ListAddresses(ctx context.Context, customerID int64) ([]model.Address, error)
	CreateAddress(ctx context.Context, addr model.Address) (*model.Address, error)
	DeleteAddress(ctx context.Context, customerID, addressID int64) error
	CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error)
}

// PostalResolver описывает контракт сервиса определения адреса по индексу.
type PostalResolver interface {
	Resolve(ctx context.Context, code string) (*cep.AddressInfo, error)
}

// Service содержит бизнес-логику оформления заказа.
type Service struct {
	repo      Repository
	cepClient PostalResolver
	menuCfg   model.MenuConfig
	idNode    *snowflake.Node
}

// NewService создаёт новый сервис с указанным репозиторием, клиентом
// почтовых индексов и настройками меню.
func NewService(repo Repository, cepClient PostalResolver, menuCfg model.MenuConfig) (*Service, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("create id node: %w", err)
	}

	return &Service{
		repo:      repo,
		cepClient: cepClient,
		menuCfg:   menuCfg,
		idNode:    node,
	}, nil
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// MenuConfig возвращает настройки меню.
func (s *Service) MenuConfig() model.MenuConfig {
	return s.menuCfg
}

// GetMenu возвращает каталог для отображения на странице заказов.
func (s *Service) GetMenu(ctx context.Context) ([]model.MenuSection, error) {
	return s.repo.GetMenu(ctx)
}

// AddCartItem добавляет позицию каталога в корзину сессии.
func (s *Service) AddCartItem(ctx context.Context, sess *session.Session, itemID int64, quantity int) error {
	item, err := s.repo.GetMenuItem(ctx, itemID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	return sess.Cart.Add(*item, quantity)
}

// SetCartQuantity задаёт количество для позиции корзины. Неположительное количество удаляет её.
func (s *Service) SetCartQuantity(sess *session.Session, itemID int64, quantity int) error {
	sess.Lock()
	defer sess.Unlock()
	return sess.Cart.SetQuantity(itemID, quantity)
}

// SetCartNote задаёт комментарий к позиции корзины.
func (s *Service) SetCartNote(sess *session.Session, itemID int64, note string) error {
	sess.Lock()
	defer sess.Unlock()
	return sess.Cart.SetNote(itemID, note)
}

// RemoveCartItem убирает позицию из корзины.
func (s *Service) RemoveCartItem(sess *session.Session, itemID int64) error {
	sess.Lock()
	defer sess.Unlock()
	return sess.Cart.Remove(itemID)
}

// ClearCart очищает корзину сессии.
func (s *Service) ClearCart(sess *session.Session) {
	sess.Lock()
	defer sess.Unlock()
	sess.Cart.Clear()
}

// CartState возвращает позиции корзины, её сумму и количество единиц.
func (s *Service) CartState(sess *session.Session) ([]model.CartLine, int64, int) {
	sess.Lock()
	defer sess.Unlock()
	return sess.Cart.Lines(), sess.Cart.SubtotalCents(), sess.Cart.ItemCount()
}

// SearchCustomer ищет клиента по телефону. Телефон проверяется до обращения
// к хранилищу. Если клиент не найден, сессия переходит к регистрации
// с предзаполненным телефоном: это не ошибка, а штатная ветка.
func (s *Service) SearchCustomer(ctx context.Context, sess *session.Session, phoneRaw string) (*model.Customer, bool, error) {
	phone := validation.NormalizePhone(phoneRaw)
	if !validation.IsValidPhone(phone) {
		return nil, false, ErrInvalidPhone
	}

	if !sess.TryBegin(session.OpCustomerSearch) {
		return nil, false, ErrBusy
	}
	defer sess.End(session.OpCustomerSearch)

	customer, err := s.repo.GetCustomerByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			sess.Lock()
			defer sess.Unlock()

			sess.Customer = nil
			sess.CustomerState = session.CustomerRegistering
			sess.PendingPhone = phone
			sess.ResetDownstream()
			return nil, false, nil
		}
		return nil, false, err
	}

	addresses, err := s.repo.ListAddresses(ctx, customer.ID)
	if err != nil {
		return nil, false, err
	}

	sess.Lock()
	defer sess.Unlock()

	// Смена клиента обязана сбрасывать адресную книгу и способ получения,
	// иначе адрес прежнего клиента останется выбранным.
	sess.ResetDownstream()
	sess.Customer = customer
	sess.CustomerState = session.CustomerFound
	sess.PendingPhone = ""
	sess.Addresses = addresses
	if len(addresses) > 0 {
		sess.SelectedAddressID = addresses[0].ID
	}

	return customer, true, nil
}

// RegisterCustomer создаёт нового клиента. При ошибке сессия остаётся
// в состоянии регистрации, введённые данные не теряются.
func (s *Service) RegisterCustomer(ctx context.Context, sess *session.Session, name, phoneRaw string) (*model.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	phone := validation.NormalizePhone(phoneRaw)
	if !validation.IsValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	if !sess.TryBegin(session.OpCustomerRegister) {
		return nil, ErrBusy
	}
	defer sess.End(session.OpCustomerRegister)

	customer, err := s.repo.CreateCustomer(ctx, name, phone)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	sess.ResetDownstream()
	sess.Customer = customer
	sess.CustomerState = session.CustomerFound
	sess.PendingPhone = ""
	sess.Addresses = nil

	return customer, nil
}

// ResetCustomer возвращает подбор клиента в исходное состояние
// и сбрасывает зависящее от клиента состояние сессии.
func (s *Service) ResetCustomer(sess *session.Session) {
	sess.Lock()
	defer sess.Unlock()
	sess.ResetCustomer()
}

// Addresses возвращает адресную книгу текущего клиента и выбранный адрес.
func (s *Service) Addresses(sess *session.Session) ([]model.Address, int64, error) {
	sess.Lock()
	defer sess.Unlock()

	if sess.CustomerState != session.CustomerFound {
		return nil, 0, ErrNoCustomer
	}

	res := make([]model.Address, len(sess.Addresses))
	copy(res, sess.Addresses)
	return res, sess.SelectedAddressID, nil
}

// AddressForm содержит поля формы создания адреса.
type AddressForm struct {
	PostalCode   string
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
	Complement   string
	Reference    string
}

// sameCustomer сообщает, остаётся ли в сессии тот же клиент, для которого
// начиналась операция. Блокировку сессии держит вызывающая сторона.
func sameCustomer(sess *session.Session, customerID int64) bool {
	return sess.CustomerState == session.CustomerFound &&
		sess.Customer != nil &&
		sess.Customer.ID == customerID
}

func validateAddressForm(form AddressForm) error {
	required := []struct {
		name  string
		value string
	}{
		{"street", form.Street},
		{"number", form.Number},
		{"neighborhood", form.Neighborhood},
		{"city", form.City},
		{"state", form.State},
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrAddressFieldsMissing, f.name)
		}
	}

	return nil
}

// CreateAddress создаёт адрес текущего клиента. Новый адрес становится выбранным.
func (s *Service) CreateAddress(ctx context.Context, sess *session.Session, form AddressForm) (*model.Address, error) {
	if err := validateAddressForm(form); err != nil {
		return nil, err
	}

	sess.Lock()
	if sess.CustomerState != session.CustomerFound {
		sess.Unlock()
		return nil, ErrNoCustomer
	}
	customerID := sess.Customer.ID
	sess.Unlock()

	if !sess.TryBegin(session.OpAddressWrite) {
		return nil, ErrBusy
	}
	defer sess.End(session.OpAddressWrite)

	created, err := s.repo.CreateAddress(ctx, model.Address{
		CustomerID:   customerID,
		PostalCode:   validation.NormalizePostalCode(form.PostalCode),
		Street:       strings.TrimSpace(form.Street),
		Number:       strings.TrimSpace(form.Number),
		Neighborhood: strings.TrimSpace(form.Neighborhood),
		City:         strings.TrimSpace(form.City),
		State:        strings.TrimSpace(form.State),
		Complement:   strings.TrimSpace(form.Complement),
		Reference:    strings.TrimSpace(form.Reference),
	})
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	// Пока шёл запрос, клиент мог смениться: адрес прежнего клиента
	// не должен попасть в книгу и выбор нового.
	if !sameCustomer(sess, customerID) {
		return created, nil
	}

	sess.Addresses = append(sess.Addresses, *created)
	sess.SelectedAddressID = created.ID

	return created, nil
}

// SelectAddress делает адрес из адресной книги выбранным для доставки.
func (s *Service) SelectAddress(sess *session.Session, addressID int64) error {
	sess.Lock()
	defer sess.Unlock()

	if sess.CustomerState != session.CustomerFound {
		return ErrNoCustomer
	}

	for _, a := range sess.Addresses {
		if a.ID == addressID {
			sess.SelectedAddressID = addressID
			return nil
		}
	}

	return repository.ErrAddressNotFound
}

// DeleteAddress удаляет адрес клиента. Последний оставшийся адрес удалить
// нельзя: отказ происходит локально, без обращения к хранилищу.
func (s *Service) DeleteAddress(ctx context.Context, sess *session.Session, addressID int64) error {
	sess.Lock()
	if sess.CustomerState != session.CustomerFound {
		sess.Unlock()
		return ErrNoCustomer
	}

	if len(sess.Addresses) <= 1 {
		sess.Unlock()
		return ErrLastAddress
	}

	found := false
	for _, a := range sess.Addresses {
		if a.ID == addressID {
			found = true
			break
		}
	}
	customerID := sess.Customer.ID
	sess.Unlock()

	if !found {
		return repository.ErrAddressNotFound
	}

	if !sess.TryBegin(session.OpAddressWrite) {
		return ErrBusy
	}
	defer sess.End(session.OpAddressWrite)

	if err := s.repo.DeleteAddress(ctx, customerID, addressID); err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	// Сменившийся за время запроса клиент уже получил свежую адресную
	// книгу: её трогать нельзя.
	if !sameCustomer(sess, customerID) {
		return nil
	}

	for i := range sess.Addresses {
		if sess.Addresses[i].ID == addressID {
			sess.Addresses = append(sess.Addresses[:i], sess.Addresses[i+1:]...)
			break
		}
	}

	// Удалённый выбранный адрес снимает выбор: посетитель обязан выбрать
	// или создать другой адрес до оформления доставки.
	if sess.SelectedAddressID == addressID {
		sess.SelectedAddressID = 0
	}

	return nil
}

// ResolvePostalCode определяет часть адреса по почтовому индексу.
// Сбой сервиса индексов не блокирует ручной ввод адреса.
func (s *Service) ResolvePostalCode(ctx context.Context, codeRaw string) (*cep.AddressInfo, error) {
	code := validation.NormalizePostalCode(codeRaw)
	if !validation.IsValidPostalCode(code) {
		return nil, ErrInvalidPostalCode
	}

	return s.cepClient.Resolve(ctx, code)
}

// SetFulfillment задаёт способ получения заказа. Доставка доступна только
// если меню её предлагает.
func (s *Service) SetFulfillment(sess *session.Session, mode model.FulfillmentMode) error {
	if mode != model.FulfillmentPickup && mode != model.FulfillmentDelivery {
		return fmt.Errorf("unknown fulfillment mode: %s", mode)
	}

	if mode == model.FulfillmentDelivery && !s.menuCfg.AllowDelivery {
		return ErrDeliveryDisabled
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Fulfillment = mode
	return nil
}

func (s *Service) feeFor(mode model.FulfillmentMode) int64 {
	if mode == model.FulfillmentDelivery && s.menuCfg.AllowDelivery {
		return s.menuCfg.DeliveryFeeCents
	}
	return 0
}

// Quote возвращает сумму корзины, стоимость доставки и итог для текущего
// способа получения. Если доставка перестала предлагаться, способ
// принудительно возвращается к самовывозу.
func (s *Service) Quote(sess *session.Session) (subtotal, fee, total int64, mode model.FulfillmentMode) {
	sess.Lock()
	defer sess.Unlock()

	if sess.Fulfillment == model.FulfillmentDelivery && !s.menuCfg.AllowDelivery {
		sess.Fulfillment = model.FulfillmentPickup
	}

	subtotal = sess.Cart.SubtotalCents()
	mode = sess.Fulfillment
	fee = s.feeFor(mode)
	total = subtotal + fee
	return subtotal, fee, total, mode
}

// flattenLines собирает строки заказа в одно текстовое описание.
func flattenLines(lines []model.CartLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%dx %s", l.Quantity, l.Name)
		if l.Note != "" {
			fmt.Fprintf(&b, " (%s)", l.Note)
		}
	}
	return b.String()
}

// SubmitOrder проверяет готовность корзины, клиента и адреса и оформляет
// заказ одним обращением к хранилищу. При успехе корзина и состояние сессии
// сбрасываются; при ошибке всё остаётся как было, чтобы посетитель мог
// повторить попытку без повторного ввода.
func (s *Service) SubmitOrder(ctx context.Context, sess *session.Session) (*model.Order, error) {
	if !sess.TryBegin(session.OpOrderSubmit) {
		return nil, ErrBusy
	}
	defer sess.End(session.OpOrderSubmit)

	sess.Lock()

	if sess.Cart.IsEmpty() {
		sess.Unlock()
		return nil, ErrEmptyCart
	}

	if sess.CustomerState != session.CustomerFound {
		sess.Unlock()
		return nil, ErrNoCustomer
	}

	if sess.Fulfillment == model.FulfillmentDelivery && !s.menuCfg.AllowDelivery {
		sess.Fulfillment = model.FulfillmentPickup
	}
	mode := sess.Fulfillment

	var deliveryAddress *model.Address
	if mode == model.FulfillmentDelivery {
		selected := sess.SelectedAddress()
		if selected == nil {
			hasAddresses := len(sess.Addresses) > 0
			sess.Unlock()
			if !hasAddresses {
				return nil, ErrNoAddresses
			}
			return nil, ErrNoAddressSelected
		}
		addrCopy := *selected
		deliveryAddress = &addrCopy
	}

	lines := sess.Cart.Lines()
	subtotal := sess.Cart.SubtotalCents()
	customerID := sess.Customer.ID

	sess.Unlock()

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ItemID:         l.ItemID,
			Name:           l.Name,
			UnitPriceCents: l.UnitPriceCents,
			Quantity:       l.Quantity,
			Note:           l.Note,
		})
	}

	order := &model.Order{
		Number:          s.idNode.Generate().String(),
		CustomerID:      customerID,
		Items:           items,
		Description:     flattenLines(lines),
		TotalCents:      subtotal + s.feeFor(mode),
		Fulfillment:     mode,
		DeliveryAddress: deliveryAddress,
		PaymentStatus:   model.PaymentStatusPending,
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	// Если за время оформления клиент сменился, сбрасывается только
	// корзина: состояние нового клиента не трогаем.
	if sameCustomer(sess, customerID) {
		sess.ResetAll()
	} else {
		sess.Cart.Clear()
	}
	sess.Unlock()

	return created, nil
}
