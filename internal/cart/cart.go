// Package cart реализует корзину посетителя страницы заказов.
package cart

import (
	"errors"

	"github.com/mmeshcher/sweetshop-system/internal/model"
)

// MaxNoteLength ограничивает длину комментария к позиции корзины.
const MaxNoteLength = 200

// ErrItemUnavailable возвращается при попытке добавить недоступную позицию каталога.
var (
	ErrItemUnavailable = errors.New("item is not available")
	// ErrLineNotFound возвращается, если позиции нет в корзине.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrNoteTooLong возвращается, если комментарий превышает допустимую длину.
	ErrNoteTooLong = errors.New("note is too long")
)

// Cart хранит выбранные позиции каталога с количеством и комментариями.
// Состояние живёт только в памяти сессии и сохраняется лишь при оформлении заказа.
type Cart struct {
	lines []model.CartLine
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{}
}

// Add добавляет позицию каталога. Повторное добавление той же позиции
// увеличивает количество вместо создания дубликата.
func (c *Cart) Add(item model.MenuItem, quantity int) error {
	if !item.Available {
		return ErrItemUnavailable
	}
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.lines {
		if c.lines[i].ItemID == item.ID {
			c.lines[i].Quantity += quantity
			return nil
		}
	}

	c.lines = append(c.lines, model.CartLine{
		ItemID:         item.ID,
		Name:           item.Name,
		UnitPriceCents: item.PriceCents,
		Quantity:       quantity,
	})

	return nil
}

// Remove убирает позицию из корзины.
func (c *Cart) Remove(itemID int64) error {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// SetQuantity задаёт количество для позиции. Неположительное количество удаляет позицию.
func (c *Cart) SetQuantity(itemID int64, quantity int) error {
	if quantity <= 0 {
		return c.Remove(itemID)
	}

	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrLineNotFound
}

// SetNote задаёт комментарий к позиции корзины.
func (c *Cart) SetNote(itemID int64, note string) error {
	if len([]rune(note)) > MaxNoteLength {
		return ErrNoteTooLong
	}

	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines[i].Note = note
			return nil
		}
	}
	return ErrLineNotFound
}

// SubtotalCents возвращает сумму корзины без стоимости доставки.
func (c *Cart) SubtotalCents() int64 {
	var sum int64
	for _, l := range c.lines {
		sum += l.UnitPriceCents * int64(l.Quantity)
	}
	return sum
}

// ItemCount возвращает суммарное количество единиц в корзине.
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

// Lines возвращает копию позиций корзины в порядке добавления.
func (c *Cart) Lines() []model.CartLine {
	res := make([]model.CartLine, len(c.lines))
	copy(res, c.lines)
	return res
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.lines = nil
}
