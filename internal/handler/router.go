package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/sweetshop-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware страницы заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.GetMenu)
		r.Get("/cep/{code}", h.ResolvePostalCode)

		r.Group(func(r chi.Router) {
			r.Use(h.sessionMiddleware.Middleware)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Patch("/cart/items/{itemID}", h.UpdateCartLine)
			r.Delete("/cart/items/{itemID}", h.RemoveCartItem)
			r.Delete("/cart", h.ClearCart)

			r.Post("/customer/search", h.SearchCustomer)
			r.Post("/customer/register", h.RegisterCustomer)
			r.Post("/customer/reset", h.ResetCustomer)

			r.Get("/addresses", h.GetAddresses)
			r.Post("/addresses", h.CreateAddress)
			r.Post("/addresses/{addressID}/select", h.SelectAddress)
			r.Delete("/addresses/{addressID}", h.DeleteAddress)

			r.Put("/fulfillment", h.SetFulfillment)
			r.Get("/quote", h.GetQuote)

			r.Post("/orders", h.SubmitOrder)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

func pathValue(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
