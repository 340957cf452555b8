package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/internal/wire"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	load := h.catalog.Products
	if refresh(r) {
		load = h.catalog.RefreshProducts
	}
	list, err := load(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str(listStatus(len(list))) })
			e.Field("products", func(e *jx.Encoder) { wire.EncodeProducts(e, list) })
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	load := h.catalog.Product
	if refresh(r) {
		load = h.catalog.RefreshProduct
	}
	p, err := load(r.Context(), id)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeProduct(w, http.StatusOK, p, nil)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, err := readJSON(w, r, wire.DecodeCreateRequest)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var notes catalog.Notifications
	p, err := h.catalog.CreateProduct(r.Context(), req, &notes)
	if err != nil {
		writeError(w, r, err, notes.All())
		return
	}
	writeProduct(w, http.StatusCreated, p, notes.All())
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	edit, err := readJSON(w, r, wire.DecodeEdit)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var notes catalog.Notifications
	p, err := h.catalog.UpdateProduct(r.Context(), id, edit, &notes)
	if err != nil {
		writeError(w, r, err, notes.All())
		return
	}
	writeProduct(w, http.StatusOK, p, notes.All())
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	var notes catalog.Notifications
	if err := h.catalog.DeleteProduct(r.Context(), id, &notes); err != nil {
		writeError(w, r, err, notes.All())
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes.All()) })
		})
	})
}

func (h *Handler) syncProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	p, err := h.catalog.SyncProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeProduct(w, http.StatusOK, p, nil)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	load := h.catalog.Categories
	if refresh(r) {
		load = h.catalog.RefreshCategories
	}
	cs, err := load(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str(listStatus(len(cs))) })
			e.Field("categories", func(e *jx.Encoder) { wire.EncodeCategories(e, cs) })
		})
	})
}

func writeProduct(w http.ResponseWriter, status int, p product.Product, notes []catalog.Notification) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			e.Field("product", func(e *jx.Encoder) { wire.EncodeProduct(e, p) })
			if notes != nil {
				e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
			}
		})
	})
}

