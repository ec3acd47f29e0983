package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
	"github.com/vladislavdragonenkov/concessions/internal/presenter"
	"github.com/vladislavdragonenkov/concessions/internal/service/cart"
	"github.com/vladislavdragonenkov/concessions/internal/service/idempotency"
	concessionsv1 "github.com/vladislavdragonenkov/concessions/proto/concessions/v1"
)

const checkoutScope = "POST " + basePath + "/carts/:id/checkout"

type handler struct {
	carts  *cart.Service
	guard  *idempotency.Guard
	logger *log.Entry
}

type addItemBody struct {
	MenuItemID int64 `json:"menu_item_id" binding:"required"`
}

type seatBody struct {
	SeatNumber string `json:"seat_number"`
}

func (h *handler) listMenu(c *gin.Context) {
	c.JSON(http.StatusOK, &concessionsv1.ListMenuResponse{Items: presenter.Menu(h.carts.Menu())})
}

func (h *handler) openCart(c *gin.Context) {
	opened, err := h.carts.Open(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", basePath+"/carts/"+opened.ID)
	c.JSON(http.StatusCreated, &concessionsv1.OpenCartResponse{Cart: presenter.Cart(opened)})
}

func (h *handler) getCart(c *gin.Context) {
	found, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, &concessionsv1.GetCartResponse{Cart: presenter.Cart(found)})
}

func (h *handler) addItem(c *gin.Context) {
	var body addItemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, codeBadRequest, "menu_item_id is required")
		return
	}
	updated, err := h.carts.AddItem(c.Request.Context(), c.Param("id"), body.MenuItemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, &concessionsv1.AddItemResponse{Cart: presenter.Cart(updated)})
}

func (h *handler) removeItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, domain.CodeInvalidIndex, "index must be an integer")
		return
	}
	updated, err := h.carts.RemoveItem(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, &concessionsv1.RemoveItemResponse{Cart: presenter.Cart(updated)})
}

func (h *handler) setSeatNumber(c *gin.Context) {
	var body seatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, codeBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.carts.SetSeatNumber(c.Request.Context(), c.Param("id"), body.SeatNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, &concessionsv1.SetSeatNumberResponse{Cart: presenter.Cart(updated)})
}

func (h *handler) checkout(c *gin.Context) {
	cartID := c.Param("id")
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))

	resp, err := idempotency.Do(c.Request.Context(), h.guard, checkoutScope, key, &concessionsv1.CheckoutRequest{CartId: cartID},
		func(ctx context.Context) (*concessionsv1.CheckoutResponse, error) {
			receipt, err := h.carts.Checkout(ctx, cartID)
			if err != nil {
				return nil, err
			}
			out := &concessionsv1.CheckoutResponse{Receipt: presenter.Receipt(receipt)}
			if reset, getErr := h.carts.Get(ctx, cartID); getErr == nil {
				out.Cart = presenter.Cart(reset)
			}
			return out, nil
		})
	if err != nil {
		h.fail(c, err)
		return
	}
	if key != "" {
		c.Header(IdempotencyKeyHeader, key)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) closeCart(c *gin.Context) {
	if err := h.carts.Close(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
