package lessonserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	ordersports "github.com/Apurer/school-activities-api/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets clients retry order placement safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderPlaced is the success body of POST /place-order.
type OrderPlaced struct {
	Msg     string `json:"msg"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// OrderAPI serves order placement.
type OrderAPI struct {
	service ordersports.Service
}

// NewOrderAPI creates an OrderAPI backed by the orders service.
func NewOrderAPI(service ordersports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Post /place-order
// Stores an order and decrements inventory for every cart item
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		problems.Respond(c, incompleteBodyProblem())
		return
	}
	receipt, err := api.service.PlaceOrder(c.Request.Context(), ordersports.PlaceOrderInput{
		Body:           docdomain.Document(body),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrderPlaced{
		Msg:     "Order placed successfully!",
		OrderID: receipt.OrderID,
		Status:  string(receipt.Status),
	})
}
