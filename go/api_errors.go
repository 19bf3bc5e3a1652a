package lessonserver

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	docapp "github.com/Apurer/school-activities-api/internal/domains/documents/application"
	docdomain "github.com/Apurer/school-activities-api/internal/domains/documents/domain"
	docports "github.com/Apurer/school-activities-api/internal/domains/documents/ports"
	ordersapp "github.com/Apurer/school-activities-api/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/school-activities-api/internal/domains/orders/domain"
	searchapp "github.com/Apurer/school-activities-api/internal/domains/search/application"
	apierrors "github.com/Apurer/school-activities-api/internal/shared/errors"
)

// incompleteOrderTitle keeps the wording clients already match on.
const incompleteOrderTitle = "Incomplete order data"

// problems maps every application error the handlers can see onto RFC 7807 bodies.
// Partial placement is checked first: the order exists even when the store later failed.
var problems = apierrors.NewChainedResponder("",
	mapPartialPlacement,
	mapIncompleteOrder,
	apierrors.MapSentinel(docports.ErrUnavailable, apierrors.ErrUnavailable),
	apierrors.MapSentinel(docapp.ErrCollectionNotFound, apierrors.ErrNotFound),
	apierrors.MapSentinel(docapp.ErrInvalidInput, apierrors.ErrBadRequest),
	apierrors.MapSentinel(searchapp.ErrMissingQuery, apierrors.ErrMissingParameter),
	apierrors.MapSentinel(searchapp.ErrInvalidPattern, apierrors.ErrBadRequest),
	apierrors.MapSentinel(ordersapp.ErrInvalidInput, apierrors.ErrBadRequest),
	apierrors.MapSentinel(ordersapp.ErrConflict, apierrors.ErrConflict),
)

func mapPartialPlacement(err error) (apierrors.ProblemDetail, bool) {
	var partial *ordersapp.PartialPlacementError
	if !errors.As(err, &partial) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrPartialPlacement.
		WithDetail(err.Error()).
		WithExtension("orderId", partial.OrderID).
		WithExtension("status", string(partial.Status)), true
}

func mapIncompleteOrder(err error) (apierrors.ProblemDetail, bool) {
	var invalid *ordersdomain.ValidationError
	if !errors.As(err, &invalid) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.NewValidationProblem(incompleteOrderTitle, invalid.Fields).WithDetail(invalid.Error()), true
}

func incompleteBodyProblem() apierrors.ProblemDetail {
	problem := apierrors.ErrValidation.WithDetail(docdomain.ErrNotAnObject.Error())
	problem.Title = incompleteOrderTitle
	return problem
}

func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problems.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	problems.BadRequest(c, err.Error())
}

func trimmedQuery(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}
