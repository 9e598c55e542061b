package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/slydr-labs/rights-ledger/pkg/rightsledger"
)

// ErrorResponse is the JSON body returned for every failed request. Code
// carries the ledger's error taxonomy name verbatim.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusByCode maps taxonomy codes onto HTTP statuses. Codes not listed
// here are treated as internal errors.
var statusByCode = map[string]int{
	"InvalidRoyaltyPercentage": http.StatusUnprocessableEntity,
	"InvalidContentId":         http.StatusUnprocessableEntity,
	"InvalidStorageRef":        http.StatusUnprocessableEntity,
	"InvalidPrice":             http.StatusUnprocessableEntity,
	"InvalidFeeAmount":         http.StatusUnprocessableEntity,
	"InvalidRentalPrice":       http.StatusUnprocessableEntity,
	"InvalidRentalDuration":    http.StatusUnprocessableEntity,
	"InvalidSubscriptionTier":  http.StatusUnprocessableEntity,
	"InsufficientFunds":        http.StatusPaymentRequired,
	"NotAuthorized":            http.StatusForbidden,
	"NoResaleRights":           http.StatusForbidden,
	"ContentNotActive":         http.StatusConflict,
	"RentalNotEnabled":         http.StatusConflict,
	"PurchaseExpired":          http.StatusConflict,
	"PlatformExists":           http.StatusConflict,
	"ContentExists":            http.StatusConflict,
	"PlatformNotFound":         http.StatusNotFound,
	"ContentNotFound":          http.StatusNotFound,
	"PurchaseNotFound":         http.StatusNotFound,
	"RentalNotFound":           http.StatusNotFound,
	"SubscriptionNotFound":     http.StatusNotFound,
}

// writeError renders a ledger error with its taxonomy code and the status
// it maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := rightsledger.ErrorCode(err)

	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = err.Error()

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	var resp ErrorResponse
	resp.Error.Code = "BadRequest"
	resp.Error.Message = message

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, resp)
}
