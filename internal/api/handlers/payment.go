package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imovlocal/backend/internal/api/dto"
	"github.com/imovlocal/backend/internal/domain/payment"
	"github.com/imovlocal/backend/internal/pkg/errors"
	"github.com/imovlocal/backend/internal/pkg/logger"
	"github.com/imovlocal/backend/internal/pkg/utils"
	"github.com/imovlocal/backend/internal/pkg/validator"
)

// ReceiptField is the multipart field carrying the receipt file
const ReceiptField = "receipt"

// multipart framing allowance on top of the receipt size limit
const multipartOverhead = 1 << 20

// PaymentHandler serves the PIX payment flow
type PaymentHandler struct {
	service         payment.Service
	pix             dto.PixInfoDTO
	maxReceiptBytes int64
	logger          *logger.Logger
	validator       *validator.Validator
}

func NewPaymentHandler(service payment.Service, pix dto.PixInfoDTO, maxReceiptBytes int64, log *logger.Logger, val *validator.Validator) *PaymentHandler {
	return &PaymentHandler{
		service:         service,
		pix:             pix,
		maxReceiptBytes: maxReceiptBytes,
		logger:          log,
		validator:       val,
	}
}

// PixInfo returns the PIX receiver
// @Summary PIX receiver
// @Tags Payments
// @Produce json
// @Success 200 {object} dto.PixInfoDTO
// @Security BearerAuth
// @Router /payments/pix-info [get]
func (h *PaymentHandler) PixInfo(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.pix)
}

// Create starts a payment for a plan
// @Summary Create payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentRequest true "Plan"
// @Success 201 {object} dto.PaymentInstructionsDTO
// @Failure 400 {object} utils.ErrorResponse "Unknown plan or wrong account type"
// @Failure 409 {object} utils.ErrorResponse "A payment is already in progress"
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreatePaymentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), u, req.PlanID)
	if err != nil {
		respondError(w, h.logger, err, "Failed to create payment")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.PaymentInstructionsDTO{
		Payment:   p,
		Pix:       h.pix,
		ExpiresAt: p.ExpiresAt,
		NextStep:  "Faça o PIX e envie o comprovante",
	})
}

// ListMine returns the caller's payments
// @Summary List my payments
// @Tags Payments
// @Produce json
// @Param status query string false "Payment status"
// @Success 200 {array} payment.Payment
// @Security BearerAuth
// @Router /payments/mine [get]
func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListMine(r.Context(), u, payment.Status(r.URL.Query().Get("status")))
	if err != nil {
		respondError(w, h.logger, err, "Failed to list payments")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, emptyIfNil(payments))
}

// CurrentPlan describes the caller's plan
// @Summary Current plan
// @Tags Payments
// @Produce json
// @Success 200 {object} payment.CurrentPlan
// @Security BearerAuth
// @Router /payments/current-plan [get]
func (h *PaymentHandler) CurrentPlan(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	cp, err := h.service.CurrentPlan(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to get current plan")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, cp)
}

// UploadReceipt attaches the transfer receipt and queues the payment for review
// @Summary Upload receipt
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Payment ID"
// @Param receipt formData file true "JPEG, PNG, WEBP or PDF receipt"
// @Success 200 {object} payment.Payment
// @Failure 400 {object} utils.ErrorResponse "Invalid file or payment state"
// @Failure 403 {object} utils.ErrorResponse "Not the payer"
// @Failure 404 {object} utils.ErrorResponse "Payment not found"
// @Security BearerAuth
// @Router /payments/{id}/receipt [post]
func (h *PaymentHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxReceiptBytes+multipartOverhead)
	file, header, err := r.FormFile(ReceiptField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			utils.WriteError(w, errors.ValidationError("Receipt is too large", map[string]string{"field": ReceiptField}))
			return
		}
		utils.WriteError(w, errors.BadRequest("Missing receipt file"))
		return
	}
	defer file.Close()

	// one byte past the limit lets the service report the size error
	data, err := io.ReadAll(io.LimitReader(file, h.maxReceiptBytes+1))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Could not read receipt file"))
		return
	}

	p, err := h.service.UploadReceipt(r.Context(), chi.URLParam(r, "id"), u, payment.Receipt{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		respondError(w, h.logger, err, "Failed to upload receipt")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Comprovante enviado. Aguarde a aprovação.", p)
}

// Cancel withdraws an open payment
// @Summary Cancel payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} payment.Payment
// @Failure 400 {object} utils.ErrorResponse "Payment is not open"
// @Failure 403 {object} utils.ErrorResponse "Not the payer"
// @Failure 404 {object} utils.ErrorResponse "Payment not found"
// @Security BearerAuth
// @Router /payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to cancel payment")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, p)
}

// AdminList lists every payment
// @Summary List payments (admin)
// @Tags Admin
// @Produce json
// @Param status query string false "Payment status"
// @Param user_id query string false "Payer"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} payment.Payment
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Security BearerAuth
// @Router /admin/payments [get]
func (h *PaymentHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	page := utils.ParsePaginationParams(r)
	payments, err := h.service.AdminList(r.Context(), u, payment.Filter{
		UserID: r.URL.Query().Get("user_id"),
		Status: payment.Status(r.URL.Query().Get("status")),
		Skip:   page.Skip,
		Limit:  page.Limit,
	})
	if err != nil {
		respondError(w, h.logger, err, "Failed to list payments")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, emptyIfNil(payments))
}

// AdminGet returns one payment
// @Summary Get payment (admin)
// @Tags Admin
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} payment.Payment
// @Failure 404 {object} utils.ErrorResponse "Payment not found"
// @Security BearerAuth
// @Router /admin/payments/{id} [get]
func (h *PaymentHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.service.AdminGet(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, "Failed to get payment")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, p)
}

// PendingCount counts receipts waiting for review
// @Summary Pending approval count
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.PendingCountDTO
// @Security BearerAuth
// @Router /admin/payments/pending-count [get]
func (h *PaymentHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.service.PendingApprovalCount(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to count pending payments")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.PendingCountDTO{Count: n})
}

// Stats summarises payments and revenue
// @Summary Payment stats
// @Tags Admin
// @Produce json
// @Success 200 {object} payment.Stats
// @Security BearerAuth
// @Router /admin/payments/stats [get]
func (h *PaymentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), u)
	if err != nil {
		respondError(w, h.logger, err, "Failed to get payment stats")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, stats)
}

// Review approves or rejects a receipt
// @Summary Review payment
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body dto.ReviewPaymentRequest true "Decision"
// @Success 200 {object} dto.ReviewPaymentResponse
// @Failure 400 {object} utils.ErrorResponse "Payment is not awaiting approval"
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Failure 404 {object} utils.ErrorResponse "Payment not found"
// @Security BearerAuth
// @Router /admin/payments/{id}/review [post]
func (h *PaymentHandler) Review(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.ReviewPaymentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	res, err := h.service.Review(r.Context(), chi.URLParam(r, "id"), u, req.ToReview())
	if err != nil {
		respondError(w, h.logger, err, "Failed to review payment")
		return
	}

	msg := "Pagamento rejeitado"
	if res.Payment.Status == payment.StatusApproved {
		msg = "Pagamento aprovado"
	}
	utils.WriteSuccess(w, http.StatusOK, dto.ReviewPaymentResponse{
		Message:       msg,
		Payment:       res.Payment,
		PlanExpiresAt: res.PlanExpiresAt,
	})
}
