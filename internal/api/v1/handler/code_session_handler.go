package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/cascade"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CodeSessionHandler exposes the access-code draft dialog: one engine
// session per open dialog, driven by selection events and finished by a
// multipart submission.
type CodeSessionHandler struct {
	sessions      *cascade.Manager
	accessCodeSvc service.AccessCodeService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewCodeSessionHandler creates a new CodeSessionHandler
func NewCodeSessionHandler(sessions *cascade.Manager, accessCodeSvc service.AccessCodeService, validate *validator.Validate, logger zerolog.Logger) *CodeSessionHandler {
	return &CodeSessionHandler{
		sessions:      sessions,
		accessCodeSvc: accessCodeSvc,
		validate:      validate,
		logger:        logger,
	}
}

// RegisterRoutes mounts code-session routes
func (h *CodeSessionHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/code-sessions", authMw(http.HandlerFunc(h.openSession)))
	mux.Handle("/code-sessions/", authMw(http.HandlerFunc(h.handleSession)))
}

// openSession godoc
// @Summary Open a draft session
// @Description Opens a new access-code draft dialog and starts loading specialization options.
// @Tags code-sessions
// @Produce json
// @Success 201 {object} dto.SessionResponseDTO
// @Router /code-sessions [post]
func (h *CodeSessionHandler) openSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/code-sessions" {
		http.NotFound(w, r)
		return
	}
	id, sess := h.sessions.Open(r.Context())
	sess.Wait()
	writeJSON(w, http.StatusCreated, dto.SessionResponseDTO{SessionID: id, Snapshot: sess.Snapshot()})
}

// handleSession routes /code-sessions/{id}[/action]
func (h *CodeSessionHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/code-sessions/")
	parts := strings.SplitN(rest, "/", 2)
	sessionID := parts[0]
	if sessionID == "" {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		http.Error(w, "Session not found or expired", http.StatusNotFound)
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, dto.SessionResponseDTO{SessionID: sessionID, Snapshot: sess.Snapshot()})
	case action == "" && r.Method == http.MethodDelete:
		h.sessions.Close(sessionID)
		w.WriteHeader(http.StatusNoContent)
	case action == "select" && r.Method == http.MethodPost:
		h.selectStage(w, r, sessionID, sess)
	case action == "coupon" && r.Method == http.MethodPost:
		h.selectCoupon(w, r, sessionID, sess)
	case action == "price" && r.Method == http.MethodPost:
		h.overridePrice(w, r, sessionID, sess)
	case action == "edit" && r.Method == http.MethodPost:
		h.enterEditMode(w, r, sessionID, sess)
	case action == "submit" && r.Method == http.MethodPost:
		h.submit(w, r, sessionID, sess)
	default:
		http.NotFound(w, r)
	}
}

// selectStage godoc
// @Summary Select a chain stage
// @Description Applies a selection at one stage; downstream stages are cleared and the next stage's options are fetched.
// @Tags code-sessions
// @Accept json
// @Produce json
// @Param selection body dto.SelectRequestDTO true "Stage selection"
// @Success 200 {object} dto.SessionResponseDTO
// @Router /code-sessions/{id}/select [post]
func (h *CodeSessionHandler) selectStage(w http.ResponseWriter, r *http.Request, sessionID string, sess *cascade.Session) {
	var req dto.SelectRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	stage, err := cascade.ParseStage(req.Stage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Select(r.Context(), stage, req.ID); err != nil {
		h.sessionError(w, err)
		return
	}
	// Let the dispatched fetch settle so the response reflects it.
	sess.Wait()
	writeJSON(w, http.StatusOK, dto.SessionResponseDTO{SessionID: sessionID, Snapshot: sess.Snapshot()})
}

// selectCoupon godoc
// @Summary Select or clear the coupon
// @Tags code-sessions
// @Accept json
// @Produce json
// @Param coupon body dto.CouponRequestDTO true "Coupon selection (empty coupon_id clears)"
// @Success 200 {object} dto.SessionResponseDTO
// @Router /code-sessions/{id}/coupon [post]
func (h *CodeSessionHandler) selectCoupon(w http.ResponseWriter, r *http.Request, sessionID string, sess *cascade.Session) {
	var req dto.CouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SelectCoupon(r.Context(), req.CouponID); err != nil {
		h.sessionError(w, err)
		return
	}
	sess.Wait()
	writeJSON(w, http.StatusOK, dto.SessionResponseDTO{SessionID: sessionID, Snapshot: sess.Snapshot()})
}

// overridePrice godoc
// @Summary Override the final price
// @Description Operator correction; pinned until the next level or coupon change.
// @Tags code-sessions
// @Accept json
// @Produce json
// @Param override body dto.PriceOverrideRequestDTO true "Final price in minor units"
// @Success 200 {object} dto.SessionResponseDTO
// @Router /code-sessions/{id}/price [post]
func (h *CodeSessionHandler) overridePrice(w http.ResponseWriter, r *http.Request, sessionID string, sess *cascade.Session) {
	var req dto.PriceOverrideRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.OverrideFinalPrice(*req.Amount); err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SessionResponseDTO{SessionID: sessionID, Snapshot: sess.Snapshot()})
}

// enterEditMode godoc
// @Summary Enter edit mode
// @Description Replays the selection chain from an existing access code. A failed step leaves the chain populated up to the last success.
// @Tags code-sessions
// @Accept json
// @Produce json
// @Param record body dto.EditRequestDTO true "Access code to edit"
// @Success 200 {object} dto.SessionResponseDTO
// @Router /code-sessions/{id}/edit [post]
func (h *CodeSessionHandler) enterEditMode(w http.ResponseWriter, r *http.Request, sessionID string, sess *cascade.Session) {
	var req dto.EditRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	rec, err := h.accessCodeSvc.GetByID(r.Context(), req.AccessCodeID)
	if err != nil {
		http.Error(w, "Failed to load access code: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "Access code not found", http.StatusNotFound)
		return
	}

	err = sess.Replay(r.Context(), rec)
	switch {
	case errors.Is(err, cascade.ErrSessionClosed):
		http.Error(w, "Session closed", http.StatusGone)
		return
	case errors.Is(err, cascade.ErrReplaySuperseded):
		http.Error(w, "Replay superseded by newer activity", http.StatusConflict)
		return
	case err != nil:
		// Partial restore: the snapshot carries the per-stage error and the
		// chain up to the last successful step.
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("edit-mode replay incomplete")
	}
	writeJSON(w, http.StatusOK, dto.SessionResponseDTO{SessionID: sessionID, Snapshot: sess.Snapshot()})
}

// submit godoc
// @Summary Submit the draft
// @Description Validates and issues (or updates) the access code. Multipart: form fields plus a "receipt" file, required on the create path only.
// @Tags code-sessions
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} dto.AccessCodeResponseDTO
// @Failure 400 {string} string "Validation failed"
// @Router /code-sessions/{id}/submit [post]
func (h *CodeSessionHandler) submit(w http.ResponseWriter, r *http.Request, sessionID string, sess *cascade.Session) {
	operatorID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || operatorID == "" {
		http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	form, err := parseSubmitForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(form); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	draft := sess.Draft()
	draft.UserID = form.UserID
	draft.ValidityMonths = form.ValidityMonths
	draft.Notes = form.Notes
	if form.AmountPaid != nil {
		draft.AmountPaid = *form.AmountPaid
	}

	var receipt *service.ReceiptUpload
	if file, header, ferr := r.FormFile("receipt"); ferr == nil {
		defer file.Close()
		receipt = &service.ReceiptUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	}

	var rec *model.AccessCodeRecord
	status := http.StatusCreated
	if form.AccessCodeID == "" {
		rec, err = h.accessCodeSvc.Issue(r.Context(), draft, receipt, operatorID)
	} else {
		rec, err = h.accessCodeSvc.Update(r.Context(), form.AccessCodeID, draft, receipt)
		status = http.StatusOK
	}
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Submission failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// A successful submission clears the draft for the next code.
	if err := sess.Reset(r.Context()); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to reset session after submit")
	}
	writeJSON(w, status, accessCodeResponse(rec, ""))
}

func parseSubmitForm(r *http.Request) (*dto.SubmitFormDTO, error) {
	form := &dto.SubmitFormDTO{
		UserID:       r.FormValue("user_id"),
		Notes:        r.FormValue("notes"),
		AccessCodeID: r.FormValue("access_code_id"),
	}
	if v := r.FormValue("amount_paid"); v != "" {
		amount, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.New("amount_paid must be an integer amount in minor units")
		}
		form.AmountPaid = &amount
	}
	if v := r.FormValue("validity_months"); v != "" {
		months, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("validity_months must be an integer")
		}
		form.ValidityMonths = months
	}
	return form, nil
}

func (h *CodeSessionHandler) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cascade.ErrSessionClosed):
		http.Error(w, "Session closed", http.StatusGone)
	case errors.Is(err, cascade.ErrStageOrder),
		errors.Is(err, cascade.ErrNoLevel):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, cascade.ErrUnknownOption),
		errors.Is(err, cascade.ErrUnknownCoupon),
		errors.Is(err, cascade.ErrUnknownStage),
		errors.Is(err, cascade.ErrNegativeAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func accessCodeResponse(rec *model.AccessCodeRecord, receiptURL string) dto.AccessCodeResponseDTO {
	couponID := ""
	if rec.CouponID != nil {
		couponID = *rec.CouponID
	}
	return dto.AccessCodeResponseDTO{
		AccessCodeID:     rec.AccessCodeID,
		Code:             rec.Code,
		SpecializationID: rec.SpecializationID,
		CourseID:         rec.CourseID,
		InstructorID:     rec.InstructorID,
		LevelID:          rec.LevelID,
		CouponID:         couponID,
		UserID:           rec.UserID,
		AmountPaid:       rec.AmountPaid,
		ValidityMonths:   rec.ValidityMonths,
		Notes:            rec.Notes,
		ReceiptURL:       receiptURL,
		IssuedBy:         rec.IssuedBy,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}
