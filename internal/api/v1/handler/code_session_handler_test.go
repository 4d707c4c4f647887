package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/internal/api/v1/dto"
	"app/internal/cascade"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"
)

// stubGateway serves a one-path catalog so the handler tests can walk the
// whole dialog without a database.
type stubGateway struct{}

func (stubGateway) Specializations(ctx context.Context) ([]model.Option, error) {
	return []model.Option{{ID: "sp-1", Label: "Mathematics"}}, nil
}

func (stubGateway) CoursesBySpecialization(ctx context.Context, id string) ([]model.Option, error) {
	return []model.Option{{ID: "c-1", Label: "Algebra 1"}}, nil
}

func (stubGateway) InstructorsByCourse(ctx context.Context, id string) ([]model.Option, error) {
	return []model.Option{{ID: "i-1", Label: "Smith", LevelIDs: []string{"l-1"}}}, nil
}

func (stubGateway) LevelsByCourse(ctx context.Context, id string) ([]model.Option, error) {
	return []model.Option{{ID: "l-1", Label: "Beginner", PriceSYP: 1000, PriceUSD: 10}}, nil
}

func (stubGateway) CouponsByLevel(ctx context.Context, id string) ([]model.Coupon, error) {
	return []model.Coupon{
		{CouponID: "cp-1", LevelID: "l-1", Code: "SAVE10", IsPercent: true, DiscountValue: 10, IsActive: true},
	}, nil
}

func (stubGateway) Quote(ctx context.Context, couponID, levelID string) (model.PriceQuote, error) {
	return cascade.Resolve(1000, &model.Coupon{IsPercent: true, DiscountValue: 10}), nil
}

type stubAccessCodeService struct {
	records map[string]*model.AccessCodeRecord
	issued  []model.AccessCodeDraft
}

func (s *stubAccessCodeService) Issue(ctx context.Context, draft model.AccessCodeDraft, receipt *service.ReceiptUpload, issuedBy string) (*model.AccessCodeRecord, error) {
	if receipt == nil {
		return nil, &service.ValidationError{Field: "receipt", Reason: "attachment required"}
	}
	s.issued = append(s.issued, draft)
	return &model.AccessCodeRecord{
		AccessCodeID:     "ac-1",
		Code:             "ABCD234567",
		SpecializationID: draft.SpecializationID,
		CourseID:         draft.CourseID,
		InstructorID:     draft.InstructorID,
		LevelID:          draft.LevelID,
		UserID:           draft.UserID,
		AmountPaid:       draft.AmountPaid,
		IssuedBy:         issuedBy,
	}, nil
}

func (s *stubAccessCodeService) Update(ctx context.Context, accessCodeID string, draft model.AccessCodeDraft, receipt *service.ReceiptUpload) (*model.AccessCodeRecord, error) {
	rec := *s.records[accessCodeID]
	rec.AmountPaid = draft.AmountPaid
	return &rec, nil
}

func (s *stubAccessCodeService) GetByID(ctx context.Context, accessCodeID string) (*model.AccessCodeRecord, error) {
	return s.records[accessCodeID], nil
}

func (s *stubAccessCodeService) GetByCode(ctx context.Context, code string) (*model.AccessCodeRecord, error) {
	for _, rec := range s.records {
		if rec.Code == code {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *stubAccessCodeService) ReceiptURL(ctx context.Context, rec *model.AccessCodeRecord) (string, error) {
	return "", nil
}

// testAuth injects a fixed operator id the way the JWT middleware would.
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserContextKey, "op-1")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestServer(t *testing.T, svc *stubAccessCodeService) *httptest.Server {
	t.Helper()
	if svc == nil {
		svc = &stubAccessCodeService{records: map[string]*model.AccessCodeRecord{}}
	}
	sessions := cascade.NewManager(stubGateway{}, zerolog.Nop(), time.Minute)
	h := NewCodeSessionHandler(sessions, svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, testAuth)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, dto.SessionResponseDTO) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out dto.SessionResponseDTO
	if resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func openDialog(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := postJSON(t, srv.URL+"/code-sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func selectStage(t *testing.T, srv *httptest.Server, sessionID, stage, id string) dto.SessionResponseDTO {
	t.Helper()
	resp, body := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/select",
		dto.SelectRequestDTO{Stage: stage, ID: id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body
}

func TestOpenSessionLoadsRootOptions(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/code-sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, body.Stages[0].Options, 1)
	assert.Equal(t, "sp-1", body.Stages[0].Options[0].ID)
}

func TestSelectChainOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	selectStage(t, srv, sessionID, "specialization", "sp-1")
	selectStage(t, srv, sessionID, "course", "c-1")
	selectStage(t, srv, sessionID, "instructor", "i-1")
	body := selectStage(t, srv, sessionID, "level", "l-1")

	assert.Equal(t, "l-1", body.Stages[3].SelectedID)
	require.Len(t, body.Coupon.Options, 1)
	assert.Equal(t, int64(1000), body.Quote.FinalPrice)
}

func TestSelectOutOfOrderConflicts(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	resp, _ := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/select",
		dto.SelectRequestDTO{Stage: "course", ID: "c-1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSelectUnknownStageRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	resp, _ := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/select",
		dto.SelectRequestDTO{Stage: "semester", ID: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := postJSON(t, srv.URL+"/code-sessions/no-such-id/select",
		dto.SelectRequestDTO{Stage: "specialization", ID: "sp-1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCouponAndPriceOverride(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)
	selectStage(t, srv, sessionID, "specialization", "sp-1")
	selectStage(t, srv, sessionID, "course", "c-1")
	selectStage(t, srv, sessionID, "instructor", "i-1")
	selectStage(t, srv, sessionID, "level", "l-1")

	resp, body := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/coupon",
		dto.CouponRequestDTO{CouponID: "cp-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(900), body.Quote.FinalPrice)

	amount := int64(750)
	resp, body = postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/price",
		dto.PriceOverrideRequestDTO{Amount: &amount})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(750), body.Quote.FinalPrice)
	assert.True(t, body.Quote.Overridden)
}

func TestPriceOverrideRequiresAmount(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	resp, _ := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/price", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteClosesSession(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/code-sessions/"+sessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/code-sessions/" + sessionID)
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestEditModeRestoresChain(t *testing.T) {
	svc := &stubAccessCodeService{records: map[string]*model.AccessCodeRecord{
		"ac-1": {
			AccessCodeID:     "ac-1",
			Code:             "ABCD234567",
			SpecializationID: "sp-1",
			CourseID:         "c-1",
			InstructorID:     "i-1",
			LevelID:          "l-1",
			UserID:           "u-1",
			AmountPaid:       1000,
		},
	}}
	srv := newTestServer(t, svc)
	sessionID := openDialog(t, srv)

	resp, body := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/edit",
		dto.EditRequestDTO{AccessCodeID: "ac-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "l-1", body.Stages[3].SelectedID)
	assert.Equal(t, int64(1000), body.Quote.FinalPrice)
}

func TestEditModeUnknownRecord(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	resp, _ := postJSON(t, srv.URL+"/code-sessions/"+sessionID+"/edit",
		dto.EditRequestDTO{AccessCodeID: "ac-missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitIssuesAccessCode(t *testing.T) {
	svc := &stubAccessCodeService{records: map[string]*model.AccessCodeRecord{}}
	srv := newTestServer(t, svc)
	sessionID := openDialog(t, srv)
	selectStage(t, srv, sessionID, "specialization", "sp-1")
	selectStage(t, srv, sessionID, "course", "c-1")
	selectStage(t, srv, sessionID, "instructor", "i-1")
	selectStage(t, srv, sessionID, "level", "l-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", "u-1"))
	require.NoError(t, mw.WriteField("validity_months", "6"))
	part, err := mw.CreateFormFile("receipt", "receipt.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/code-sessions/"+sessionID+"/submit", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.AccessCodeResponseDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ac-1", out.AccessCodeID)
	assert.Equal(t, "op-1", out.IssuedBy)
	assert.Equal(t, int64(1000), out.AmountPaid)

	require.Len(t, svc.issued, 1)
	assert.Equal(t, "l-1", svc.issued[0].LevelID)
	assert.Equal(t, "u-1", svc.issued[0].UserID)

	// The dialog resets for the next code.
	getResp, err := http.Get(srv.URL + "/code-sessions/" + sessionID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	var after dto.SessionResponseDTO
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&after))
	assert.Empty(t, after.Stages[0].SelectedID)
}

func TestSubmitWithoutReceiptFails(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)
	selectStage(t, srv, sessionID, "specialization", "sp-1")
	selectStage(t, srv, sessionID, "course", "c-1")
	selectStage(t, srv, sessionID, "instructor", "i-1")
	selectStage(t, srv, sessionID, "level", "l-1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", "u-1"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/code-sessions/"+sessionID+"/submit", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "receipt")
}

func TestSubmitRejectsBadAmount(t *testing.T) {
	srv := newTestServer(t, nil)
	sessionID := openDialog(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", "u-1"))
	require.NoError(t, mw.WriteField("amount_paid", "lots"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/code-sessions/"+sessionID+"/submit", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
