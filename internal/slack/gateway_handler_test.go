package slack

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"leaveflow/internal/employee"
	"leaveflow/internal/leave"
)

type fakeEmployeeRepo struct {
	bySlack   map[string]*employee.Employee
	lookupErr error
}

func (f *fakeEmployeeRepo) WithTx(tx *sql.Tx) employee.Repository { return f }
func (f *fakeEmployeeRepo) FindByID(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEmployeeRepo) FindByIDForUpdate(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEmployeeRepo) FindBySlackMemberID(ctx context.Context, slackMemberID string) (*employee.Employee, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	e, ok := f.bySlack[slackMemberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}
func (f *fakeEmployeeRepo) FindAllByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) FindByRole(ctx context.Context, companyID, role string) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) UpdateBalances(ctx context.Context, companyID, id string, compOff, annualLeave decimal.Decimal) error {
	return nil
}

type fakeLeaveService struct {
	managerCalls chan string
}

func (f *fakeLeaveService) Submit(ctx context.Context, companyID, actorID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}
func (f *fakeLeaveService) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool) ([]leave.LeaveResponse, error) {
	return nil, nil
}
func (f *fakeLeaveService) GetByID(ctx context.Context, companyID, id string) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}
func (f *fakeLeaveService) ManagerDecision(ctx context.Context, companyID, actorID, id string, req leave.ManagerDecisionRequest) (leave.LeaveResponse, error) {
	if f.managerCalls != nil {
		f.managerCalls <- id
	}
	return leave.LeaveResponse{Status: leave.StatusPendingHR, RequestNumber: "LV-0001"}, nil
}
func (f *fakeLeaveService) HRApproval(ctx context.Context, companyID, actorID, id string, req leave.HRApprovalRequest) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}
func (f *fakeLeaveService) Cancel(ctx context.Context, companyID, actorID, id string, req leave.CancelLeaveRequest) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}

const gatewaySecret = "8f742231b10e8888abcd99yyyzzz85a5"

func interactionBody(t *testing.T, slackUserID, requestID, stage string) []byte {
	t.Helper()
	payload := `{
		"type": "block_actions",
		"user": {"id": "` + slackUserID + `"},
		"actions": [{"block_id": "leave_decision", "action_id": "leave_approve", "value":"{\"request_id\":\"` + requestID + `\",\"decision\":\"approve\",\"stage\":\"` + stage + `\"}"}]
	}`
	form := url.Values{}
	form.Set("payload", payload)
	return []byte(form.Encode())
}

func newTestGateway(t *testing.T, repo employee.Repository, svc leave.Service) (*gin.Engine, *Verifier) {
	t.Helper()
	v, err := NewVerifier(gatewaySecret, nil)
	assert.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := NewGateway(v, repo, svc)
	r.POST("/slack/interactions", g.HandleInteraction)
	return r, v
}

func signedRequest(body []byte) *http.Request {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", sign(gatewaySecret, ts, body))
	return req
}

func TestGateway_HandleInteraction(t *testing.T) {
	t.Run("negative unsigned request gets 401", func(t *testing.T) {
		r, _ := newTestGateway(t, &fakeEmployeeRepo{}, &fakeLeaveService{})

		body := interactionBody(t, "U01", uuid.NewString(), "manager")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(string(body)))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("negative tampered body gets 401", func(t *testing.T) {
		r, _ := newTestGateway(t, &fakeEmployeeRepo{}, &fakeLeaveService{})

		req := signedRequest(interactionBody(t, "U01", uuid.NewString(), "manager"))
		req.Body = http.NoBody
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unlinked slack user gets an ephemeral explanation", func(t *testing.T) {
		r, _ := newTestGateway(t, &fakeEmployeeRepo{}, &fakeLeaveService{})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(interactionBody(t, "U_UNKNOWN", uuid.NewString(), "manager")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not linked")
	})

	t.Run("lookup infra failure asks the user to retry", func(t *testing.T) {
		repo := &fakeEmployeeRepo{lookupErr: errors.New("connection refused")}
		r, _ := newTestGateway(t, repo, &fakeLeaveService{})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(interactionBody(t, "U_MGR", uuid.NewString(), "manager")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "try again")
		assert.NotContains(t, w.Body.String(), "not linked")
	})

	t.Run("linked manager decision acks and applies asynchronously", func(t *testing.T) {
		managerUUID := uuid.New()
		repo := &fakeEmployeeRepo{bySlack: map[string]*employee.Employee{
			"U_MGR": {ID: managerUUID, CompanyID: uuid.New(), Role: employee.RoleManager},
		}}
		svc := &fakeLeaveService{managerCalls: make(chan string, 1)}
		r, _ := newTestGateway(t, repo, svc)

		requestID := uuid.NewString()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(interactionBody(t, "U_MGR", requestID, "manager")))

		assert.Equal(t, http.StatusOK, w.Code)
		select {
		case got := <-svc.managerCalls:
			assert.Equal(t, requestID, got)
		case <-time.After(2 * time.Second):
			t.Fatal("manager decision was never applied")
		}
	})

	t.Run("payload without actions is acked and ignored", func(t *testing.T) {
		svc := &fakeLeaveService{managerCalls: make(chan string, 1)}
		r, _ := newTestGateway(t, &fakeEmployeeRepo{}, svc)

		form := url.Values{}
		form.Set("payload", `{"type":"view_submission"}`)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest([]byte(form.Encode())))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, svc.managerCalls)
	})
}
