package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/handler/mocks"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/placement/models"
	"github.com/primedepthlabs/Loan-Admin-sub000/internal/platform/middleware"
	id "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain"
	dErrors "github.com/primedepthlabs/Loan-Admin-sub000/pkg/domain-errors"
	"github.com/primedepthlabs/Loan-Admin-sub000/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const testAdminToken = "s3cret"

type PlacementHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router

	agent   id.AgentID
	sponsor id.AgentID
	plan    id.PlanID
}

func TestPlacementHandlerSuite(t *testing.T) {
	suite.Run(t, new(PlacementHandlerSuite))
}

func (s *PlacementHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, nil, testAdminToken).Register(s.router)

	s.agent = id.AgentID(uuid.New())
	s.sponsor = id.AgentID(uuid.New())
	s.plan = id.PlanID(uuid.New())
}

func (s *PlacementHandlerSuite) position(parent *id.AgentID) *models.TreePosition {
	p := models.NewRootPosition(s.agent, s.plan, 2, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if parent != nil {
		p = models.NewChildPosition(s.agent, s.plan, models.Slot{
			ParentID: *parent, SlotIndex: 2, Level: 2, Fanout: 2, TreeOwnerID: *parent,
		}, p.CreatedAt)
	}
	return p
}

func (s *PlacementHandlerSuite) TestPlace() {
	t := s.T()

	testutil.Given(t, "a new agent with a sponsor", func(t *testing.T) {
		s.service.EXPECT().PlaceAgent(gomock.Any(), s.agent, s.plan, &s.sponsor).
			Return(&models.PlacementResult{Position: s.position(&s.sponsor), CommissionsReleased: 2}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/placements", map[string]any{
			"agent_id":   s.agent.String(),
			"plan_id":    s.plan.String(),
			"sponsor_id": s.sponsor.String(),
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.Then(t, "the position is created", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			resp := testutil.UnmarshalResponse[PlacementResponse](t, rr)
			s.Equal("child_2", resp.Position.LevelLabel)
			s.Equal(2, resp.Position.PairingType)
			s.Require().NotNil(resp.Position.ParentID)
			s.Equal(s.sponsor.String(), *resp.Position.ParentID)
			s.Equal([]*string{nil, nil}, resp.Position.ChildSlots)
			s.Equal(2, resp.CommissionsReleased)
			s.NotNil(resp.UnlockedRewards)
		})
	})

	testutil.Given(t, "an agent that is already placed", func(t *testing.T) {
		s.service.EXPECT().PlaceAgent(gomock.Any(), s.agent, s.plan, nil).
			Return(&models.PlacementResult{Position: s.position(nil), AlreadyPlaced: true}, nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/placements", map[string]any{
			"agent_id": s.agent.String(),
			"plan_id":  s.plan.String(),
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.Then(t, "the existing position is returned with 200", func(t *testing.T) {
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONContains(t, rr, "already_placed", true)
		})
	})

	testutil.When(t, "the body is malformed", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewRawJSONRequest(t, http.MethodPost, "/placements", `{"agent_id":`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, dErrors.CodeBadRequest)
	})

	testutil.When(t, "an identifier is not a UUID", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/placements", map[string]any{
			"agent_id": "nope",
			"plan_id":  s.plan.String(),
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, dErrors.CodeInvalidInput)
	})
}

func (s *PlacementHandlerSuite) TestPlaceMapsPlacementFailures() {
	for _, tc := range []struct {
		name   string
		err    error
		status int
		code   dErrors.Code
	}{
		{"plan not owned", models.Fail(models.ErrPlanNotOwned, "no plan"), http.StatusForbidden, dErrors.CodeForbidden},
		{"sponsor not in tree", models.Fail(models.ErrSponsorNotInTree, "no sponsor"), http.StatusNotFound, dErrors.CodeNotFound},
		{"max depth", models.Fail(models.ErrMaxDepthReached, "deep"), http.StatusUnprocessableEntity, dErrors.CodeUnprocessable},
		{"contention", dErrors.New(dErrors.CodeConflict, "retry later"), http.StatusConflict, dErrors.CodeConflict},
		{"store down", dErrors.New(dErrors.CodeUnavailable, "down"), http.StatusServiceUnavailable, dErrors.CodeUnavailable},
	} {
		s.Run(tc.name, func() {
			s.service.EXPECT().PlaceAgent(gomock.Any(), s.agent, s.plan, &s.sponsor).Return(nil, tc.err)

			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/placements", map[string]any{
				"agent_id":   s.agent.String(),
				"plan_id":    s.plan.String(),
				"sponsor_id": s.sponsor.String(),
			})
			rr := testutil.DoRequest(s.router, req)

			testutil.AssertStatusAndError(s.T(), rr, tc.status, tc.code)
		})
	}
}

func (s *PlacementHandlerSuite) TestPreview() {
	slot := &models.Slot{ParentID: s.sponsor, SlotIndex: 1, Level: 3, Fanout: 2, TreeOwnerID: s.sponsor}
	s.service.EXPECT().ResolvePosition(gomock.Any(), s.sponsor, s.plan).Return(slot, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
		"/placements/preview?sponsor_id="+s.sponsor.String()+"&plan_id="+s.plan.String()))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[SlotResponse](s.T(), rr)
	s.Equal(SlotResponse{
		ParentID:    s.sponsor.String(),
		SlotIndex:   1,
		Level:       3,
		LevelLabel:  "child_1",
		PairingType: 2,
		TreeOwnerID: s.sponsor.String(),
	}, *resp)

	s.Run("missing plan", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
			"/placements/preview?sponsor_id="+s.sponsor.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeInvalidInput)
	})
}

func (s *PlacementHandlerSuite) TestTree() {
	child := id.AgentID(uuid.New())
	s.service.EXPECT().Tree(gomock.Any(), s.agent, s.plan).Return(&models.TreeNode{
		AgentID: s.agent, Level: 1, LevelLabel: models.RootLevelLabel,
		Children: []*models.TreeNode{{AgentID: child, Level: 2, LevelLabel: "child_1", SlotIndex: 1}},
	}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet,
		"/trees/"+s.agent.String()+"?plan_id="+s.plan.String()))

	testutil.AssertStatusOK(s.T(), rr)
	tree := testutil.UnmarshalResponse[models.TreeNode](s.T(), rr)
	s.Equal(2, tree.Size())
	s.Equal(child, tree.Children[0].AgentID)
	s.NotEmpty(rr.Header().Get(middleware.HeaderRequestID))
}

func (s *PlacementHandlerSuite) TestReconcileRequiresAdminToken() {
	path := "/admin/placements/reconcile?plan_id=" + s.plan.String()

	s.Run("without token", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, path))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, dErrors.CodeUnauthorized)
	})

	s.Run("with token", func() {
		s.service.EXPECT().Reconcile(gomock.Any(), s.plan).
			Return(&models.ReconcileResult{Fanout: 2, NodesChecked: 4, CommissionsReleased: 1}, nil)

		req := testutil.NewRequest(s.T(), http.MethodPost, path)
		req.Header.Set(middleware.HeaderAdminToken, testAdminToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[models.ReconcileResult](s.T(), rr)
		s.Equal(4, resp.NodesChecked)
	})
}

func (s *PlacementHandlerSuite) TestHandleReconcileLogsRequestID() {
	var logs bytes.Buffer
	h := New(s.service, slog.New(slog.NewJSONHandler(&logs, nil)), nil, testAdminToken)
	s.service.EXPECT().Reconcile(gomock.Any(), s.plan).Return(&models.ReconcileResult{Fanout: 2}, nil)

	req := testutil.NewRequest(s.T(), http.MethodPost, "/admin/placements/reconcile?plan_id="+s.plan.String())
	req = testutil.WithRequestID(req, "req-42")
	rr := httptest.NewRecorder()
	h.handleReconcile(rr, req)

	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(logs.String(), `"request_id":"req-42"`)
	s.Contains(logs.String(), `"plan_id":"`+s.plan.String()+`"`)
}
