package visitor_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"visitors/internal/visitor"
	"visitors/internal/visitor/mocks"
	dErrors "visitors/pkg/domain-errors"
	"visitors/pkg/platform/sentinel"
)

const testTopic = "visitor-events"

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	cache     *mocks.MockCache
	publisher *mocks.MockEventPublisher
	service   *visitor.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.cache = mocks.NewMockCache(s.ctrl)
	s.publisher = mocks.NewMockEventPublisher(s.ctrl)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = visitor.NewService(s.store, s.cache, s.publisher, testTopic, log, nil)
}

// TearDownTest drains fire-and-forget emissions so gomock verifies a settled
// call count.
func (s *ServiceSuite) TearDownTest() {
	s.service.Close()
}

func checkInAt(value string) *visitor.Timestamp {
	parsed, err := time.Parse(visitor.TimeLayout, value)
	if err != nil {
		panic(err)
	}
	ts := visitor.NewTimestamp(parsed)
	return &ts
}

func (s *ServiceSuite) TestGetAllVisitorsPopulatesCacheOnMiss() {
	ctx := context.Background()
	stored := []visitor.Visitor{{ID: 1, Name: "Ada"}, {ID: 2, Name: "Grace"}}

	s.cache.EXPECT().Get(gomock.Any(), "visitors", gomock.Any()).Return(false, nil)
	s.store.EXPECT().FindAll(gomock.Any()).Return(stored, nil)
	s.cache.EXPECT().Put(gomock.Any(), "visitors", gomock.Any()).Return(nil)

	projections, err := s.service.GetAllVisitors(ctx)
	s.Require().NoError(err)
	s.Require().Len(projections, 2)
	s.Equal("Ada", projections[0].Name)
}

func (s *ServiceSuite) TestGetAllVisitorsServesFromCache() {
	ctx := context.Background()

	s.cache.EXPECT().Get(gomock.Any(), "visitors", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, dest any) (bool, error) {
			projections := dest.(*[]visitor.Projection)
			*projections = []visitor.Projection{{ID: 9, Name: "Cached"}}
			return true, nil
		})

	projections, err := s.service.GetAllVisitors(ctx)
	s.Require().NoError(err)
	s.Require().Len(projections, 1)
	s.Equal(int64(9), projections[0].ID)
}

func (s *ServiceSuite) TestGetAllVisitorsWrapsStoreFailure() {
	ctx := context.Background()

	s.cache.EXPECT().Get(gomock.Any(), "visitors", gomock.Any()).Return(false, nil)
	s.store.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := s.service.GetAllVisitors(ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRetrieval))
}

func (s *ServiceSuite) TestGetVisitorByIDEmitsFetchedEvent() {
	ctx := context.Background()
	stored := visitor.Visitor{ID: 1, Name: "Ada"}

	s.cache.EXPECT().Get(gomock.Any(), "visitor:1", gomock.Any()).Return(false, nil)
	s.store.EXPECT().FindByID(gomock.Any(), int64(1)).Return(stored, nil)
	s.cache.EXPECT().Put(gomock.Any(), "visitor:1", gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), testTopic, "Visitor fetched: 1")

	projection, err := s.service.GetVisitorByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal("Ada", projection.Name)
}

func (s *ServiceSuite) TestGetVisitorByIDOnEmptyStoreEmitsNoEvent() {
	ctx := context.Background()

	s.cache.EXPECT().Get(gomock.Any(), "visitor:1", gomock.Any()).Return(false, nil)
	s.store.EXPECT().FindByID(gomock.Any(), int64(1)).Return(visitor.Visitor{}, sentinel.ErrNotFound)
	// No Publish expectation: any emission fails the test.

	_, err := s.service.GetVisitorByID(ctx, 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetVisitorByIDCacheHitSkipsStoreAndEvent() {
	ctx := context.Background()

	s.cache.EXPECT().Get(gomock.Any(), "visitor:3", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, dest any) (bool, error) {
			projection := dest.(*visitor.Projection)
			*projection = visitor.Projection{ID: 3, Name: "Cached"}
			return true, nil
		})

	projection, err := s.service.GetVisitorByID(ctx, 3)
	s.Require().NoError(err)
	s.Equal("Cached", projection.Name)
}

func (s *ServiceSuite) TestAddVisitorRejectsNil() {
	_, err := s.service.AddVisitor(context.Background(), nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestAddVisitorRejectsEmptyName() {
	_, err := s.service.AddVisitor(context.Background(), &visitor.Visitor{Name: ""})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestAddVisitorPersistsAndEmits() {
	ctx := context.Background()

	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, v visitor.Visitor) (visitor.Visitor, error) {
			s.Zero(v.ID, "store assigns the identifier; input ids are ignored")
			v.ID = 1
			v.CreatedDate = visitor.NewTimestamp(time.Now())
			return v, nil
		})
	s.cache.EXPECT().Put(gomock.Any(), "visitor:1", gomock.Any()).Return(nil)
	s.cache.EXPECT().Evict(gomock.Any(), "visitors").Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), testTopic, gomock.Any()).Do(
		func(_ context.Context, _ string, message string) {
			var emitted visitor.Visitor
			s.Require().NoError(json.Unmarshal([]byte(message), &emitted))
			s.Equal(int64(1), emitted.ID)
			s.Equal("Ada", emitted.Name)
		})

	projection, err := s.service.AddVisitor(ctx, &visitor.Visitor{ID: 99, Name: "Ada"})
	s.Require().NoError(err)
	s.Equal(int64(1), projection.ID)
	s.Equal("Ada", projection.Name)
}

func (s *ServiceSuite) TestAddVisitorWrapsPersistenceFailure() {
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(visitor.Visitor{}, errors.New("disk full"))

	_, err := s.service.AddVisitor(context.Background(), &visitor.Visitor{Name: "Ada"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePersistence))
}

func (s *ServiceSuite) TestUpdateVisitorForcesPathIdentifier() {
	ctx := context.Background()
	existing := visitor.Visitor{ID: 1, Name: "Ada", CheckIn: checkInAt("2024-01-01T10:00:00")}

	s.store.EXPECT().FindByID(gomock.Any(), int64(1)).Return(existing, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, v visitor.Visitor) (visitor.Visitor, error) {
			s.Equal(int64(1), v.ID, "identity cannot be changed via update")
			return v, nil
		})
	s.cache.EXPECT().Put(gomock.Any(), "visitor:1", gomock.Any()).Return(nil)
	s.cache.EXPECT().Evict(gomock.Any(), "visitors").Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), testTopic, gomock.Any())

	replacement := visitor.Visitor{ID: 42, Name: "Ada Lovelace", Approved: true}
	projection, err := s.service.UpdateVisitor(ctx, 1, &replacement)
	s.Require().NoError(err)
	s.Equal(int64(1), projection.ID)
	s.Equal("Ada Lovelace", projection.Name)
}

func (s *ServiceSuite) TestUpdateVisitorMissingLeavesStoreUntouched() {
	s.store.EXPECT().FindByID(gomock.Any(), int64(999)).Return(visitor.Visitor{}, sentinel.ErrNotFound)
	// No Save expectation: the store must not be mutated.

	_, err := s.service.UpdateVisitor(context.Background(), 999, &visitor.Visitor{Name: "Ghost"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateVisitorWrapsPersistenceFailure() {
	s.store.EXPECT().FindByID(gomock.Any(), int64(1)).Return(visitor.Visitor{ID: 1, Name: "Ada"}, nil)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(visitor.Visitor{}, errors.New("deadlock"))

	_, err := s.service.UpdateVisitor(context.Background(), 1, &visitor.Visitor{Name: "Ada"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePersistence))
}

func (s *ServiceSuite) TestDeleteVisitorEmitsEvent() {
	s.store.EXPECT().ExistsByID(gomock.Any(), int64(1)).Return(true, nil)
	s.store.EXPECT().DeleteByID(gomock.Any(), int64(1)).Return(nil)
	s.cache.EXPECT().Evict(gomock.Any(), "visitor:1").Return(nil)
	s.cache.EXPECT().Evict(gomock.Any(), "visitors").Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), testTopic, "Visitor deleted with ID: 1")

	s.Require().NoError(s.service.DeleteVisitor(context.Background(), 1))
}

func (s *ServiceSuite) TestDeleteVisitorRacingDeleteFailsNotFound() {
	// The row disappears between the existence check and the delete.
	s.store.EXPECT().ExistsByID(gomock.Any(), int64(1)).Return(true, nil)
	s.store.EXPECT().DeleteByID(gomock.Any(), int64(1)).Return(sentinel.ErrNotFound)
	// No Publish or Evict expectations: nothing was deleted.

	err := s.service.DeleteVisitor(context.Background(), 1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFetchAllVisitorsWrapsStoreFailure() {
	s.store.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("connection reset"))

	result := <-s.service.FetchAllVisitors(context.Background())
	s.Require().Error(result.Err)
	s.True(dErrors.HasCode(result.Err, dErrors.CodeRetrieval))
	s.Nil(result.Visitors)
}

func (s *ServiceSuite) TestDeleteVisitorMissingFailsNotFound() {
	s.store.EXPECT().ExistsByID(gomock.Any(), int64(404)).Return(false, nil)
	// No DeleteByID expectation: delete must not silently succeed.

	err := s.service.DeleteVisitor(context.Background(), 404)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCacheFailuresDoNotFailReads() {
	ctx := context.Background()

	s.cache.EXPECT().Get(gomock.Any(), "visitors", gomock.Any()).Return(false, errors.New("redis down"))
	s.store.EXPECT().FindAll(gomock.Any()).Return([]visitor.Visitor{{ID: 1, Name: "Ada"}}, nil)
	s.cache.EXPECT().Put(gomock.Any(), "visitors", gomock.Any()).Return(errors.New("redis down"))

	projections, err := s.service.GetAllVisitors(ctx)
	s.Require().NoError(err)
	s.Len(projections, 1)
}
