package testutil

import (
	"context"
	"time"

	"github.com/coursebill/coursebill/internal/cache"
	"github.com/coursebill/coursebill/internal/calendar"
	"github.com/coursebill/coursebill/internal/config"
	"github.com/coursebill/coursebill/internal/domain/order"
	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/repository/memory"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/coursebill/coursebill/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	OrderRepo order.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryEventPublisher
	gateway   *MockGateway
	notifier  *MockNotifier
	calendar  calendar.Calendar
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	cache.Initialize(s.logger)

	s.calendar, err = calendar.NewCalendar(cfg)
	if err != nil {
		s.T().Fatalf("failed to create calendar: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		OrderRepo: NewInMemoryOrderStore(),
	}
	s.publisher = NewInMemoryEventPublisher()
	s.gateway = NewMockGateway()
	s.notifier = NewMockNotifier()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.OrderRepo.(*memory.OrderStore).Clear()
	s.publisher.Clear()
	s.gateway.Clear()
	s.notifier.Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

// GetGateway returns the mock payment gateway
func (s *BaseServiceTestSuite) GetGateway() *MockGateway {
	return s.gateway
}

// GetNotifier returns the mock notification sender
func (s *BaseServiceTestSuite) GetNotifier() *MockNotifier {
	return s.notifier
}

// GetCalendar returns the working-day calendar
func (s *BaseServiceTestSuite) GetCalendar() calendar.Calendar {
	return s.calendar
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
