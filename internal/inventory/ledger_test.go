package inventory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"tableserve/internal/model"
	"tableserve/internal/notify"
	"tableserve/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type countingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *countingPublisher) Publish(ctx context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *countingPublisher) Close() error { return nil }

func testEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

type LedgerTestSuite struct {
	suite.Suite
	db         *gorm.DB
	restaurant model.Restaurant
}

func TestLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database integration tests in short mode")
	}
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupSuite() {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		testEnv("TEST_DB_HOST", "localhost"),
		testEnv("TEST_DB_PORT", "5432"),
		testEnv("TEST_DB_USER", "postgres"),
		testEnv("TEST_DB_PASSWORD", "password"),
		testEnv("TEST_DB_NAME", "tableserve_test"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.Migrate(db))
	s.db = db
}

func (s *LedgerTestSuite) SetupTest() {
	for _, table := range []string{
		"stock_alerts", "menu_item_ingredients", "menu_items",
		"inventory_items", "restaurants",
	} {
		s.db.Exec("DELETE FROM " + table)
	}

	s.restaurant = model.Restaurant{Name: "Bistro", Slug: "bistro-" + uuid.NewString()[:8], OwnerID: 1}
	require.NoError(s.T(), s.db.Create(&s.restaurant).Error)
}

func (s *LedgerTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func (s *LedgerTestSuite) createItem(name, quantity, threshold string) model.InventoryItem {
	item := model.InventoryItem{
		RestaurantID: s.restaurant.ID,
		Name:         name,
		Unit:         "kg",
		Quantity:     decimal.RequireFromString(quantity),
		MinThreshold: decimal.RequireFromString(threshold),
	}
	require.NoError(s.T(), s.db.Create(&item).Error)
	return item
}

func (s *LedgerTestSuite) TestAdjustUpAndDown() {
	item := s.createItem("Flour", "10", "2")

	updated, err := Adjust(context.Background(), s.db, s.restaurant.ID, item.ID, decimal.RequireFromString("5.5"))
	require.NoError(s.T(), err)
	require.True(s.T(), updated.Quantity.Equal(decimal.RequireFromString("15.5")))

	updated, err = Adjust(context.Background(), s.db, s.restaurant.ID, item.ID, decimal.RequireFromString("-15.5"))
	require.NoError(s.T(), err)
	require.True(s.T(), updated.Quantity.IsZero())
}

func (s *LedgerTestSuite) TestAdjustRejectsNegativeResult() {
	item := s.createItem("Basil", "3", "1")

	_, err := Adjust(context.Background(), s.db, s.restaurant.ID, item.ID, decimal.NewFromInt(-4))

	var stockErr *InsufficientStockError
	require.ErrorAs(s.T(), err, &stockErr)
	require.Equal(s.T(), "Basil", stockErr.ItemName)
	require.True(s.T(), stockErr.Available.Equal(decimal.NewFromInt(3)))
	require.True(s.T(), stockErr.Requested.Equal(decimal.NewFromInt(4)))

	// The failed adjustment must leave the row untouched
	current, err := Read(context.Background(), s.db, s.restaurant.ID, item.ID)
	require.NoError(s.T(), err)
	require.True(s.T(), current.Quantity.Equal(decimal.NewFromInt(3)))
}

func (s *LedgerTestSuite) TestAdjustUnknownItem() {
	_, err := Adjust(context.Background(), s.db, s.restaurant.ID, 99999, decimal.NewFromInt(1))
	require.ErrorIs(s.T(), err, ErrItemNotFound)
}

func (s *LedgerTestSuite) TestAdjustScopedToRestaurant() {
	item := s.createItem("Flour", "10", "2")

	other := model.Restaurant{Name: "Other", Slug: "other-" + uuid.NewString()[:8], OwnerID: 2}
	require.NoError(s.T(), s.db.Create(&other).Error)

	_, err := Adjust(context.Background(), s.db, other.ID, item.ID, decimal.NewFromInt(1))
	require.ErrorIs(s.T(), err, ErrItemNotFound)
}

func (s *LedgerTestSuite) TestScanRaisesAlertOnce() {
	low := s.createItem("Cheese", "1", "2")
	s.createItem("Flour", "50", "5")
	pub := &countingPublisher{}

	created, err := Scan(context.Background(), s.db, pub, s.restaurant.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, created)
	require.Len(s.T(), pub.events, 1)
	require.Equal(s.T(), notify.EventStockLow, pub.events[0].Type)

	// Re-scanning with the alert still open must not duplicate it
	created, err = Scan(context.Background(), s.db, pub, s.restaurant.ID)
	require.NoError(s.T(), err)
	require.Zero(s.T(), created)

	var alerts []model.StockAlert
	require.NoError(s.T(), s.db.Where("inventory_item_id = ?", low.ID).Find(&alerts).Error)
	require.Len(s.T(), alerts, 1)
	require.Equal(s.T(), model.AlertLowStock, alerts[0].Type)
	require.False(s.T(), alerts[0].Acknowledged)
}

func (s *LedgerTestSuite) TestScanAfterAcknowledge() {
	low := s.createItem("Cheese", "1", "2")

	created, err := Scan(context.Background(), s.db, nil, s.restaurant.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, created)

	var alert model.StockAlert
	require.NoError(s.T(), s.db.Where("inventory_item_id = ?", low.ID).First(&alert).Error)

	acked, err := Acknowledge(context.Background(), s.db, s.restaurant.ID, alert.ID)
	require.NoError(s.T(), err)
	require.True(s.T(), acked.Acknowledged)

	// Still below threshold, and the previous alert is acknowledged,
	// so a fresh one is raised
	created, err = Scan(context.Background(), s.db, nil, s.restaurant.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, created)
}

func (s *LedgerTestSuite) TestScanThresholdBoundary() {
	// Exactly at threshold counts as low
	s.createItem("Salt", "2", "2")

	created, err := Scan(context.Background(), s.db, nil, s.restaurant.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 1, created)
}

func (s *LedgerTestSuite) TestUsageOf() {
	cheese := s.createItem("Cheese", "10", "2")
	salt := s.createItem("Salt", "10", "2")

	pizza := model.MenuItem{RestaurantID: s.restaurant.ID, Name: "Margherita", Price: decimal.RequireFromString("12.50"), IsActive: true}
	pasta := model.MenuItem{RestaurantID: s.restaurant.ID, Name: "Carbonara", Price: decimal.RequireFromString("14.00"), IsActive: true}
	require.NoError(s.T(), s.db.Create(&pizza).Error)
	require.NoError(s.T(), s.db.Create(&pasta).Error)
	for _, line := range []model.MenuItemIngredient{
		{MenuItemID: pizza.ID, InventoryItemID: cheese.ID, Quantity: decimal.NewFromInt(1)},
		{MenuItemID: pasta.ID, InventoryItemID: cheese.ID, Quantity: decimal.NewFromInt(2)},
	} {
		require.NoError(s.T(), s.db.Create(&line).Error)
	}

	names, err := UsageOf(context.Background(), s.db, s.restaurant.ID, cheese.ID)
	require.NoError(s.T(), err)
	require.ElementsMatch(s.T(), []string{"Margherita", "Carbonara"}, names)

	names, err = UsageOf(context.Background(), s.db, s.restaurant.ID, salt.ID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), names)
}
