package ordering

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

// recordingPublisher captures events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) byType(eventType string) []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []notify.Event
	for _, e := range p.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func testEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func openTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		testEnv("TEST_DB_HOST", "localhost"),
		testEnv("TEST_DB_PORT", "5432"),
		testEnv("TEST_DB_USER", "postgres"),
		testEnv("TEST_DB_PASSWORD", "password"),
		testEnv("TEST_DB_NAME", "tableserve_test"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type CoordinatorTestSuite struct {
	suite.Suite
	db          *gorm.DB
	coordinator *Coordinator
	publisher   *recordingPublisher
	restaurant  model.Restaurant
	table       model.Table
}

func TestCoordinatorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database integration tests in short mode")
	}
	suite.Run(t, new(CoordinatorTestSuite))
}

func (s *CoordinatorTestSuite) SetupSuite() {
	s.db = openTestDB(s.T())
}

func (s *CoordinatorTestSuite) SetupTest() {
	for _, table := range []string{
		"order_items", "orders", "table_sessions", "stock_alerts",
		"menu_item_ingredients", "menu_items", "inventory_items",
		"tables", "user_restaurants", "restaurants", "users",
	} {
		s.db.Exec("DELETE FROM " + table)
	}

	s.publisher = &recordingPublisher{}
	s.coordinator = NewCoordinator(s.db, s.publisher, false)

	s.restaurant = model.Restaurant{Name: "Trattoria", Slug: "trattoria-" + uuid.NewString()[:8], OwnerID: 1}
	require.NoError(s.T(), s.db.Create(&s.restaurant).Error)

	s.table = model.Table{
		RestaurantID: s.restaurant.ID,
		Number:       1,
		Capacity:     4,
		Status:       model.TableAvailable,
		Token:        uuid.NewString(),
	}
	require.NoError(s.T(), s.db.Create(&s.table).Error)
}

func (s *CoordinatorTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func (s *CoordinatorTestSuite) createMenuItem(name string, price string) model.MenuItem {
	p, err := decimal.NewFromString(price)
	require.NoError(s.T(), err)
	item := model.MenuItem{
		RestaurantID: s.restaurant.ID,
		Name:         name,
		Price:        p,
		Category:     "mains",
		IsActive:     true,
	}
	require.NoError(s.T(), s.db.Create(&item).Error)
	return item
}

func (s *CoordinatorTestSuite) createInventoryItem(name string, quantity string) model.InventoryItem {
	q, err := decimal.NewFromString(quantity)
	require.NoError(s.T(), err)
	item := model.InventoryItem{
		RestaurantID: s.restaurant.ID,
		Name:         name,
		Unit:         "kg",
		Quantity:     q,
	}
	require.NoError(s.T(), s.db.Create(&item).Error)
	return item
}

func (s *CoordinatorTestSuite) addRecipeLine(menuItem model.MenuItem, inventoryItem model.InventoryItem, quantity string) {
	q, err := decimal.NewFromString(quantity)
	require.NoError(s.T(), err)
	line := model.MenuItemIngredient{
		MenuItemID:      menuItem.ID,
		InventoryItemID: inventoryItem.ID,
		Quantity:        q,
	}
	require.NoError(s.T(), s.db.Create(&line).Error)
}

func (s *CoordinatorTestSuite) inventoryQuantity(id uint) decimal.Decimal {
	var item model.InventoryItem
	require.NoError(s.T(), s.db.First(&item, id).Error)
	return item.Quantity
}

func (s *CoordinatorTestSuite) tableStatus() string {
	var table model.Table
	require.NoError(s.T(), s.db.First(&table, s.table.ID).Error)
	return table.Status
}

// payOff walks an order through the full staff flow to PAID
func (s *CoordinatorTestSuite) payOff(orderID uint) {
	for _, status := range []string{
		model.OrderPreparing, model.OrderReady, model.OrderServed, model.OrderPaid,
	} {
		_, err := s.coordinator.UpdateStatus(context.Background(), s.restaurant.ID, orderID, status)
		require.NoError(s.T(), err)
	}
}

func (s *CoordinatorTestSuite) TestPlaceOrderHappyPath() {
	flour := s.createInventoryItem("Flour", "10")
	pizza := s.createMenuItem("Margherita", "12.50")
	s.addRecipeLine(pizza, flour, "3")

	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken:   s.table.Token,
		Lines:        []CartLine{{MenuItemID: pizza.ID, Quantity: 2}},
		CustomerName: "Ada",
	})

	require.NoError(s.T(), err)
	require.Equal(s.T(), model.OrderPending, order.Status)
	require.True(s.T(), order.Total.Equal(decimal.RequireFromString("25.00")), "total %s", order.Total)
	require.Len(s.T(), order.Items, 1)
	require.Equal(s.T(), "Margherita", order.Items[0].Name)
	require.NotEmpty(s.T(), order.Number)
	require.NotZero(s.T(), order.SessionID)

	require.True(s.T(), s.inventoryQuantity(flour.ID).Equal(decimal.NewFromInt(4)))
	require.Equal(s.T(), model.TableOccupied, s.tableStatus())

	var session model.TableSession
	require.NoError(s.T(), s.db.First(&session, order.SessionID).Error)
	require.Equal(s.T(), model.SessionActive, session.Status)

	require.Len(s.T(), s.publisher.byType(notify.EventOrderCreated), 1)
}

func (s *CoordinatorTestSuite) TestPlaceOrderInvalidTable() {
	_, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: "no-such-token",
		Lines:      []CartLine{{MenuItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(s.T(), err, ErrInvalidTable)
}

func (s *CoordinatorTestSuite) TestPlaceOrderEmptyCart() {
	_, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
	})
	require.ErrorIs(s.T(), err, ErrEmptyCart)
}

func (s *CoordinatorTestSuite) TestPlaceOrderMenuItemNotFound() {
	pizza := s.createMenuItem("Margherita", "12.50")

	_, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines: []CartLine{
			{MenuItemID: pizza.ID, Quantity: 1},
			{MenuItemID: 99999, Quantity: 1},
		},
	})

	var notFound *MenuItemNotFoundError
	require.ErrorAs(s.T(), err, &notFound)
	require.Equal(s.T(), uint(99999), notFound.MenuItemID)
}

func (s *CoordinatorTestSuite) TestPlaceOrderInvalidQuantity() {
	pizza := s.createMenuItem("Margherita", "12.50")

	_, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 0}},
	})

	var invalid *InvalidQuantityError
	require.ErrorAs(s.T(), err, &invalid)
}

func (s *CoordinatorTestSuite) TestInsufficientStockAbortsEverything() {
	flour := s.createInventoryItem("Flour", "10")
	basil := s.createInventoryItem("Basil", "1")
	pizza := s.createMenuItem("Margherita", "12.50")
	s.addRecipeLine(pizza, flour, "3")
	s.addRecipeLine(pizza, basil, "1")

	// Two pizzas need 2 basil but only 1 is available
	_, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 2}},
	})
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "Basil")

	// Nothing from the failed placement may be visible afterwards
	require.True(s.T(), s.inventoryQuantity(flour.ID).Equal(decimal.NewFromInt(10)))
	require.True(s.T(), s.inventoryQuantity(basil.ID).Equal(decimal.NewFromInt(1)))
	require.Equal(s.T(), model.TableAvailable, s.tableStatus())

	var orderCount, sessionCount int64
	s.db.Model(&model.Order{}).Count(&orderCount)
	s.db.Model(&model.TableSession{}).Count(&sessionCount)
	require.Zero(s.T(), orderCount)
	require.Zero(s.T(), sessionCount)
}

func (s *CoordinatorTestSuite) TestPriceSnapshot() {
	pizza := s.createMenuItem("Margherita", "16.99")

	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 2}},
	})
	require.NoError(s.T(), err)

	// Later price edits never alter historical orders
	require.NoError(s.T(), s.db.Model(&model.MenuItem{}).
		Where("id = ?", pizza.ID).
		Update("price", decimal.RequireFromString("20.00")).Error)

	var fetched model.Order
	require.NoError(s.T(), s.db.Preload("Items").First(&fetched, order.ID).Error)
	require.True(s.T(), fetched.Total.Equal(decimal.RequireFromString("33.98")), "total %s", fetched.Total)
	require.True(s.T(), fetched.Items[0].UnitPrice.Equal(decimal.RequireFromString("16.99")))
}

func (s *CoordinatorTestSuite) TestSharedIngredientAggregatedOnce() {
	cheese := s.createInventoryItem("Cheese", "5")
	pizza := s.createMenuItem("Margherita", "12.00")
	pasta := s.createMenuItem("Carbonara", "14.00")
	s.addRecipeLine(pizza, cheese, "2")
	s.addRecipeLine(pasta, cheese, "3")

	// 2 + 3 = 5 exactly; succeeds only if decremented once with the
	// combined amount
	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines: []CartLine{
			{MenuItemID: pizza.ID, Quantity: 1},
			{MenuItemID: pasta.ID, Quantity: 1},
		},
	})
	require.NoError(s.T(), err)
	require.True(s.T(), s.inventoryQuantity(cheese.ID).Equal(decimal.Zero))
	require.Len(s.T(), order.Items, 2)
}

func (s *CoordinatorTestSuite) TestConcurrentOrdersOnScarceIngredient() {
	flour := s.createInventoryItem("Flour", "10")
	pizza := s.createMenuItem("Margherita", "12.50")
	s.addRecipeLine(pizza, flour, "3")

	// Each order consumes 6; together they would need 12 > 10, so exactly
	// one must succeed
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
				TableToken: s.table.Token,
				Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 2}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	require.Equal(s.T(), 1, succeeded, "exactly one of the competing orders must succeed")
	require.True(s.T(), s.inventoryQuantity(flour.ID).Equal(decimal.NewFromInt(4)),
		"flour should be 10 - 6 = 4, got %s", s.inventoryQuantity(flour.ID))
}

func (s *CoordinatorTestSuite) TestIdempotentReplay() {
	flour := s.createInventoryItem("Flour", "10")
	pizza := s.createMenuItem("Margherita", "12.50")
	s.addRecipeLine(pizza, flour, "3")

	req := PlaceOrderRequest{
		TableToken:     s.table.Token,
		Lines:          []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
		IdempotencyKey: "retry-abc123",
	}

	first, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, req)
	require.NoError(s.T(), err)

	second, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, req)
	require.NoError(s.T(), err)

	require.Equal(s.T(), first.ID, second.ID)
	require.True(s.T(), s.inventoryQuantity(flour.ID).Equal(decimal.NewFromInt(7)),
		"replay must not decrement stock twice")
	require.Len(s.T(), s.publisher.byType(notify.EventOrderCreated), 1)
}

func (s *CoordinatorTestSuite) TestPayingLastOrderFreesTable() {
	pizza := s.createMenuItem("Margherita", "12.50")

	first, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)
	second, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	// Paying off one of two open orders keeps the table occupied
	s.payOff(first.ID)
	require.Equal(s.T(), model.TableOccupied, s.tableStatus())

	// Paying off the last one frees it and closes the sessions
	s.payOff(second.ID)
	require.Equal(s.T(), model.TableAvailable, s.tableStatus())

	var active int64
	s.db.Model(&model.TableSession{}).
		Where("table_id = ? AND status = ?", s.table.ID, model.SessionActive).
		Count(&active)
	require.Zero(s.T(), active)
}

func (s *CoordinatorTestSuite) TestCancellingLastOrderFreesTable() {
	pizza := s.createMenuItem("Margherita", "12.50")

	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.TableOccupied, s.tableStatus())

	_, err = s.coordinator.UpdateStatus(context.Background(), s.restaurant.ID, order.ID, model.OrderCancelled)
	require.NoError(s.T(), err)
	require.Equal(s.T(), model.TableAvailable, s.tableStatus())
}

func (s *CoordinatorTestSuite) TestInvalidStatusTransition() {
	pizza := s.createMenuItem("Margherita", "12.50")

	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	_, err = s.coordinator.UpdateStatus(context.Background(), s.restaurant.ID, order.ID, model.OrderPaid)
	var transition *InvalidTransitionError
	require.ErrorAs(s.T(), err, &transition)
	require.Equal(s.T(), model.OrderPending, transition.From)

	_, err = s.coordinator.UpdateStatus(context.Background(), s.restaurant.ID, order.ID, "SHIPPED")
	require.ErrorAs(s.T(), err, &transition)
}

func (s *CoordinatorTestSuite) TestStatusUpdateScopedToRestaurant() {
	pizza := s.createMenuItem("Margherita", "12.50")

	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	// Another restaurant must not be able to touch this order
	_, err = s.coordinator.UpdateStatus(context.Background(), s.restaurant.ID+1, order.ID, model.OrderPreparing)
	require.ErrorIs(s.T(), err, ErrOrderNotFound)
}

func (s *CoordinatorTestSuite) TestSessionPerOrderByDefault() {
	pizza := s.createMenuItem("Margherita", "12.50")

	first, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)
	second, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	require.NotEqual(s.T(), first.SessionID, second.SessionID)
}

func (s *CoordinatorTestSuite) TestSessionReuse() {
	reusing := NewCoordinator(s.db, s.publisher, true)
	pizza := s.createMenuItem("Margherita", "12.50")

	first, err := reusing.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)
	second, err := reusing.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: pizza.ID, Quantity: 1}},
	})
	require.NoError(s.T(), err)

	require.Equal(s.T(), first.SessionID, second.SessionID)
}

func (s *CoordinatorTestSuite) TestMenuItemWithoutRecipeSells() {
	water := s.createMenuItem("Sparkling Water", "3.00")

	order, err := s.coordinator.PlaceOrder(context.Background(), s.restaurant.ID, PlaceOrderRequest{
		TableToken: s.table.Token,
		Lines:      []CartLine{{MenuItemID: water.ID, Quantity: 4}},
	})

	require.NoError(s.T(), err)
	require.True(s.T(), order.Total.Equal(decimal.RequireFromString("12.00")))
}
