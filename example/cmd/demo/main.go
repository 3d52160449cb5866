package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mickamy/activitylog"
	"github.com/mickamy/activitylog/gormlog"
)

type Customer struct {
	ID   uint
	Name string
}

type Label struct {
	ID   uint
	Name string
}

type Order struct {
	ID         uint
	CustomerID uint
	Customer   Customer
	Labels     []Label `gorm:"many2many:order_labels"`
	Amount     float64
	Status     string
}

func main() {
	dsn := getenv("DATABASE_DSN", "file:activitylog_demo?mode=memory&cache=shared")

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	if err := db.AutoMigrate(&Customer{}, &Label{}, &Order{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func(zl *zap.Logger) {
		_ = zl.Sync()
	}(zl)

	// Entries go to memory for the summary and to the log as they happen
	mem := activitylog.NewMemorySink()
	logSink := activitylog.NewLogSink(zl)
	h := activitylog.New(activitylog.Config{
		Logger: zl,
		Sink: activitylog.SinkFunc(func(ctx context.Context, e activitylog.Entry) error {
			_ = mem.Write(ctx, e)
			return logSink.Write(ctx, e)
		}),
	})

	plugin := gormlog.New(h)
	if err := db.Use(plugin); err != nil {
		log.Fatalf("use plugin: %v", err)
	}
	if _, err := plugin.Track(&Order{}, activitylog.Options{
		Events: []activitylog.Event{
			activitylog.EventCreated,
			activitylog.EventUpdated,
			activitylog.EventDeleted,
			activitylog.EventPivotAttached,
		},
		LogAttributes: []string{"status", "amount", "customer.name", "labels.name"},
		LogOnlyDirty:  true,
	}); err != nil {
		log.Fatalf("track: %v", err)
	}

	// Metadata
	ctx := activitylog.WithCauser(context.Background(), "demo-user")
	ctx = activitylog.WithTraceID(ctx, "trace-demo-001")
	ctx = activitylog.WithReason(ctx, "demo run")
	tx := db.WithContext(ctx)

	customer := &Customer{Name: "ACME"}
	if err := tx.Create(customer).Error; err != nil {
		log.Fatalf("insert customer: %v", err)
	}
	urgent := &Label{Name: "urgent"}
	if err := tx.Create(urgent).Error; err != nil {
		log.Fatalf("insert label: %v", err)
	}

	order := &Order{CustomerID: customer.ID, Amount: 1200, Status: "new"}
	if err := tx.Create(order).Error; err != nil {
		log.Fatalf("insert order: %v", err)
	}

	if err := tx.Model(order).Updates(map[string]any{"status": "paid", "amount": 1500}).Error; err != nil {
		log.Fatalf("update order: %v", err)
	}

	if err := plugin.Attach(ctx, db, order, "Labels", urgent); err != nil {
		log.Fatalf("attach label: %v", err)
	}

	if err := tx.Delete(order).Error; err != nil {
		log.Fatalf("delete order: %v", err)
	}

	fmt.Printf("activity entries = %d (expected 4)\n", mem.Len())
	for _, e := range mem.Drain() {
		fmt.Printf("%-14s %s#%v attributes=%v\n", e.Event, e.SubjectType, e.SubjectID, e.Properties.Attributes.Map())
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
