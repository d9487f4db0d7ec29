package workflows

import (
	"context"
	"strconv"

	"github.com/finchline/erpflow/pkg/erpflow"
	"github.com/finchline/erpflow/pkg/erpflow/collab"
	"github.com/finchline/erpflow/pkg/erpflow/event"
)

// lowStock returns the levels at or below the reorder threshold.
func lowStock(levels []event.StockLevel, threshold int) []event.StockLevel {
	var low []event.StockLevel
	for _, l := range levels {
		if l.Quantity <= threshold {
			low = append(low, l)
		}
	}
	return low
}

// StockCheck handles inventory/stock.check: find items at or below the
// reorder threshold and chain a reorder trigger for each.
func StockCheck(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.StockCheck) error {
		low, err := erpflow.Step(ctx, run, "find-low-stock", func(ctx context.Context) ([]event.StockLevel, error) {
			return lowStock(p.Levels, deps.Settings.LowStockThreshold), nil
		})
		if err != nil {
			return err
		}

		if len(low) == 0 {
			if _, err := run.Skip(ctx, "trigger-reorders", "all levels above threshold"); err != nil {
				return err
			}
		} else {
			_, err = erpflow.Step(ctx, run, "trigger-reorders", func(ctx context.Context) (int, error) {
				for _, item := range low {
					trigger := event.ReorderTrigger{
						ItemID:      item.ItemID,
						Name:        item.Name,
						Quantity:    item.Quantity,
						WarehouseID: p.WarehouseID,
					}
					if err := deps.Client.Send(ctx, event.NameReorderTrigger, trigger); err != nil {
						return 0, err
					}
				}
				return len(low), nil
			})
			if err != nil {
				return err
			}
		}

		_, err = run.Stub(ctx, "record-stock-metric", "stock metric pending metrics pipeline")
		return err
	})
}

// ReorderTrigger handles inventory/reorder.trigger: tell purchasing; the
// draft purchase order awaits the purchasing module's API.
func ReorderTrigger(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.ReorderTrigger) error {
		_, err := erpflow.Step(ctx, run, "notify-purchasing", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				Team:  "purchasing",
				Title: "Reorder needed",
				Body: p.Name + " down to " + strconv.Itoa(p.Quantity) +
					" in warehouse " + p.WarehouseID,
			})
		})
		if err != nil {
			return err
		}

		_, err = run.Stub(ctx, "draft-purchase-order", "purchase order drafting not wired")
		return err
	})
}

// GoodsReceived handles inventory/goods.received.
func GoodsReceived(deps Deps) erpflow.Handler {
	return erpflow.HandlerFor(func(ctx context.Context, run *erpflow.Run, p event.GoodsReceived) error {
		if _, err := run.Stub(ctx, "update-stock-levels", "stock mutation stays with the inventory module"); err != nil {
			return err
		}

		_, err := erpflow.Step(ctx, run, "notify-requester", func(ctx context.Context) (bool, error) {
			return true, deps.Notifier.Notify(ctx, collab.Notification{
				UserID: p.RequestedBy,
				Title:  "Goods received",
				Body: "Order " + p.OrderID + ": " +
					strconv.Itoa(p.Quantity) + " x " + p.ItemID,
			})
		})
		return err
	})
}
