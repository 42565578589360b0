package service

import (
	"context"
	"fmt"
	"strings"

	"go-soft-delete/internal/model"
	"go-soft-delete/internal/permission"
)

const DefaultBulkMaxItems = 100

type bulkItemFunc func(ctx context.Context, item model.BulkItem) ([]string, error)

// bulkRunner applies one operation to many records. Items are processed in
// order and independently; permission is checked once per distinct
// collection.
type bulkRunner struct {
	checker  permission.Checker
	maxItems int
}

func newBulkRunner(checker permission.Checker, maxItems int) bulkRunner {
	if maxItems <= 0 {
		maxItems = DefaultBulkMaxItems
	}
	return bulkRunner{checker: checker, maxItems: maxItems}
}

func (b bulkRunner) validate(items []model.BulkItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items must not be empty", model.ErrInvalidInput)
	}
	if len(items) > b.maxItems {
		return fmt.Errorf("%w: at most %d items per request", model.ErrInvalidInput, b.maxItems)
	}
	for i, item := range items {
		if strings.TrimSpace(item.CollectionUID) == "" || strings.TrimSpace(item.RecordID) == "" {
			return fmt.Errorf("%w: item %d needs collection and id", model.ErrInvalidInput, i)
		}
	}
	return nil
}

// run returns the aggregated result. On cancellation the remaining items are
// reported as failed and the context error is returned with the result.
func (b bulkRunner) run(ctx context.Context, items []model.BulkItem, actor *model.Actor, action, verb string, fn bulkItemFunc) (model.BulkOperationResult, error) {
	if err := b.validate(items); err != nil {
		return model.BulkOperationResult{}, err
	}

	result := model.BulkOperationResult{Items: make([]model.BulkItemResult, 0, len(items))}
	permissions := make(map[string]error)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for _, rest := range items[i:] {
				result.Add(failedItem(rest, err))
			}
			return result, err
		}

		permErr, checked := permissions[item.CollectionUID]
		if !checked {
			permErr = permission.Authorize(b.checker, actor, action, permission.CollectionAction(item.CollectionUID, verb))
			permissions[item.CollectionUID] = permErr
		}
		if permErr != nil {
			result.Add(failedItem(item, permErr))
			continue
		}

		warnings, err := fn(ctx, item)
		if err != nil {
			result.Add(failedItem(item, err))
			continue
		}
		result.Add(model.BulkItemResult{
			CollectionUID: item.CollectionUID,
			RecordID:      item.RecordID,
			Success:       true,
			Warnings:      warnings,
		})
	}
	return result, nil
}

func failedItem(item model.BulkItem, err error) model.BulkItemResult {
	return model.BulkItemResult{
		CollectionUID: item.CollectionUID,
		RecordID:      item.RecordID,
		Code:          model.ErrorCode(err),
		Error:         err.Error(),
		Err:           err,
	}
}
