package history

import (
	"context"
	"fmt"
	"slices"

	"github.com/lumi-ai/lumi/internal/store"
)

// SetSelectionMode toggles multi-select. Leaving selection mode clears the
// selected set.
func (b *Browser) SetSelectionMode(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectionMode = on
	if !on {
		clear(b.selected)
	}
}

// SelectionMode reports whether multi-select is active.
func (b *Browser) SelectionMode() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selectionMode
}

// ToggleSelection flips id's membership in the selected set.
func (b *Browser) ToggleSelection(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.selected[id]; ok {
		delete(b.selected, id)
	} else {
		b.selected[id] = struct{}{}
	}
}

// Selected returns the selected ids in stable order.
func (b *Browser) Selected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.selected))
	for id := range b.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// BulkDelete removes every selected record in one atomic store batch.
// Local state is updated only after the store commit succeeds, so a failed
// delete leaves the list untouched.
func (b *Browser) BulkDelete(ctx context.Context) error {
	b.mu.Lock()
	ids := make([]string, 0, len(b.selected))
	for id := range b.selected {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	if err := b.store.DeleteRecords(ctx, b.ownerID, ids); err != nil {
		return fmt.Errorf("bulk delete: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(ids)
	clear(b.selected)
	b.selectionMode = false
	return nil
}

// DeleteOne removes a single record.
func (b *Browser) DeleteOne(ctx context.Context, id string) error {
	if err := b.store.DeleteRecord(ctx, b.ownerID, id); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked([]string{id})
	delete(b.selected, id)
	return nil
}

// ClearAll deletes every record for the owner regardless of the current
// filter: it fetches the full unfiltered set first, then issues one batch
// delete.
func (b *Browser) ClearAll(ctx context.Context) error {
	all, err := b.store.ListAllRecords(ctx, b.ownerID)
	if err != nil {
		return fmt.Errorf("listing records for clear: %w", err)
	}
	if len(all) == 0 {
		return nil
	}
	ids := make([]string, len(all))
	for i, rec := range all {
		ids[i] = rec.ID
	}
	if err := b.store.DeleteRecords(ctx, b.ownerID, ids); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
	b.cursor = nil
	b.hasMore = false
	clear(b.selected)
	b.selectionMode = false
	b.drawer = nil
	return nil
}

// removeLocked drops ids from the loaded list and closes the drawer if it
// shows one of them. Caller holds b.mu.
func (b *Browser) removeLocked(ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := b.records[:0]
	for _, rec := range b.records {
		if _, gone := drop[rec.ID]; !gone {
			kept = append(kept, rec)
		}
	}
	b.records = kept
	if b.drawer != nil {
		if _, gone := drop[b.drawer.ID]; gone {
			b.drawer = nil
		}
	}
}

// OpenDetail opens the drawer on one of the loaded records.
func (b *Browser) OpenDetail(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.records {
		if b.records[i].ID == id {
			rec := b.records[i]
			b.drawer = &rec
			return nil
		}
	}
	return store.ErrNotFound
}

// CloseDetail closes the drawer.
func (b *Browser) CloseDetail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drawer = nil
}

// Drawer returns a copy of the record shown in the drawer, or nil.
func (b *Browser) Drawer() *store.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawer == nil {
		return nil
	}
	rec := *b.drawer
	return &rec
}

// Rerun hands the drawer record to the rehydration callback without
// generating anything itself.
func (b *Browser) Rerun() error {
	b.mu.Lock()
	rec := b.drawer
	fn := b.onRerun
	b.mu.Unlock()

	if rec == nil {
		return fmt.Errorf("no record open in drawer")
	}
	if fn == nil {
		return fmt.Errorf("no rehydration target configured")
	}
	fn(*rec)
	return nil
}
