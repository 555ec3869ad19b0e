package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"forum-letter/logger"
	"forum-letter/models"
)

// editionWrites are the writes behind one saved edition.
type editionWrites interface {
	InsertEdition(ctx context.Context, e *models.Edition) error
	InsertEditionItems(ctx context.Context, items []models.EditionItem) error
	MarkPublished(ctx context.Context, itemIDs []primitive.ObjectID, editionID primitive.ObjectID) error
	// Rollback removes everything written for editionID.
	Rollback(ctx context.Context, editionID primitive.ObjectID) error
}

// saveEdition writes the edition, its items and, optionally, the published
// markers. If any step fails, every earlier step is undone, so the caller
// sees either a complete edition or an error.
func saveEdition(ctx context.Context, w editionWrites, e *models.Edition, items []models.EditionItem, markPublished bool) error {
	if err := w.InsertEdition(ctx, e); err != nil {
		return fmt.Errorf("insert edition: %w", err)
	}

	var stepErr error
	if err := w.InsertEditionItems(ctx, items); err != nil {
		stepErr = fmt.Errorf("insert edition items: %w", err)
	} else if markPublished {
		ids := make([]primitive.ObjectID, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ItemID)
		}
		if err := w.MarkPublished(ctx, ids, e.ID); err != nil {
			stepErr = fmt.Errorf("mark items published: %w", err)
		}
	}
	if stepErr == nil {
		return nil
	}

	cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := w.Rollback(cleanup, e.ID); err != nil {
		logger.Log.Errorf("rollback of edition %s failed: %v", e.ID.Hex(), err)
	}
	return stepErr
}

// mongoEditionWrites runs the steps against the Store's collections.
type mongoEditionWrites struct{ s *Store }

func (m mongoEditionWrites) InsertEdition(ctx context.Context, e *models.Edition) error {
	return m.s.Editions.Insert(ctx, e)
}

func (m mongoEditionWrites) InsertEditionItems(ctx context.Context, items []models.EditionItem) error {
	return m.s.EditionItems.InsertMany(ctx, items)
}

func (m mongoEditionWrites) MarkPublished(ctx context.Context, itemIDs []primitive.ObjectID, editionID primitive.ObjectID) error {
	return m.s.Items.MarkPublished(ctx, itemIDs, editionID)
}

func (m mongoEditionWrites) Rollback(ctx context.Context, editionID primitive.ObjectID) error {
	if err := m.s.Items.UnmarkPublished(ctx, editionID); err != nil {
		return err
	}
	if err := m.s.EditionItems.DeleteByEdition(ctx, editionID); err != nil {
		return err
	}
	return m.s.Editions.Delete(ctx, editionID)
}
