package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"forum-letter/models"
)

// memEditionWrites keeps the writes in maps and fails the named step.
type memEditionWrites struct {
	failStep    string
	editions    map[primitive.ObjectID]bool
	items       map[primitive.ObjectID][]models.EditionItem
	published   map[primitive.ObjectID]primitive.ObjectID
	rolledBack  []primitive.ObjectID
	rollbackErr error
}

func newMemEditionWrites(failStep string) *memEditionWrites {
	return &memEditionWrites{
		failStep:  failStep,
		editions:  map[primitive.ObjectID]bool{},
		items:     map[primitive.ObjectID][]models.EditionItem{},
		published: map[primitive.ObjectID]primitive.ObjectID{},
	}
}

func (m *memEditionWrites) InsertEdition(ctx context.Context, e *models.Edition) error {
	if m.failStep == "edition" {
		return errors.New("edition write failed")
	}
	m.editions[e.ID] = true
	return nil
}

func (m *memEditionWrites) InsertEditionItems(ctx context.Context, items []models.EditionItem) error {
	if m.failStep == "items" {
		return errors.New("items write failed")
	}
	for _, it := range items {
		m.items[it.EditionID] = append(m.items[it.EditionID], it)
	}
	return nil
}

func (m *memEditionWrites) MarkPublished(ctx context.Context, itemIDs []primitive.ObjectID, editionID primitive.ObjectID) error {
	if len(itemIDs) > 0 {
		// a partial update before the failure
		m.published[itemIDs[0]] = editionID
	}
	if m.failStep == "mark" {
		return errors.New("update failed")
	}
	for _, id := range itemIDs {
		m.published[id] = editionID
	}
	return nil
}

func (m *memEditionWrites) Rollback(ctx context.Context, editionID primitive.ObjectID) error {
	m.rolledBack = append(m.rolledBack, editionID)
	for item, ed := range m.published {
		if ed == editionID {
			delete(m.published, item)
		}
	}
	delete(m.items, editionID)
	delete(m.editions, editionID)
	return m.rollbackErr
}

func editionFixture() (*models.Edition, []models.EditionItem) {
	e := &models.Edition{ID: primitive.NewObjectID(), Title: "t", ItemCount: 2}
	items := []models.EditionItem{
		{EditionID: e.ID, ItemID: primitive.NewObjectID(), DisplayOrder: 0},
		{EditionID: e.ID, ItemID: primitive.NewObjectID(), DisplayOrder: 1},
	}
	return e, items
}

func TestSaveEditionSuccess(t *testing.T) {
	w := newMemEditionWrites("")
	e, items := editionFixture()

	require.NoError(t, saveEdition(context.Background(), w, e, items, true))
	assert.True(t, w.editions[e.ID])
	assert.Len(t, w.items[e.ID], 2)
	assert.Len(t, w.published, 2)
	assert.Empty(t, w.rolledBack)
}

func TestSaveEditionLeavesNothingBehindOnFailure(t *testing.T) {
	testCases := []struct {
		name        string
		failStep    string
		mark        bool
		wantErr     string
		wantRolled  bool
		rollbackErr error
	}{
		{name: "edition insert fails", failStep: "edition", mark: true, wantErr: "insert edition"},
		{name: "item insert fails", failStep: "items", mark: true, wantErr: "insert edition items", wantRolled: true},
		{name: "marking fails", failStep: "mark", mark: true, wantErr: "mark items published", wantRolled: true},
		{name: "rollback error keeps step error", failStep: "mark", mark: true, wantErr: "mark items published", wantRolled: true, rollbackErr: errors.New("gone")},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			w := newMemEditionWrites(testCase.failStep)
			w.rollbackErr = testCase.rollbackErr
			e, items := editionFixture()

			err := saveEdition(context.Background(), w, e, items, testCase.mark)
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.wantErr)

			assert.Empty(t, w.editions)
			assert.Empty(t, w.items)
			assert.Empty(t, w.published)
			if testCase.wantRolled {
				assert.Equal(t, []primitive.ObjectID{e.ID}, w.rolledBack)
			} else {
				assert.Empty(t, w.rolledBack)
			}
		})
	}
}

func TestSaveEditionWithoutMarking(t *testing.T) {
	w := newMemEditionWrites("mark")
	e, items := editionFixture()

	require.NoError(t, saveEdition(context.Background(), w, e, items, false))
	assert.Empty(t, w.published)
}

func TestAnnotationsWritten(t *testing.T) {
	dup := mongoDupBatch(2)

	n, err := annotationsWritten(5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = annotationsWritten(5, dup)
	assert.ErrorIs(t, err, ErrAlreadyAnnotated)
	assert.Equal(t, 3, n)

	n, err = annotationsWritten(5, errors.New("network"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyAnnotated)
	assert.Equal(t, 0, n)
}

func mongoDupBatch(n int) error {
	bwe := mongo.BulkWriteException{}
	for i := 0; i < n; i++ {
		bwe.WriteErrors = append(bwe.WriteErrors, mongo.BulkWriteError{WriteError: mongo.WriteError{Index: i, Code: 11000}})
	}
	return bwe
}
