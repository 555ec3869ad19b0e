package repositories

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrDuplicateExternalID is returned when an item with the same external id already exists.
	ErrDuplicateExternalID = errors.New("repositories: duplicate external id")
	// ErrAlreadyAnnotated is returned when the item already carries an annotation.
	ErrAlreadyAnnotated = errors.New("repositories: item already annotated")
	// ErrNotFound is returned by single-document lookups that match nothing.
	ErrNotFound = errors.New("repositories: not found")
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// insertedDespiteDuplicates returns how many documents of an unordered bulk
// insert of n documents were written when the only failures are duplicate keys.
// Any other write error is returned as-is.
func insertedDespiteDuplicates(n int, err error) (int, error) {
	if err == nil {
		return n, nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return 0, err
	}
	if bwe.WriteConcernError != nil {
		return 0, err
	}
	dups := 0
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 && we.Code != 11001 && we.Code != 12582 {
			return 0, err
		}
		dups++
	}
	return n - dups, nil
}
