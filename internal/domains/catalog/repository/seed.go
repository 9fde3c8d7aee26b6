package repository

import (
	"context"
	"errors"
	"time"

	"library-backend/internal/domains/catalog/model"
)

type sampleItem struct {
	title, author, isbn, category string
	copies                        int
}

var sampleCatalog = []sampleItem{
	{"The Great Gatsby", "F. Scott Fitzgerald", "9780743273565", "Fiction", 5},
	{"To Kill a Mockingbird", "Harper Lee", "9780061120084", "Fiction", 3},
	{"Introduction to Algorithms", "Thomas H. Cormen", "9780262033848", "Technology", 4},
	{"A Brief History of Time", "Stephen Hawking", "9780553380163", "Science", 6},
	{"1984", "George Orwell", "9780451524935", "Fiction", 5},
}

// SeedSampleCatalog inserts the sample titles whose ISBN is not in the catalog yet
// Returns the number of items created
func SeedSampleCatalog(ctx context.Context, repo RepositoryInterface, now time.Time) (int, error) {
	created := 0
	for _, s := range sampleCatalog {
		_, err := repo.GetByISBN(ctx, s.isbn)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrItemNotFound) {
			return created, err
		}

		item := model.NewItem(s.title, s.author, s.isbn, s.category, s.copies, now)
		if err := repo.Create(ctx, item); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
