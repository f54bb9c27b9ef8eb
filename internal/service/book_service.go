package service

import (
	"book_mirror/internal/book"
)

// Status reports whether the mirror may be trusted by consumers.
type Status interface {
	Ready() bool
}

// BookService is the read boundary between the engine-owned registry and
// any presentation layer. Everything it returns is a deep copy, so
// callers can hold results across engine mutations.
type BookService struct {
	books  *book.Registry
	status Status
}

func NewBookService(books *book.Registry, status Status) *BookService {
	return &BookService{books: books, status: status}
}

// Ready reports the mirror's readiness: a snapshot has loaded and the
// feed is connected. Consumers gate rendering and interaction on this.
func (s *BookService) Ready() bool {
	return s.status.Ready()
}

// Books returns a copy of every mirrored book.
func (s *BookService) Books() map[string]book.OrderBook {
	return s.books.All()
}

// Book returns a copy of one symbol's book.
func (s *BookService) Book(symbol string) (book.OrderBook, bool) {
	return s.books.Book(symbol)
}

// Symbols returns the mirrored symbols in sorted order.
func (s *BookService) Symbols() []string {
	return s.books.Symbols()
}
