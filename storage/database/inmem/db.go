// Package inmemdb provides map-backed repositories used in tests and
// local development.
package inmemdb

import (
	"sync"

	"github.com/kifolio/backend/core/highlight"
	"github.com/kifolio/backend/core/portfolio"
	"github.com/kifolio/backend/core/user"
)

type DB struct {
	user      *userTable
	portfolio *portfolioTable
	highlight *highlightTable
}

func NewDB() *DB {
	return &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		portfolio: &portfolioTable{table: make(map[string]*portfolio.Portfolio)},
		highlight: &highlightTable{table: make(map[string]*highlight.Highlight)},
	}
}

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User
}

type portfolioTable struct {
	mutex sync.RWMutex
	table map[string]*portfolio.Portfolio
}

type highlightTable struct {
	mutex sync.RWMutex
	table map[string]*highlight.Highlight
}
