// Package memstore provides in-memory collaborators for the publisher. They
// back dry local runs and tests and count every call they receive.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"merchingest/internal/model"
)

// Store is an in-memory data store.
type Store struct {
	mu       sync.Mutex
	tables   map[string][]model.Row
	failures map[string]error
	inserts  int
	selects  int
}

func NewStore() *Store {
	return &Store{
		tables:   make(map[string][]model.Row),
		failures: make(map[string]error),
	}
}

// FailOn makes every later insert into collection return err.
func (s *Store) FailOn(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[collection] = err
}

func (s *Store) Insert(ctx context.Context, collection string, row model.Row) (model.Row, error) {
	rows, err := s.InsertMany(ctx, collection, []model.Row{row})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

// InsertMany stores all rows or none of them.
func (s *Store) InsertMany(_ context.Context, collection string, rows []model.Row) ([]model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if err := s.failures[collection]; err != nil {
		return nil, err
	}
	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		stored := copyRow(row)
		if stored.ID() == "" {
			stored["id"] = uuid.NewString()
		}
		out = append(out, copyRow(stored))
		s.tables[collection] = append(s.tables[collection], stored)
	}
	return out, nil
}

// Select returns the rows whose columns equal every value of filter.
func (s *Store) Select(_ context.Context, collection string, filter model.Row) ([]model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selects++
	var out []model.Row
	for _, row := range s.tables[collection] {
		if matches(row, filter) {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

// Rows returns a copy of everything stored in collection.
func (s *Store) Rows(collection string) []model.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Row, 0, len(s.tables[collection]))
	for _, row := range s.tables[collection] {
		out = append(out, copyRow(row))
	}
	return out
}

// Inserts counts Insert and InsertMany calls, failed ones included.
func (s *Store) Inserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

func (s *Store) Selects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selects
}

func matches(row, filter model.Row) bool {
	for k, want := range filter {
		got, ok := row[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func copyRow(row model.Row) model.Row {
	out := make(model.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Object is a stored blob.
type Object struct {
	Body        []byte
	ContentType string
}

// Objects is an in-memory object store.
type Objects struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string]Object
	puts    int
	failErr error
}

func NewObjects(baseURL string) *Objects {
	return &Objects{BaseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]Object)}
}

// Fail makes every later Put return err.
func (o *Objects) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failErr = err
}

func (o *Objects) Put(_ context.Context, key string, body []byte, contentType string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.puts++
	if o.failErr != nil {
		return o.failErr
	}
	o.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

func (o *Objects) PublicURL(key string) string {
	return o.BaseURL + "/" + key
}

func (o *Objects) Get(key string) (Object, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	obj, ok := o.objects[key]
	return obj, ok
}

// Keys lists stored keys in lexical order.
func (o *Objects) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.objects))
	for k := range o.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o *Objects) Puts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.puts
}

// Accounts is an in-memory identity provider.
type Accounts struct {
	mu      sync.Mutex
	emails  map[string]string
	calls   int
	failErr error
}

func NewAccounts() *Accounts {
	return &Accounts{emails: make(map[string]string)}
}

func (a *Accounts) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failErr = err
}

func (a *Accounts) CreateAccount(_ context.Context, email, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	if a.failErr != nil {
		return "", a.failErr
	}
	if _, ok := a.emails[email]; ok {
		return "", fmt.Errorf("account %s already exists", email)
	}
	id := uuid.NewString()
	a.emails[email] = id
	return id, nil
}

// Calls counts CreateAccount invocations.
func (a *Accounts) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Ledger remembers published item addresses for the life of the process.
type Ledger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]bool)}
}

func (l *Ledger) Seen(_ context.Context, itemURL string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[itemURL], nil
}

func (l *Ledger) Mark(_ context.Context, itemURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[itemURL] = true
	return nil
}
