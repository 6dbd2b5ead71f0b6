package service

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/seerrbot/OverseerrBot/internal/bot/models"
)

// SelectionKind distinguishes what a pending selection is paging through.
type SelectionKind int

const (
	SelectionSearch SelectionKind = iota
	SelectionUsers
)

// Selection is the scratch state of an in-progress /check or /settings list
// flow. Every outbound menu for it carries Token; a tap whose token no
// longer matches the live selection is stale and rejected.
type Selection struct {
	Token     string
	Kind      SelectionKind
	Query     string
	Results   []models.MediaResult
	Users     []models.BackendUser
	Page      int
	ChosenIdx int // index into Results, -1 until a result is picked
	Category  int // Overseerr issue type code, 0 until picked
}

// SelectionCache tracks at most one live selection per participant. Entries
// expire on their own so abandoned flows do not accumulate.
type SelectionCache struct {
	entries *gocache.Cache
}

// NewSelectionCache creates the cache. ttl bounds how long an untouched flow
// stays tappable.
func NewSelectionCache(ttl time.Duration) *SelectionCache {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &SelectionCache{
		entries: gocache.New(ttl, 10*time.Minute),
	}
}

func selectionKey(participantID int64) string {
	return strconv.FormatInt(participantID, 10)
}

// StartSearch replaces the participant's selection with a fresh search flow
// and returns it. Any previous flow's buttons become stale.
func (s *SelectionCache) StartSearch(participantID int64, query string, results []models.MediaResult) *Selection {
	sel := &Selection{
		Token:     uuid.NewString()[:8],
		Kind:      SelectionSearch,
		Query:     query,
		Results:   results,
		ChosenIdx: -1,
	}
	s.entries.SetDefault(selectionKey(participantID), sel)
	return sel
}

// StartUsers replaces the participant's selection with a backend-user list.
func (s *SelectionCache) StartUsers(participantID int64, users []models.BackendUser) *Selection {
	sel := &Selection{
		Token:     uuid.NewString()[:8],
		Kind:      SelectionUsers,
		Users:     users,
		ChosenIdx: -1,
	}
	s.entries.SetDefault(selectionKey(participantID), sel)
	return sel
}

// Get returns the live selection if token matches it, ErrStaleSelection
// otherwise.
func (s *SelectionCache) Get(participantID int64, token string) (*Selection, error) {
	v, ok := s.entries.Get(selectionKey(participantID))
	if !ok {
		return nil, ErrStaleSelection
	}
	sel := v.(*Selection)
	if sel.Token != token {
		return nil, ErrStaleSelection
	}
	return sel, nil
}

// Clear drops the participant's selection. Clearing twice is harmless;
// buttons bound to the dropped token simply read as stale afterwards.
func (s *SelectionCache) Clear(participantID int64) {
	s.entries.Delete(selectionKey(participantID))
}

// pageBounds returns the [start, end) slice bounds of page within a list of
// n entries. The same (list, page) pair always yields the same slice.
func pageBounds(n, page, pageSize int) (int, int) {
	start := page * pageSize
	if start < 0 || start >= n {
		return 0, 0
	}
	end := start + pageSize
	if end > n {
		end = n
	}
	return start, end
}
