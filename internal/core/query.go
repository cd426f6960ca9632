package core

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"github.com/gdg-garage/garage-events-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultItemsPerPage = 10

// EventQuery filters the event listing. Zero values do not filter.
type EventQuery struct {
	Page         int
	ItemsPerPage int
	Search       string
	Type         models.EventType
	From         *time.Time
	To           *time.Time
	Open         *bool
	OwnerID      string
	Filter       string
}

type Page[T any] struct {
	Items           []T   `json:"items"`
	TotalCount      int64 `json:"total_count"`
	PageNumber      int   `json:"page_number"`
	ItemsPerPage    int   `json:"items_per_page"`
	TotalPages      int   `json:"total_pages"`
	HasPreviousPage bool  `json:"has_previous_page"`
	HasNextPage     bool  `json:"has_next_page"`
}

type QueryService struct {
	store      *store.Store
	maxPerPage int
}

func NewQueryService(s *store.Store, maxPerPage int) *QueryService {
	if maxPerPage < 1 {
		maxPerPage = 100
	}
	return &QueryService{store: s, maxPerPage: maxPerPage}
}

// List returns one page of events ordered by event date. Pages are 1-based
// and the page size is clamped to the configured maximum.
func (s *QueryService) List(ctx context.Context, q EventQuery) (page Page[models.Event], err error) {
	ctx, span := startSpan(ctx, "core.ListEvents")
	defer func() { endSpan(span, err) }()

	perPage := q.ItemsPerPage
	if perPage < 1 {
		perPage = DefaultItemsPerPage
	}
	perPage = min(perPage, s.maxPerPage)
	// Bounded so the row offset cannot overflow.
	pageNumber := min(max(q.Page, 1), math.MaxInt/perPage)

	conds, err := s.conditions(q)
	if err != nil {
		return Page[models.Event]{}, err
	}

	events, total, err := s.store.ListEvents(ctx, store.EventListQuery{
		Conditions: conds,
		Offset:     (pageNumber - 1) * perPage,
		Limit:      perPage,
	})
	if err != nil {
		return Page[models.Event]{}, err
	}
	span.SetAttributes(attribute.Int64("events.total", total))

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return Page[models.Event]{
		Items:           events,
		TotalCount:      total,
		PageNumber:      pageNumber,
		ItemsPerPage:    perPage,
		TotalPages:      totalPages,
		HasPreviousPage: pageNumber > 1,
		HasNextPage:     pageNumber < totalPages,
	}, nil
}

func (s *QueryService) conditions(q EventQuery) ([]store.Condition, error) {
	var conds []store.Condition

	if term := strings.TrimSpace(q.Search); term != "" {
		conds = append(conds, store.Condition{
			Clause: `events.search_text LIKE ? ESCAPE '\'`,
			Params: []any{"%" + escapeLike(models.FoldSearch(term)) + "%"},
		})
	}
	if q.Type != "" {
		if !q.Type.Valid() {
			return nil, ErrInvalidFilter.WithMessage("unknown event type %q", q.Type)
		}
		conds = append(conds, store.Condition{Clause: "events.type = ?", Params: []any{q.Type}})
	}
	if q.From != nil {
		conds = append(conds, store.Condition{Clause: "events.event_date >= ?", Params: []any{q.From.UTC()}})
	}
	if q.To != nil {
		conds = append(conds, store.Condition{Clause: "events.event_date <= ?", Params: []any{q.To.UTC()}})
	}
	if q.Open != nil {
		conds = append(conds, store.Condition{Clause: "events.open_for_registration = ?", Params: []any{*q.Open}})
	}
	if q.OwnerID != "" {
		conds = append(conds, store.Condition{Clause: "events.owner_id = ?", Params: []any{q.OwnerID}})
	}

	filter, err := ParseFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	if filter.Clause != "" {
		conds = append(conds, filter)
	}
	return conds, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
