package features

import (
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
)

// derivedColumns lists the engineered features in derivation order.
var derivedColumns = []string{
	domain.ColResolutionDays,
	domain.ColDayOfWeek,
	domain.ColIsHighPriority,
	domain.ColBreachFlag,
}

// sourceColumns maps each derived feature to the column it needs.
var sourceColumns = map[string]string{
	domain.ColResolutionDays: domain.ColResolutionHours,
	domain.ColDayOfWeek:      domain.ColCreatedDate,
	domain.ColIsHighPriority: domain.ColPriority,
	domain.ColBreachFlag:     domain.ColSLABreached,
}

// Engineer derives per-ticket features from the cleaned table.
type Engineer struct {
	logger *zap.Logger
}

// New instantiates a feature engineer.
func New(logger *zap.Logger) *Engineer {
	return &Engineer{logger: logger}
}

// Engineer adds Resolution_Days, Day_of_Week, Is_High_Priority and
// Breach_Flag in that order. All source columns are declared up front;
// any absence is a fatal named-columns error rather than a silent skip.
func (e *Engineer) Engineer(table *dataset.TicketTable) (*dataset.TicketTable, error) {
	required := make([]string, 0, len(derivedColumns))
	for _, derived := range derivedColumns {
		required = append(required, sourceColumns[derived])
	}
	if err := table.Require(required...); err != nil {
		return nil, err
	}

	tickets := make([]domain.Ticket, len(table.Tickets))
	copy(tickets, table.Tickets)
	for i := range tickets {
		t := &tickets[i]
		t.ResolutionDays = stats.Round(t.ResolutionHours/24, 2)
		t.DayOfWeek = t.CreatedDate.Weekday().String()
		t.IsHighPriority = t.Priority == domain.PriorityHigh || t.Priority == domain.PriorityCritical
		if t.SLABreached {
			t.BreachFlag = 1
		} else {
			t.BreachFlag = 0
		}
	}

	columns := append([]string(nil), table.Columns...)
	for _, derived := range derivedColumns {
		if !table.HasColumn(derived) {
			columns = append(columns, derived)
		}
	}

	e.logger.Info("engineered ticket features",
		zap.Int("rows", len(tickets)),
		zap.Strings("features", derivedColumns),
	)
	return dataset.NewTicketTable(columns, tickets), nil
}
