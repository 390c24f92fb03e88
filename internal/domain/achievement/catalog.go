// Package achievement maps progress aggregates onto a fixed ordered catalog
// of achievements and decides when a celebration should fire.
package achievement

import "github.com/margo-hub/margo-learning-hub/internal/domain/progress"

// Definition is one entry of the static achievement catalog. The predicate
// receives the current aggregates plus whether the user is authenticated.
type Definition struct {
	// Title and Description are user-facing and rendered verbatim.
	Title       string `json:"title"`
	Description string `json:"description"`

	predicate func(agg progress.Aggregates, authenticated bool) bool
}

// Satisfied reports whether the achievement's predicate holds.
func (d Definition) Satisfied(agg progress.Aggregates, authenticated bool) bool {
	return d.predicate(agg, authenticated)
}

// Catalog is the fixed ordered achievement set. The order matters only for
// attributing which achievement just unlocked when the count increases.
var Catalog = []Definition{
	{
		Title:       "Зарегистрироваться",
		Description: "Создайте аккаунт и начните обучение",
		predicate: func(_ progress.Aggregates, authenticated bool) bool {
			return authenticated
		},
	},
	{
		Title:       "Первый урок",
		Description: "Завершите свой первый урок",
		predicate: func(agg progress.Aggregates, _ bool) bool {
			return agg.TotalCompletedLessons >= 1
		},
	},
	{
		Title:       "Первый тест",
		Description: "Пройдите тест без ошибок",
		predicate: func(agg progress.Aggregates, _ bool) bool {
			return agg.TotalCompletedTests >= 1
		},
	},
	{
		Title:       "5 уроков",
		Description: "Завершите пять уроков",
		predicate: func(agg progress.Aggregates, _ bool) bool {
			return agg.TotalCompletedLessons >= 5
		},
	},
	{
		Title:       "3 теста",
		Description: "Пройдите три теста без ошибок",
		predicate: func(agg progress.Aggregates, _ bool) bool {
			return agg.TotalCompletedTests >= 3
		},
	},
}

// Size is the number of achievements in the catalog.
func Size() int { return len(Catalog) }
