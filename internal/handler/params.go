package handler

import (
	"net/url"
	"strconv"

	"github.com/yourorg/tablereserve/internal/domain"
)

func queryDate(q url.Values, key string) (domain.Date, error) {
	raw := q.Get(key)
	if raw == "" {
		return domain.Date{}, &domain.ValidationError{Field: key, Reason: "required, format YYYY-MM-DD"}
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, &domain.ValidationError{Field: key, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return d, nil
}

func queryTime(q url.Values, key string) (domain.TimeOfDay, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, &domain.ValidationError{Field: key, Reason: "required, format HH:MM"}
	}
	t, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Reason: "must be a time in HH:MM format"}
	}
	return t, nil
}

func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, &domain.ValidationError{Field: key, Reason: "required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}
