package domain

import "context"

//go:generate mockgen -source=schedule_repository.go -destination=schedule_repository_mock.go -package=domain

type ScheduleRepository interface {
	ListItems(ctx context.Context) ([]ScheduleItem, error)
	UpsertItem(ctx context.Context, item *ScheduleItem) error
	UpsertItems(ctx context.Context, items []ScheduleItem) error
	DeleteItem(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
