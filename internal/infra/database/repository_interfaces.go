package database

import "github.com/saintvisionai/platform-api/internal/entity"

var (
	_ entity.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ entity.WorkspaceRepository    = (*WorkspaceRepository)(nil)
	_ entity.ContactRepository      = (*ContactRepository)(nil)
	_ entity.OpportunityRepository  = (*OpportunityRepository)(nil)
	_ entity.AppointmentRepository  = (*AppointmentRepository)(nil)
	_ entity.CRMEventRepository     = (*CRMEventRepository)(nil)
	_ entity.WebhookEventStore      = (*WebhookEventRepository)(nil)
)
