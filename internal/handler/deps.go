package handler

import (
	"peerchat/internal/app/chat"
	"peerchat/internal/app/storage"
	"peerchat/internal/app/store"
	"peerchat/internal/configs"
	"peerchat/internal/pkg/mailer"
)

// AppDeps bundles the collaborators every handler needs. StorageService is nil
// when object storage is not configured; handlers must check before using it.
type AppDeps struct {
	Coordinator *chat.Coordinator
	Hub         *chat.Hub
	Config      *configs.AppConfig
	Accounts    *store.AccountStore
	Rooms       *store.RoomStore
	Messages    *store.MessageStore
	Storage     storage.StorageService
	Mailer      mailer.Mailer
}
