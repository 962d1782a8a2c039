package adapters

import (
	"context"

	"spendview/internal/core"
	"spendview/internal/ports"
	"spendview/internal/storage"
)

// StorageOpener adapts storage.Connector to ports.SessionOpener
// so the dashboard service can be tested without a database.
type StorageOpener struct {
	connector *storage.Connector
}

func NewStorageOpener(connector *storage.Connector) *StorageOpener {
	return &StorageOpener{connector: connector}
}

// Open implements ports.SessionOpener
func (a *StorageOpener) Open(ctx context.Context, creds core.Credentials) (ports.QuerySession, error) {
	session, err := a.connector.Open(ctx, creds)
	if err != nil {
		return nil, err
	}
	return session, nil
}
