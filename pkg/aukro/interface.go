package aukro

import "context"

// SessionHandler persists the session record between requests.
// Load reports ok=false when no session is stored.
type SessionHandler interface {
	Load(ctx context.Context) (record SessionRecord, ok bool, err error)
	Store(ctx context.Context, record SessionRecord) error
	Clear(ctx context.Context) error
}

// SoapClient performs named remote procedure calls
type SoapClient interface {
	// Call invokes the remote procedure with the given request
	Call(ctx context.Context, procedure string, request Request) (Response, error)

	// DoLoginEnc invokes the remote login procedure
	DoLoginEnc(ctx context.Context, request Request) (Response, error)
}

// AukroClient defines the interface for session-aware WebAPI operations
type AukroClient interface {
	IsLogged(ctx context.Context) (bool, error)
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	SetSessionHandler(handler SessionHandler)

	// Call invokes any remote operation by method name, e.g. "getMyIncomingPayments"
	Call(ctx context.Context, method string, params Request) (Response, error)

	GetMyIncomingPayments(ctx context.Context, params Request) (Response, error)
	GetSellFormFieldsExt(ctx context.Context) (Response, error)
}
