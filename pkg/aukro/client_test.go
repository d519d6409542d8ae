package aukro

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCall struct {
	procedure string
	request   Request
}

type fakeSoap struct {
	mu        sync.Mutex
	calls     []fakeCall
	loginResp Response
	loginErr  error
	callResp  Response
	callErr   error
}

func (f *fakeSoap) Call(_ context.Context, procedure string, request Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{procedure: procedure, request: request})
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResp, nil
}

func (f *fakeSoap) DoLoginEnc(_ context.Context, request Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{procedure: "doLoginEnc", request: request})
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeSoap) count(procedure string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.procedure == procedure {
			n++
		}
	}
	return n
}

func (f *fakeSoap) last() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakeHandler struct {
	mu      sync.Mutex
	record  *SessionRecord
	stores  int
	loadErr error
}

func (h *fakeHandler) Load(context.Context) (SessionRecord, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loadErr != nil {
		return SessionRecord{}, false, h.loadErr
	}
	if h.record == nil {
		return SessionRecord{}, false, nil
	}
	return *h.record, true, nil
}

func (h *fakeHandler) Store(_ context.Context, record SessionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stores++
	h.record = &record
	return nil
}

func (h *fakeHandler) Clear(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record = nil
	return nil
}

func newTestClient(handler SessionHandler, soap SoapClient) *Client {
	identity := NewIdentity("seller", "api-key", HashPassword("secret"))
	return NewClientWithLogger(identity, NewCountryCode(CountryCzechRepublic), "1505", handler, soap, zap.NewNop())
}

func loginResponse(handle string) Response {
	return Response{
		"sessionHandlePart": handle,
		"userId":            "42",
		"serverTime":        "1700000000",
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("stores session", func(t *testing.T) {
		soap := &fakeSoap{loginResp: loginResponse("abc")}
		handler := &fakeHandler{}
		client := newTestClient(handler, soap)

		require.NoError(t, client.Login(ctx))

		require.NotNil(t, handler.record)
		assert.Equal(t, "abc", handler.record.SessionHandlePart)
		assert.Equal(t, int64(42), handler.record.UserID)
		assert.Equal(t, int64(1700000000), handler.record.ServerTime)
		assert.Equal(t, "abc", handler.record.Raw["sessionHandlePart"])

		req := soap.last().request
		assert.Equal(t, "seller", req["userLogin"])
		assert.Equal(t, HashPassword("secret"), req["userHashPassword"])
		assert.Equal(t, CountryCzechRepublic, req["countryId"])
		assert.Equal(t, CountryCzechRepublic, req["countryCode"])
		assert.Equal(t, "api-key", req["webapiKey"])
		assert.Equal(t, "1505", req["localVersion"])
		assert.NotContains(t, req, "sessionId")
	})

	t.Run("idempotent", func(t *testing.T) {
		soap := &fakeSoap{loginResp: loginResponse("abc")}
		handler := &fakeHandler{}
		client := newTestClient(handler, soap)

		require.NoError(t, client.Login(ctx))
		require.NoError(t, client.Login(ctx))

		assert.Equal(t, 1, soap.count("doLoginEnc"))
		assert.Equal(t, 1, handler.stores)
	})

	t.Run("transport failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		soap := &fakeSoap{loginErr: cause}
		handler := &fakeHandler{}
		client := newTestClient(handler, soap)

		err := client.Login(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLoginFailed)
		assert.ErrorIs(t, err, cause)

		var loginErr *LoginFailedError
		require.ErrorAs(t, err, &loginErr)
		assert.Equal(t, cause, loginErr.Err)
		assert.Equal(t, 0, handler.stores)

		logged, err := client.IsLogged(ctx)
		require.NoError(t, err)
		assert.False(t, logged)
	})

	t.Run("missing session handle", func(t *testing.T) {
		soap := &fakeSoap{loginResp: Response{"userId": "42"}}
		handler := &fakeHandler{}
		client := newTestClient(handler, soap)

		err := client.Login(ctx)
		assert.ErrorIs(t, err, ErrLoginFailed)
		assert.ErrorIs(t, err, ErrMissingSessionHandle)
		assert.Equal(t, 0, handler.stores)
	})

	t.Run("handler failure", func(t *testing.T) {
		loadErr := errors.New("store down")
		soap := &fakeSoap{loginResp: loginResponse("abc")}
		client := newTestClient(&fakeHandler{loadErr: loadErr}, soap)

		err := client.Login(ctx)
		assert.ErrorIs(t, err, loadErr)
		assert.NotErrorIs(t, err, ErrLoginFailed)
		assert.Equal(t, 0, soap.count("doLoginEnc"))
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(&fakeHandler{}, &fakeSoap{loginResp: loginResponse("abc")})

	require.NoError(t, client.Login(ctx))
	logged, err := client.IsLogged(ctx)
	require.NoError(t, err)
	require.True(t, logged)

	require.NoError(t, client.Logout(ctx))
	logged, err = client.IsLogged(ctx)
	require.NoError(t, err)
	assert.False(t, logged)

	// clearing an absent session is a no-op
	require.NoError(t, client.Logout(ctx))
	logged, err = client.IsLogged(ctx)
	require.NoError(t, err)
	assert.False(t, logged)
}

func TestSetSessionHandler(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(&fakeHandler{record: &SessionRecord{SessionHandlePart: "old"}}, &fakeSoap{})

	logged, err := client.IsLogged(ctx)
	require.NoError(t, err)
	require.True(t, logged)

	client.SetSessionHandler(&fakeHandler{})
	logged, err = client.IsLogged(ctx)
	require.NoError(t, err)
	assert.False(t, logged)

	client.SetSessionHandler(&fakeHandler{record: &SessionRecord{SessionHandlePart: "other"}})
	logged, err = client.IsLogged(ctx)
	require.NoError(t, err)
	assert.True(t, logged)
}

func TestCall(t *testing.T) {
	ctx := context.Background()

	t.Run("logged out", func(t *testing.T) {
		soap := &fakeSoap{callResp: Response{"ok": "1"}}
		client := newTestClient(&fakeHandler{}, soap)

		resp, err := client.Call(ctx, "getSellFormFieldsExt", nil)
		require.NoError(t, err)
		assert.Equal(t, Response{"ok": "1"}, resp)

		call := soap.last()
		assert.Equal(t, "doGetSellFormFieldsExt", call.procedure)
		assert.Equal(t, Request{
			"countryId":    CountryCzechRepublic,
			"countryCode":  CountryCzechRepublic,
			"webapiKey":    "api-key",
			"localVersion": "1505",
		}, call.request)
	})

	t.Run("precedence", func(t *testing.T) {
		soap := &fakeSoap{}
		handler := &fakeHandler{record: &SessionRecord{SessionHandlePart: "handle"}}
		client := newTestClient(handler, soap)

		_, err := client.Call(ctx, "doGetMyIncomingPayments", Request{
			"countryCode":    1,
			"sessionHandle":  "override",
			"transRecvLimit": 25,
		})
		require.NoError(t, err)

		call := soap.last()
		assert.Equal(t, "doGetMyIncomingPayments", call.procedure)
		assert.Equal(t, Request{
			"countryId":      CountryCzechRepublic,
			"countryCode":    1,
			"webapiKey":      "api-key",
			"localVersion":   "1505",
			"sessionId":      "handle",
			"sessionHandle":  "override",
			"transRecvLimit": 25,
		}, call.request)
	})

	t.Run("base data is not mutated", func(t *testing.T) {
		soap := &fakeSoap{}
		client := newTestClient(&fakeHandler{}, soap)

		_, err := client.Call(ctx, "getFoo", Request{"webapiKey": "other"})
		require.NoError(t, err)
		_, err = client.Call(ctx, "getFoo", nil)
		require.NoError(t, err)

		assert.Equal(t, "api-key", soap.last().request["webapiKey"])
	})

	t.Run("driver errors pass through", func(t *testing.T) {
		cause := errors.New("remote fault")
		client := newTestClient(&fakeHandler{}, &fakeSoap{callErr: cause})

		_, err := client.Call(ctx, "getFoo", nil)
		assert.Same(t, cause, err)
	})

	t.Run("empty method", func(t *testing.T) {
		soap := &fakeSoap{}
		client := newTestClient(&fakeHandler{}, soap)

		_, err := client.Call(ctx, "", nil)
		assert.ErrorIs(t, err, ErrEmptyMethod)
		assert.Empty(t, soap.calls)
	})
}

func TestTypedWrappers(t *testing.T) {
	ctx := context.Background()
	soap := &fakeSoap{}
	client := newTestClient(&fakeHandler{record: &SessionRecord{SessionHandlePart: "h"}}, soap)

	_, err := client.GetMyIncomingPayments(ctx, Request{"transRecvLimit": 10})
	require.NoError(t, err)
	assert.Equal(t, "doGetMyIncomingPayments", soap.last().procedure)
	assert.Equal(t, 10, soap.last().request["transRecvLimit"])

	_, err = client.GetSellFormFieldsExt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doGetSellFormFieldsExt", soap.last().procedure)
	assert.Equal(t, "h", soap.last().request["sessionId"])
}
