// Package aukro provides a session-aware client for the Aukro WebAPI.
//
// The WebAPI is a SOAP service shared by the Allegro group marketplaces. Every
// request carries the same identification parameters (country, WebAPI key,
// local version) and, once logged in, the session handle returned by
// doLoginEnc. Client keeps track of both so callers can invoke any remote
// procedure by name:
//
//	resp, err := client.Call(ctx, "getMyIncomingPayments", aukro.Request{"transRecvLimit": 25})
//
// which is sent as doGetMyIncomingPayments with the session and base
// parameters merged in. Transport is provided by a SoapClient and session
// persistence by a SessionHandler.
package aukro

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Client is the main client for interacting with the Aukro WebAPI
type Client struct {
	identity    Identity
	countryCode CountryCode
	versionKey  string
	requestData Request
	soapClient  SoapClient
	logger      *zap.Logger

	mu             sync.RWMutex
	sessionHandler SessionHandler
}

var _ AukroClient = (*Client)(nil)

// NewClient creates a new Aukro client with default production logger
func NewClient(identity Identity, countryCode CountryCode, versionKey string, sessionHandler SessionHandler, soapClient SoapClient) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(identity, countryCode, versionKey, sessionHandler, soapClient, logger)
}

// NewClientWithLogger creates a new Aukro client with a custom logger
func NewClientWithLogger(identity Identity, countryCode CountryCode, versionKey string, sessionHandler SessionHandler, soapClient SoapClient, logger *zap.Logger) *Client {
	return &Client{
		identity:    identity,
		countryCode: countryCode,
		versionKey:  versionKey,
		requestData: Request{
			// countryId is read by the older procedures (doGetShipmentData), countryCode by the newer ones
			"countryId":    countryCode.Value(),
			"countryCode":  countryCode.Value(),
			"webapiKey":    identity.APIKey(),
			"localVersion": versionKey,
		},
		soapClient:     soapClient,
		logger:         logger,
		sessionHandler: sessionHandler,
	}
}

// SetSessionHandler replaces the session handler. Session data is not migrated.
func (c *Client) SetSessionHandler(sessionHandler SessionHandler) {
	c.mu.Lock()
	c.sessionHandler = sessionHandler
	c.mu.Unlock()
}

func (c *Client) handler() SessionHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionHandler
}

// IsLogged reports whether the session handler holds a session
func (c *Client) IsLogged(ctx context.Context) (bool, error) {
	_, ok, err := c.handler().Load(ctx)
	if err != nil {
		c.logger.Error("Failed to load session", zap.Error(err))
		return false, err
	}
	return ok, nil
}

// Login calls doLoginEnc and stores the resulting session. It does nothing when already logged in.
func (c *Client) Login(ctx context.Context) error {
	handler := c.handler()

	_, logged, err := handler.Load(ctx)
	if err != nil {
		c.logger.Error("Failed to load session", zap.Error(err))
		return err
	}
	if logged {
		c.logger.Debug("Already logged in, skipping login")
		return nil
	}

	request, err := c.combineRequestData(ctx, handler, Request{
		"userLogin":        c.identity.Username(),
		"userHashPassword": c.identity.Password(),
	})
	if err != nil {
		return err
	}

	c.logger.Info("Logging in", zap.String("user", c.identity.Username()), zap.Int("country", c.countryCode.Value()))

	resp, err := c.soapClient.DoLoginEnc(ctx, request)
	if err != nil {
		c.logger.Error("Login request failed", zap.Error(err))
		return &LoginFailedError{Err: err}
	}

	var record SessionRecord
	if err := DecodeResponse(resp, &record); err != nil {
		c.logger.Error("Failed to parse login response", zap.Error(err))
		return &LoginFailedError{Err: err}
	}
	if record.SessionHandlePart == "" {
		c.logger.Error("Login response has no session handle")
		return &LoginFailedError{Err: ErrMissingSessionHandle}
	}
	record.Raw = resp

	if err := handler.Store(ctx, record); err != nil {
		c.logger.Error("Failed to store session", zap.Error(err))
		return err
	}

	c.logger.Info("Successfully logged in", zap.Int64("user_id", record.UserID))
	return nil
}

// Logout clears the stored session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.handler().Clear(ctx); err != nil {
		c.logger.Error("Failed to clear session", zap.Error(err))
		return err
	}
	c.logger.Info("Logged out")
	return nil
}

// combineRequestData merges base data, session fields and data, later sources winning.
func (c *Client) combineRequestData(ctx context.Context, handler SessionHandler, data Request) (Request, error) {
	request := c.requestData.clone()

	record, ok, err := handler.Load(ctx)
	if err != nil {
		c.logger.Error("Failed to load session", zap.Error(err))
		return nil, err
	}
	if ok {
		request["sessionId"] = record.SessionHandlePart
		request["sessionHandle"] = record.SessionHandlePart
	}

	for k, v := range data {
		request[k] = v
	}
	return request, nil
}

// Call invokes a remote procedure by method name. Names already in the
// doXxx form are used verbatim, anything else is prefixed with "do".
// Errors from the SoapClient are returned unchanged.
func (c *Client) Call(ctx context.Context, method string, params Request) (Response, error) {
	procedure, err := ProcedureName(method)
	if err != nil {
		return nil, err
	}

	request, err := c.combineRequestData(ctx, c.handler(), params)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Calling remote procedure",
		zap.String("method", method),
		zap.String("procedure", procedure),
		zap.Int("params", len(params)))

	return c.soapClient.Call(ctx, procedure, request)
}
