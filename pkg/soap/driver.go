// Package soap implements aukro.SoapClient over HTTP using document/literal SOAP 1.1.
package soap

import (
	"context"
	"time"

	"github.com/google/uuid"
	gowsdl "github.com/hooklift/gowsdl/soap"
	"go.uber.org/zap"

	"github.com/natserract/aukro/pkg/aukro"
	httpclient "github.com/natserract/aukro/pkg/http"
)

const loginProcedure = "doLoginEnc"

// Driver sends remote procedure calls to the WebAPI endpoint
type Driver struct {
	config  Config
	client  *gowsdl.Client
	metrics *Metrics
	logger  *zap.Logger
}

var _ aukro.SoapClient = (*Driver)(nil)

// NewDriverWithLogger creates a new driver with a custom logger
func NewDriverWithLogger(cfg Config, logger *zap.Logger) *Driver {
	cfg = cfg.withDefaults()
	httpClient := httpclient.NewClientWithOptions(httpclient.Options{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	}, logger)

	return &Driver{
		config: cfg,
		client: gowsdl.NewClient(cfg.Endpoint, gowsdl.WithHTTPClient(httpClient)),
		logger: logger,
	}
}

// WithMetrics makes the driver record every call in m
func (d *Driver) WithMetrics(m *Metrics) *Driver {
	d.metrics = m
	return d
}

// DoLoginEnc calls the login procedure
func (d *Driver) DoLoginEnc(ctx context.Context, request aukro.Request) (aukro.Response, error) {
	return d.Call(ctx, loginProcedure, request)
}

// Call sends request to the named procedure and returns the decoded response element
func (d *Driver) Call(ctx context.Context, procedure string, request aukro.Request) (aukro.Response, error) {
	requestID := uuid.NewString()
	body := newRequestBody(d.config.Namespace, procedure)
	body.params = request

	d.logger.Debug("Making SOAP request",
		zap.String("request_id", requestID),
		zap.String("procedure", procedure),
		zap.String("endpoint", d.config.Endpoint))

	start := time.Now()
	var result responseBody
	err := d.client.CallContext(ctx, "#"+procedure, body, &result)
	elapsed := time.Since(start)
	d.metrics.observe(procedure, err, elapsed)

	if err != nil {
		d.logger.Error("SOAP request failed",
			zap.String("request_id", requestID),
			zap.String("procedure", procedure),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, &RequestFailedError{Procedure: procedure, Err: err}
	}

	d.logger.Debug("SOAP request successful",
		zap.String("request_id", requestID),
		zap.String("procedure", procedure),
		zap.Duration("elapsed", elapsed))

	return result.response(), nil
}
