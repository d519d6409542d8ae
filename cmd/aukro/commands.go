package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/natserract/aukro/pkg/aukro"
	"github.com/natserract/aukro/pkg/config"
)

var errUsage = errors.New("usage")

type app struct {
	cfg         *config.Config
	handler     aukro.SessionHandler
	soap        aukro.SoapClient
	out         io.Writer
	logger      *zap.Logger
	concurrency int
}

func (a *app) runCommand(ctx context.Context, name string, args []string) error {
	switch name {
	case "status":
		return a.status(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout(ctx)
	case "call":
		return a.call(ctx, args)
	case "batch":
		return a.batch(ctx, args)
	case "version-key":
		return a.versionKey(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

// client builds the Client. Commands that reach the WebAPI need a version key,
// which is fetched when none is configured. Session-only commands work offline.
func (a *app) client(ctx context.Context, remote bool) (*aukro.Client, error) {
	versionKey := a.cfg.VersionKey
	if versionKey == "" && remote {
		key, err := aukro.FetchVersionKey(ctx, a.soap, a.cfg.Identity(), a.cfg.Country)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch version key: %w", err)
		}
		a.logger.Info("Fetched version key", zap.String("version_key", key))
		versionKey = key
	}
	return aukro.NewClientWithLogger(a.cfg.Identity(), a.cfg.Country, versionKey, a.handler, a.soap, a.logger), nil
}

func (a *app) status(ctx context.Context) error {
	client, err := a.client(ctx, false)
	if err != nil {
		return err
	}
	logged, err := client.IsLogged(ctx)
	if err != nil {
		return err
	}
	if logged {
		fmt.Fprintf(a.out, "logged in as %s (%s)\n", a.cfg.Username, a.cfg.Country)
	} else {
		fmt.Fprintln(a.out, "not logged in")
	}
	return nil
}

func (a *app) login(ctx context.Context) error {
	client, err := a.client(ctx, true)
	if err != nil {
		return err
	}
	if err := client.Login(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", a.cfg.Username, a.cfg.Country)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	client, err := a.client(ctx, false)
	if err != nil {
		return err
	}
	if err := client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) call(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: call <method> [key=value ...]", errUsage)
	}
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	client, err := a.client(ctx, true)
	if err != nil {
		return err
	}
	resp, err := client.Call(ctx, args[0], params)
	if err != nil {
		return err
	}
	return a.printJSON(resp)
}

func (a *app) batch(ctx context.Context, methods []string) error {
	if len(methods) == 0 {
		return fmt.Errorf("%w: batch <method> [<method> ...]", errUsage)
	}
	calls := make([]aukro.BatchCall, 0, len(methods))
	for _, m := range methods {
		calls = append(calls, aukro.BatchCall{Method: m})
	}

	client, err := a.client(ctx, true)
	if err != nil {
		return err
	}
	results, metrics := client.CallAll(ctx, calls, a.concurrency)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(a.out, "%s: error: %v\n", r.Method, r.Err)
			continue
		}
		fmt.Fprintf(a.out, "%s: ok (%d fields)\n", r.Method, len(r.Response))
	}

	fmt.Fprintf(a.out, "Batch Metrics:\n")
	fmt.Fprintf(a.out, "  Calls: %d succeeded, %d failed\n", metrics.Succeeded, metrics.Failed)
	fmt.Fprintf(a.out, "  Duration: %s\n", metrics.Duration)

	if metrics.Failed > 0 {
		return fmt.Errorf("%d of %d calls failed", metrics.Failed, metrics.Total())
	}
	return nil
}

func (a *app) versionKey(ctx context.Context) error {
	key, err := aukro.FetchVersionKey(ctx, a.soap, a.cfg.Identity(), a.cfg.Country)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, key)
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// parseParams turns key=value arguments into a request. Integers and booleans
// are converted, and key[]=value appends to a list.
func parseParams(args []string) (aukro.Request, error) {
	params := aukro.Request{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: parameter %q is not key=value", errUsage, arg)
		}

		v := scalar(raw)
		if list, isList := strings.CutSuffix(key, "[]"); isList {
			existing, _ := params[list].([]any)
			params[list] = append(existing, v)
			continue
		}
		params[key] = v
	}
	return params, nil
}

func scalar(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if raw == "true" || raw == "false" {
		return raw == "true"
	}
	return raw
}
