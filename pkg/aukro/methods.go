package aukro

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"
)

var procedurePattern = regexp.MustCompile(`^do[A-Z]`)

// ProcedureName maps a method name to the remote procedure name:
// getFoo becomes doGetFoo, doGetFoo stays as is.
func ProcedureName(method string) (string, error) {
	if method == "" {
		return "", ErrEmptyMethod
	}
	if procedurePattern.MatchString(method) {
		return method, nil
	}
	return "do" + upperFirst(method), nil
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// GetMyIncomingPayments calls doGetMyIncomingPayments
func (c *Client) GetMyIncomingPayments(ctx context.Context, params Request) (Response, error) {
	return c.Call(ctx, "getMyIncomingPayments", params)
}

// GetSellFormFieldsExt calls doGetSellFormFieldsExt
func (c *Client) GetSellFormFieldsExt(ctx context.Context) (Response, error) {
	return c.Call(ctx, "getSellFormFieldsExt", nil)
}

// SysVarProgram asks doQuerySysStatus for the program version component
const SysVarProgram = 1

// FetchVersionKey asks the WebAPI for the current version key, the value
// expected as localVersion. It needs no session.
func FetchVersionKey(ctx context.Context, soapClient SoapClient, identity Identity, countryCode CountryCode) (string, error) {
	resp, err := soapClient.Call(ctx, "doQuerySysStatus", Request{
		"sysvar":    SysVarProgram,
		"countryId": countryCode.Value(),
		"webapiKey": identity.APIKey(),
	})
	if err != nil {
		return "", fmt.Errorf("query sys status: %w", err)
	}

	var status SysStatus
	if err := DecodeResponse(resp, &status); err != nil {
		return "", err
	}
	if status.VerKey == 0 {
		return "", fmt.Errorf("query sys status: response has no verKey")
	}
	return strconv.FormatInt(status.VerKey, 10), nil
}
